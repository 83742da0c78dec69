package tasks

import (
	"context"

	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/importer"
)

// TaskSchedulerInterface is what the HTTP API and main need from the
// scheduler.
//
//	scheduler := NewScheduler(configCache, feedRepo, feedImporter, Options{...})
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewImportFeedTask(feed.ID, feed.Name, feedRepo, feedImporter))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// FeedImporter runs a leased import of one feed.
type FeedImporter interface {
	TryImport(ctx context.Context, f database.Feed) (importer.Result, bool)
}

var _ FeedImporter = (*importer.Importer)(nil)
