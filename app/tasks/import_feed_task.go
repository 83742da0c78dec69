package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-importer/app/database"
)

// ImportFeedTask imports one feed. It is not retried: a failed import is
// recorded on the feed and picked up again once the feed is due.
type ImportFeedTask struct {
	Task
	FeedID   string
	feedRepo database.FeedRepository
	importer FeedImporter
}

func NewImportFeedTask(feedID, feedName string, feedRepo database.FeedRepository, importer FeedImporter) *ImportFeedTask {
	return &ImportFeedTask{
		Task:     NewTask(TaskTypeImportFeed, feedName, 0),
		FeedID:   feedID,
		feedRepo: feedRepo,
		importer: importer,
	}
}

func (t *ImportFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f, err := t.feedRepo.GetFeed(t.FeedID)
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}
	if f == nil {
		slog.Warn("Feed not found in database, skipping", "feed", t.FeedName, "feed_id", t.FeedID)
		return nil
	}
	if !f.Enabled {
		slog.Debug("Feed disabled, skipping import", "feed", t.FeedName)
		return nil
	}

	result, ok := t.importer.TryImport(ctx, *f)
	if !ok {
		if result.Err != nil {
			return fmt.Errorf("failed to acquire feed lease: %w", result.Err)
		}
		slog.Debug("Task skipped", "type", "ImportFeed", "feed", t.FeedName, "reason", "import already running")
		return nil
	}

	if result.Err != nil {
		slog.Error("Task failed", "type", "ImportFeed", "feed", t.FeedName, "error", result.Err)
		return result.Err
	}

	slog.Info("Task completed",
		"type", "ImportFeed",
		"feed", t.FeedName,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", t.GetDuration())

	return nil
}
