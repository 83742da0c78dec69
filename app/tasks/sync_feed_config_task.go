package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/feed"
)

type SyncFeedConfigTask struct {
	Task
	FeedConfig *feed.Config
	feedRepo   database.FeedRepository
}

func NewSyncFeedConfigTask(feedName string, feedConfig *feed.Config, feedRepo database.FeedRepository) *SyncFeedConfigTask {
	return &SyncFeedConfigTask{
		Task:       NewTask(TaskTypeSyncFeedConfig, feedName, DefaultMaxRetries),
		FeedConfig: feedConfig,
		feedRepo:   feedRepo,
	}
}

func (t *SyncFeedConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	feedID, err := t.feedRepo.UpsertFeed(database.FeedSettings{
		Name:            t.FeedConfig.Name,
		FeedURL:         t.FeedConfig.URL,
		BotUsername:     t.FeedConfig.BotUsername,
		Enabled:         t.FeedConfig.Settings.Enabled,
		RefreshInterval: t.FeedConfig.Settings.RefreshInterval,
		MaxItems:        t.FeedConfig.Settings.MaxItems,
	})
	if err != nil {
		slog.Error("Task failed", "type", "SyncFeedConfig", "feed", t.FeedName, "error", err)
		return fmt.Errorf("failed to sync feed config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncFeedConfig",
		"feed", t.FeedName,
		"feed_id", feedID,
		"duration", t.GetDuration())

	return nil
}
