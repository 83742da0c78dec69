package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/feed"
	"github.com/lysyi3m/rss-importer/app/tasks"
)

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, importer tasks.FeedImporter,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		configCache: configCache,
		importer:    importer,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	feedCount, err := h.feedRepo.GetFeedCount()
	if err != nil {
		slog.Error("Database error", "operation", "count_feeds", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "Database error"})
		return
	}
	health["feeds"] = feedCount

	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		health["articles"] = articleCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.GetFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "get_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	statuses := make([]feedStatus, 0, len(feeds))
	for _, f := range feeds {
		statuses = append(statuses, newFeedStatus(f))
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": statuses,
		"total": len(statuses),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	f, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	articles, err := h.articleRepo.GetFeedArticles(f.ID, recentArticlesLimit)
	if err != nil {
		slog.Error("Database error", "operation", "get_articles", "feed", f.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	recent := make([]articleSummary, 0, len(articles))
	for _, a := range articles {
		recent = append(recent, articleSummary{
			ID:        a.ID,
			Title:     a.Title,
			SourceURL: a.SourceURL,
			MainImage: a.MainImage,
			Tags:      a.Tags,
			CreatedAt: a.CreatedAt.In(time.Local).Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"feed":     newFeedStatus(*f),
		"importer": f.ImporterID,
		"articles": recent,
	})
}

func (h *Handler) APIImportFeed(c *gin.Context) {
	f, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	if !f.Enabled {
		c.JSON(http.StatusConflict, gin.H{"error": "Feed is disabled"})
		return
	}

	importTask := tasks.NewImportFeedTask(f.ID, f.Name, h.feedRepo, h.importer)
	if err := h.scheduler.EnqueueTask(importTask); err != nil {
		slog.Error("Error enqueueing import task", "feed", f.Name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue import task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Import task enqueued",
		"feed":    f.Name,
		"task": gin.H{
			"id":   importTask.ID,
			"type": importTask.Type,
		},
	})
}

func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncFeedTask := tasks.NewSyncFeedConfigTask(name, feedConfig, h.feedRepo)
	if err := h.scheduler.EnqueueTask(syncFeedTask); err != nil {
		slog.Error("Error enqueueing sync task", "feed", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Configuration reloaded and sync task enqueued",
		"feed": gin.H{
			"name":    name,
			"url":     feedConfig.URL,
			"enabled": feedConfig.Settings.Enabled,
		},
		"task": gin.H{
			"id":   syncFeedTask.ID,
			"type": syncFeedTask.Type,
		},
	})
}

func (h *Handler) lookupFeed(c *gin.Context) (*database.Feed, bool) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return nil, false
	}

	f, err := h.feedRepo.GetFeedByName(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}

	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return nil, false
	}

	return f, true
}

func newFeedStatus(f database.Feed) feedStatus {
	status := feedStatus{
		Name:            f.Name,
		URL:             f.FeedURL,
		BotUsername:     f.BotUsername,
		Enabled:         f.Enabled,
		RefreshInterval: f.GetRefreshInterval().String(),
		MaxItems:        f.MaxItems,
		ArticlesCount:   f.ArticlesCount,
		LastError:       f.LastError,
		Importing:       f.LockedUntil != nil && f.LockedUntil.After(time.Now()),
	}

	if f.LastFetchedAt != nil {
		status.LastFetchedAt = f.LastFetchedAt.In(time.Local).Format(time.RFC3339)
	}
	if f.NextFetchAt != nil {
		status.NextFetchAt = f.NextFetchAt.In(time.Local).Format(time.RFC3339)
	}

	return status
}
