package api

import (
	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/feed"
	"github.com/lysyi3m/rss-importer/app/tasks"
)

const recentArticlesLimit = 20

type Handler struct {
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	configCache *feed.ConfigCache
	importer    tasks.FeedImporter
	scheduler   tasks.TaskSchedulerInterface
}

type feedStatus struct {
	Name            string      `json:"name"`
	URL             string      `json:"url"`
	BotUsername     string      `json:"bot_username"`
	Enabled         bool        `json:"enabled"`
	RefreshInterval string      `json:"refresh_interval"`
	MaxItems        int         `json:"max_items"`
	ArticlesCount   int         `json:"articles_count"`
	LastFetchedAt   interface{} `json:"last_fetched_at"`
	NextFetchAt     interface{} `json:"next_fetch_at"`
	LastError       string      `json:"last_error,omitempty"`
	Importing       bool        `json:"importing"`
}

type articleSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	SourceURL string   `json:"source_url"`
	MainImage string   `json:"main_image,omitempty"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
}
