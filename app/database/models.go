package database

import (
	"time"
)

// Feed represents a feed source record in the database
type Feed struct {
	ID              string // Database UUID
	Name            string // Configuration feed identifier derived from filename
	FeedURL         string
	BotUsername     string
	Enabled         bool
	RefreshInterval int // seconds
	MaxItems        int // 0 = global default
	ImporterID      string
	LastFetchedAt   *time.Time
	LastError       string
	ArticlesCount   int
	NextFetchAt     *time.Time
	LockedUntil     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (f Feed) GetRefreshInterval() time.Duration {
	if f.RefreshInterval <= 0 {
		return time.Hour
	}
	return time.Duration(f.RefreshInterval) * time.Second
}

// FeedSettings is the configuration part of a feed that SyncFeedConfig owns.
type FeedSettings struct {
	Name            string
	FeedURL         string
	BotUsername     string
	Enabled         bool
	RefreshInterval int
	MaxItems        int
}

// Importer is the account that owns articles created from a feed.
type Importer struct {
	ID        string
	Username  string
	Name      string
	CreatedAt time.Time
}

// Article represents an imported article record in the database
type Article struct {
	ID         string
	ImporterID string
	FeedID     string
	Title      string
	Body       string
	SourceURL  string // normalized, unique per importer
	MainImage  string // empty when none was found
	Tags       []string
	Published  bool
	CreatedAt  time.Time
}
