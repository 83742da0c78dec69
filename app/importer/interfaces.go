package importer

import (
	"time"

	"github.com/lysyi3m/rss-importer/app/database"
)

// FeedStore is the feed bookkeeping the importer needs.
type FeedStore interface {
	GetFeed(feedID string) (*database.Feed, error)
	GetFeedsDue(now time.Time, limit int) ([]database.Feed, error)
	RecordSuccess(feedID string, fetchedAt, nextFetchAt time.Time, imported int) error
	RecordFailure(feedID string, fetchedAt, nextFetchAt time.Time, reason string) error
	AcquireLease(feedID string, now, until time.Time) (bool, error)
	ReleaseLease(feedID string) error
}

// ArticleStore is the dedup lookup and persistence sink for articles.
// CreateArticle must fail with database.ErrDuplicateArticle when the
// (importer, source URL) pair already exists.
type ArticleStore interface {
	ArticleExists(importerID, sourceURL string) (bool, error)
	CreateArticle(article *database.Article) error
}

// IdentityProvider returns the importer that owns a feed's articles,
// creating it on first use.
type IdentityProvider interface {
	EnsureImporter(feed database.Feed) (*database.Importer, error)
}
