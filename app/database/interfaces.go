package database

import (
	"errors"
	"time"
)

var (
	ErrDuplicateArticle  = errors.New("article already imported")
	ErrDuplicateUsername = errors.New("username already taken")
)

type FeedRepository interface {
	GetFeed(feedID string) (*Feed, error)
	GetFeedByName(feedName string) (*Feed, error)
	GetFeeds() ([]Feed, error)
	GetFeedsDue(now time.Time, limit int) ([]Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(settings FeedSettings) (string, error)
	SetImporter(feedID, importerID string) error
	RecordSuccess(feedID string, fetchedAt, nextFetchAt time.Time, imported int) error
	RecordFailure(feedID string, fetchedAt, nextFetchAt time.Time, reason string) error

	AcquireLease(feedID string, now, until time.Time) (bool, error)
	ReleaseLease(feedID string) error
}

type ArticleRepository interface {
	ArticleExists(importerID, sourceURL string) (bool, error)
	CreateArticle(article *Article) error
	GetArticleCount() (int, error)
	GetFeedArticles(feedID string, limit int) ([]Article, error)
}

type ImporterRepository interface {
	GetImporter(importerID string) (*Importer, error)
	GetImporterByUsername(username string) (*Importer, error)
	CreateImporter(username, name string) (*Importer, error)
}
