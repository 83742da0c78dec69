package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArticleStore handles database operations for imported articles
type ArticleStore struct {
	db *DB
}

var _ ArticleRepository = (*ArticleStore)(nil)

func NewArticleStore(db *DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// ArticleExists reports whether importerID already owns an article with
// sourceURL. The unique index is the actual guarantee; this is only a
// shortcut before extraction.
func (r *ArticleStore) ArticleExists(importerID, sourceURL string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM articles WHERE importer_id = ? AND source_url = ?)
	`, importerID, sourceURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	return exists, nil
}

// CreateArticle stores article, filling ID and CreatedAt when unset. A
// second article with the same importer and source URL fails with
// ErrDuplicateArticle.
func (r *ArticleStore) CreateArticle(article *Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC()
	}

	var feedID, mainImage sql.NullString
	if article.FeedID != "" {
		feedID = sql.NullString{String: article.FeedID, Valid: true}
	}
	if article.MainImage != "" {
		mainImage = sql.NullString{String: article.MainImage, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO articles (id, importer_id, feed_id, title, body, source_url, main_image, tags, published, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.ID, article.ImporterID, feedID, article.Title, article.Body, article.SourceURL,
		mainImage, strings.Join(article.Tags, ","), article.Published, article.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateArticle, article.SourceURL)
		}
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

func (r *ArticleStore) GetArticleCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

// GetFeedArticles returns the newest articles imported from a feed.
func (r *ArticleStore) GetFeedArticles(feedID string, limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT id, importer_id, COALESCE(feed_id, ''), title, body, source_url,
		       COALESCE(main_image, ''), tags, published, created_at
		FROM articles
		WHERE feed_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		var article Article
		var tags string
		err := rows.Scan(
			&article.ID, &article.ImporterID, &article.FeedID, &article.Title, &article.Body,
			&article.SourceURL, &article.MainImage, &tags, &article.Published, &article.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		article.Tags = splitTags(tags)
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func splitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	return strings.Split(tags, ",")
}
