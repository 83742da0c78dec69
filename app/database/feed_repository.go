package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const feedColumns = `id, name, feed_url, bot_username, enabled, refresh_interval, max_items,
	COALESCE(importer_id, ''), last_fetched_at, last_error, articles_count,
	next_fetch_at, locked_until, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// FeedStore handles database operations for feeds
type FeedStore struct {
	db *DB
}

var _ FeedRepository = (*FeedStore)(nil)

func NewFeedStore(db *DB) *FeedStore {
	return &FeedStore{db: db}
}

// UpsertFeed inserts or updates a feed source from its configuration and
// returns its database id. Runtime state (errors, counters, lease) is kept.
func (r *FeedStore) UpsertFeed(settings FeedSettings) (string, error) {
	now := time.Now().UTC()

	var id string
	err := r.db.QueryRow(`
		INSERT INTO feeds (id, name, feed_url, bot_username, enabled, refresh_interval, max_items, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			feed_url = excluded.feed_url,
			bot_username = excluded.bot_username,
			enabled = excluded.enabled,
			refresh_interval = excluded.refresh_interval,
			max_items = excluded.max_items,
			updated_at = excluded.updated_at
		RETURNING id
	`, uuid.NewString(), settings.Name, settings.FeedURL, settings.BotUsername, settings.Enabled,
		settings.RefreshInterval, settings.MaxItems, now, now).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert feed: %w", err)
	}

	return id, nil
}

func (r *FeedStore) GetFeed(feedID string) (*Feed, error) {
	return r.getFeedWhere("id = ?", feedID)
}

func (r *FeedStore) GetFeedByName(feedName string) (*Feed, error) {
	return r.getFeedWhere("name = ?", feedName)
}

func (r *FeedStore) getFeedWhere(condition string, arg any) (*Feed, error) {
	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE `+condition, arg)

	feed, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

func (r *FeedStore) GetFeeds() ([]Feed, error) {
	return r.queryFeeds(`SELECT ` + feedColumns + ` FROM feeds ORDER BY name`)
}

// GetFeedsDue returns enabled, unleased feeds that were never fetched or
// whose next fetch time has passed, oldest first.
func (r *FeedStore) GetFeedsDue(now time.Time, limit int) ([]Feed, error) {
	return r.queryFeeds(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE enabled = 1
		  AND (next_fetch_at IS NULL OR next_fetch_at <= ?)
		  AND (locked_until IS NULL OR locked_until <= ?)
		ORDER BY next_fetch_at IS NOT NULL, next_fetch_at, name
		LIMIT ?
	`, now.UTC(), now.UTC(), limit)
}

func (r *FeedStore) queryFeeds(query string, args ...any) ([]Feed, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeds: %w", err)
	}
	defer rows.Close()

	feeds := []Feed{}
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedStore) GetFeedCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func (r *FeedStore) SetImporter(feedID, importerID string) error {
	return r.update("set importer", `
		UPDATE feeds SET importer_id = ?, updated_at = ? WHERE id = ?
	`, importerID, time.Now().UTC(), feedID)
}

// RecordSuccess clears the last error and adds imported to the counter.
func (r *FeedStore) RecordSuccess(feedID string, fetchedAt, nextFetchAt time.Time, imported int) error {
	return r.update("record success", `
		UPDATE feeds
		SET last_fetched_at = ?, next_fetch_at = ?, last_error = '',
		    articles_count = articles_count + ?, updated_at = ?
		WHERE id = ?
	`, fetchedAt.UTC(), nextFetchAt.UTC(), imported, time.Now().UTC(), feedID)
}

// RecordFailure stores reason as the last error and leaves the counter alone.
func (r *FeedStore) RecordFailure(feedID string, fetchedAt, nextFetchAt time.Time, reason string) error {
	return r.update("record failure", `
		UPDATE feeds
		SET last_fetched_at = ?, next_fetch_at = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, fetchedAt.UTC(), nextFetchAt.UTC(), reason, time.Now().UTC(), feedID)
}

// AcquireLease marks the feed as being imported until the given time. It
// reports false when another worker holds an unexpired lease.
func (r *FeedStore) AcquireLease(feedID string, now, until time.Time) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE feeds
		SET locked_until = ?
		WHERE id = ? AND (locked_until IS NULL OR locked_until <= ?)
	`, until.UTC(), feedID, now.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}

	return affected == 1, nil
}

func (r *FeedStore) ReleaseLease(feedID string) error {
	return r.update("release lease", `UPDATE feeds SET locked_until = NULL WHERE id = ?`, feedID)
}

func (r *FeedStore) update(action, query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to %s: %w", action, sql.ErrNoRows)
	}

	return nil
}

func scanFeed(row rowScanner) (*Feed, error) {
	var feed Feed
	var lastFetchedAt, nextFetchAt, lockedUntil sql.NullTime

	err := row.Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.BotUsername, &feed.Enabled,
		&feed.RefreshInterval, &feed.MaxItems, &feed.ImporterID,
		&lastFetchedAt, &feed.LastError, &feed.ArticlesCount,
		&nextFetchAt, &lockedUntil, &feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	feed.LastFetchedAt = timePtr(lastFetchedAt)
	feed.NextFetchAt = timePtr(nextFetchAt)
	feed.LockedUntil = timePtr(lockedUntil)

	return &feed, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
