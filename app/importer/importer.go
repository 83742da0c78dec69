package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/feed"
)

type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Result describes one import attempt of a feed.
type Result struct {
	FeedID   string
	FeedName string
	State    State
	Imported int
	Skipped  int // already imported or lost a uniqueness race
	Failed   int // items dropped because of extraction or storage errors
	Err      error
}

type Importer struct {
	config      Config
	getter      feed.Getter
	parser      *feed.Parser
	extractor   *feed.ContentExtractor
	resolver    *feed.ImageResolver
	transformer *feed.Transformer
	feeds       FeedStore
	articles    ArticleStore
	identities  IdentityProvider
	now         func() time.Time
}

func New(config Config, getter feed.Getter, feeds FeedStore, articles ArticleStore, identities IdentityProvider) *Importer {
	return &Importer{
		config:      config,
		getter:      getter,
		parser:      feed.NewParser(),
		extractor:   feed.NewContentExtractor(config.MinBodyChars, config.MaxParagraphs),
		resolver:    feed.NewImageResolver(config.MinImageWidth, config.MinImageHeight),
		transformer: feed.NewTransformer(config.ShortBodyChars),
		feeds:       feeds,
		articles:    articles,
		identities:  identities,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ImportOne imports the feed with the given id and returns the number of
// articles created. Failures are recorded on the feed and logged.
func (i *Importer) ImportOne(ctx context.Context, feedID string) int {
	f, err := i.feeds.GetFeed(feedID)
	if err != nil {
		slog.Error("Failed to load feed", "feed_id", feedID, "error", err)
		return 0
	}
	if f == nil {
		slog.Warn("Feed not found", "feed_id", feedID)
		return 0
	}

	return i.Import(ctx, *f).Imported
}

// ImportAll imports every due feed whose lease can be taken and returns the
// total number of articles created. A failing feed does not stop the others.
func (i *Importer) ImportAll(ctx context.Context) int {
	due, err := i.feeds.GetFeedsDue(i.now(), i.config.BatchSize)
	if err != nil {
		slog.Error("Failed to get feeds due for import", "error", err)
		return 0
	}

	total := 0
	for _, f := range due {
		if ctx.Err() != nil {
			break
		}
		result, ok := i.TryImport(ctx, f)
		if ok {
			total += result.Imported
		}
	}

	return total
}

// TryImport runs Import while holding the feed's lease. It reports false
// when another worker is importing the feed.
func (i *Importer) TryImport(ctx context.Context, f database.Feed) (Result, bool) {
	now := i.now()
	acquired, err := i.feeds.AcquireLease(f.ID, now, now.Add(i.config.LeaseDuration))
	if err != nil {
		slog.Error("Failed to acquire feed lease", "feed", f.Name, "error", err)
		return Result{FeedID: f.ID, FeedName: f.Name, State: StateIdle, Err: err}, false
	}
	if !acquired {
		slog.Debug("Feed import already running, skipping", "feed", f.Name)
		return Result{FeedID: f.ID, FeedName: f.Name, State: StateIdle}, false
	}

	defer func() {
		if err := i.feeds.ReleaseLease(f.ID); err != nil {
			slog.Error("Failed to release feed lease", "feed", f.Name, "error", err)
		}
	}()

	return i.Import(ctx, f), true
}

// Import runs one Idle -> Fetching -> Succeeded|Failed cycle for f.
func (i *Importer) Import(ctx context.Context, f database.Feed) Result {
	result := Result{FeedID: f.ID, FeedName: f.Name, State: StateIdle}
	startedAt := i.now()
	nextFetchAt := startedAt.Add(f.GetRefreshInterval())

	importer, err := i.identities.EnsureImporter(f)
	if err != nil {
		if !errors.Is(err, ErrNoImporter) {
			err = fmt.Errorf("%w: %v", ErrNoImporter, err)
		}
		return i.fail(result, startedAt, nextFetchAt, err)
	}

	result.State = StateFetching
	slog.Debug("Fetching feed", "feed", f.Name, "url", f.FeedURL)

	resp, err := i.getter.Get(ctx, f.FeedURL)
	if err != nil {
		return i.fail(result, startedAt, nextFetchAt, err)
	}

	items, err := i.parser.Run(resp.Body)
	if err != nil {
		slog.Warn("Feed could not be parsed, treating as empty", "feed", f.Name, "error", err)
	}

	for _, item := range i.newest(items, f) {
		if ctx.Err() != nil {
			slog.Warn("Import interrupted", "feed", f.Name, "error", ctx.Err())
			break
		}

		created, err := i.importItem(ctx, importer.ID, f.ID, item)
		switch {
		case errors.Is(err, database.ErrDuplicateArticle):
			result.Skipped++
			slog.Debug("Article created concurrently, skipping", "feed", f.Name, "link", item.Link)
		case err != nil:
			result.Failed++
			slog.Warn("Item skipped", "feed", f.Name, "link", item.Link, "error", err)
		case created:
			result.Imported++
		default:
			result.Skipped++
		}
	}

	result.State = StateSucceeded
	if err := i.feeds.RecordSuccess(f.ID, startedAt, nextFetchAt, result.Imported); err != nil {
		slog.Error("Failed to record feed import", "feed", f.Name, "error", err)
	}

	slog.Info("Feed imported",
		"feed", f.Name,
		"items", len(items),
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", time.Since(startedAt))

	return result
}

func (i *Importer) fail(result Result, fetchedAt, nextFetchAt time.Time, err error) Result {
	result.State = StateFailed
	result.Err = err

	slog.Error("Feed import failed", "feed", result.FeedName, "error", err)

	if recordErr := i.feeds.RecordFailure(result.FeedID, fetchedAt, nextFetchAt, err.Error()); recordErr != nil {
		slog.Error("Failed to record feed error", "feed", result.FeedName, "error", recordErr)
	}

	return result
}

// newest returns the first items in document order, which feeds publish
// newest first.
func (i *Importer) newest(items []feed.Item, f database.Feed) []feed.Item {
	limit := i.config.MaxItems
	if f.MaxItems > 0 {
		limit = f.MaxItems
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

// importItem reports false without error when the item was imported before.
func (i *Importer) importItem(ctx context.Context, importerID, feedID string, item feed.Item) (bool, error) {
	link := feed.NormalizeURL(item.Link)
	if link == "" {
		return false, &ExtractionError{Field: "link", Title: item.Title}
	}
	if item.Title == "" {
		return false, &ExtractionError{Field: "title"}
	}

	exists, err := i.articles.ArticleExists(importerID, link)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if exists {
		slog.Debug("Article already imported", "link", link)
		return false, nil
	}

	pages := feed.NewPageCache(i.getter)

	body := i.extractor.Run(ctx, item, link, pages)
	image := i.resolver.Run(ctx, item, feed.PrimaryBody(item), link, pages)
	tags := feed.NormalizeTags(item.Categories, i.config.MaxTags)

	article := &database.Article{
		ID:         uuid.NewString(),
		ImporterID: importerID,
		FeedID:     feedID,
		Title:      item.Title,
		Body:       i.transformer.Run(body, link),
		SourceURL:  link,
		MainImage:  image,
		Tags:       tags,
		Published:  true,
		CreatedAt:  i.now(),
	}

	if err := i.articles.CreateArticle(article); err != nil {
		return false, &PersistenceError{SourceURL: link, Err: err}
	}

	slog.Debug("Article created", "title", article.Title, "link", link, "image", image, "tags", tags)
	return true, nil
}
