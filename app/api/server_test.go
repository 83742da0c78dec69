package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/feed"
	"github.com/lysyi3m/rss-importer/app/tasks"
)

const testAPIKey = "secret"

type recordingScheduler struct {
	tasks []tasks.TaskInterface
	err   error
}

func (s *recordingScheduler) Start() {}
func (s *recordingScheduler) Stop()  {}

func (s *recordingScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if s.err != nil {
		return s.err
	}
	s.tasks = append(s.tasks, task)
	return nil
}

type testEnv struct {
	feeds     *database.FeedStore
	articles  *database.ArticleStore
	importers *database.ImporterStore
	scheduler *recordingScheduler
	router    http.Handler
}

func newTestEnv(t *testing.T, apiKey string) *testEnv {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, _, err = database.RunMigrations(db)
	require.NoError(t, err)

	feedsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(feedsDir, "jazz.yml"), []byte(`
url: "https://example.com/jazz.xml"
bot_username: "jazz_bot"
settings:
  enabled: true
  refresh_interval: 600
`), 0644))

	configCache := feed.NewConfigCache(feedsDir)
	require.NoError(t, configCache.Run())

	env := &testEnv{
		feeds:     database.NewFeedStore(db),
		articles:  database.NewArticleStore(db),
		importers: database.NewImporterStore(db),
		scheduler: &recordingScheduler{},
	}

	handler := NewHandler(configCache, env.feeds, env.articles, nil, env.scheduler)
	env.router = NewServer(handler, apiKey, "test")

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (e *testEnv) seedFeed(t *testing.T, name string, enabled bool) string {
	t.Helper()

	id, err := e.feeds.UpsertFeed(database.FeedSettings{
		Name:        name,
		FeedURL:     fmt.Sprintf("https://example.com/%s.xml", name),
		BotUsername: name + "_bot",
		Enabled:     enabled,
	})
	require.NoError(t, err)
	return id
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")
	feedID := env.seedFeed(t, "jazz", true)

	importer, err := env.importers.CreateImporter("jazz_bot", "RSS Bot (example.com)")
	require.NoError(t, err)
	require.NoError(t, env.articles.CreateArticle(&database.Article{
		ID:         "article-1",
		ImporterID: importer.ID,
		FeedID:     feedID,
		Title:      "Hello",
		Body:       "<p>Hello</p>",
		SourceURL:  "https://example.com/hello",
		Published:  true,
		CreatedAt:  time.Now().UTC(),
	}))

	rec := env.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["feeds"])
	assert.EqualValues(t, 1, body["articles"])
	assert.EqualValues(t, 1, body["loaded_configurations"])
}

func TestAPIDisabledWithoutKey(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/api/feeds")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIAuthentication(t *testing.T) {
	env := newTestEnv(t, testAPIKey)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/feeds").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/feeds", "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/feeds", "X-API-Key", testAPIKey).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/feeds", "Authorization", "Bearer "+testAPIKey).Code)
}

func TestAPIListFeedsShowsFailures(t *testing.T) {
	env := newTestEnv(t, testAPIKey)
	feedID := env.seedFeed(t, "jazz", true)

	fetchedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, env.feeds.RecordFailure(feedID, fetchedAt, fetchedAt.Add(time.Hour), "HTTP 503"))

	rec := env.do(t, http.MethodGet, "/api/feeds", "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 1, body["total"])

	feeds := body["feeds"].([]interface{})
	jazz := feeds[0].(map[string]interface{})
	assert.Equal(t, "jazz", jazz["name"])
	assert.Equal(t, "HTTP 503", jazz["last_error"])
	assert.NotNil(t, jazz["last_fetched_at"])
	assert.NotNil(t, jazz["next_fetch_at"])
	assert.EqualValues(t, 0, jazz["articles_count"])
}

func TestAPIGetFeedDetails(t *testing.T) {
	env := newTestEnv(t, testAPIKey)
	env.seedFeed(t, "jazz", true)

	rec := env.do(t, http.MethodGet, "/api/feeds/jazz", "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["articles"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/feeds/unknown", "X-API-Key", testAPIKey).Code)
}

func TestAPIImportFeed(t *testing.T) {
	env := newTestEnv(t, testAPIKey)
	feedID := env.seedFeed(t, "jazz", true)
	env.seedFeed(t, "rock", false)

	rec := env.do(t, http.MethodPost, "/api/feeds/jazz/import", "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, env.scheduler.tasks, 1)
	importTask, ok := env.scheduler.tasks[0].(*tasks.ImportFeedTask)
	require.True(t, ok)
	assert.Equal(t, feedID, importTask.FeedID)
	assert.Equal(t, tasks.TaskTypeImportFeed, importTask.GetType())

	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/feeds/rock/import", "X-API-Key", testAPIKey).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/feeds/unknown/import", "X-API-Key", testAPIKey).Code)

	env.scheduler.err = fmt.Errorf("import of feed jazz is already queued")
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodPost, "/api/feeds/jazz/import", "X-API-Key", testAPIKey).Code)
}

func TestAPIReloadFeed(t *testing.T) {
	env := newTestEnv(t, testAPIKey)

	rec := env.do(t, http.MethodPost, "/api/feeds/jazz/reload", "X-API-Key", testAPIKey)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, env.scheduler.tasks, 1)
	assert.Equal(t, tasks.TaskTypeSyncFeedConfig, env.scheduler.tasks[0].GetType())

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/feeds/missing/reload", "X-API-Key", testAPIKey).Code)
}
