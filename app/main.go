package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-importer/app/api"
	"github.com/lysyi3m/rss-importer/app/cfg"
	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/feed"
	"github.com/lysyi3m/rss-importer/app/importer"
	"github.com/lysyi3m/rss-importer/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting RSS Importer", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	slog.Debug("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "dir", appCfg.FeedsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.FeedsDir)

	feedRepo := database.NewFeedStore(db)
	articleRepo := database.NewArticleStore(db)
	importerRepo := database.NewImporterStore(db)

	fetcher := feed.NewFetcher(feed.FetcherConfig{
		UserAgent:      appCfg.UserAgent,
		ConnectTimeout: appCfg.ConnectTimeout,
		ReadTimeout:    appCfg.ReadTimeout,
		MaxRedirects:   appCfg.MaxRedirects,
		RequestsPerSec: appCfg.FetchRate,
	})

	importConfig := importer.DefaultConfig()
	importConfig.MaxItems = appCfg.MaxItems
	importConfig.MaxTags = appCfg.MaxTags
	importConfig.MinBodyChars = appCfg.MinBodyChars
	importConfig.ShortBodyChars = appCfg.ShortBodyChars
	importConfig.MaxParagraphs = appCfg.MaxParagraphs
	importConfig.MinImageWidth = appCfg.MinImageWidth
	importConfig.MinImageHeight = appCfg.MinImageHeight
	importConfig.LeaseDuration = appCfg.LeaseDuration

	feedImporter := importer.New(importConfig, fetcher, feedRepo, articleRepo,
		importer.NewProvisioner(importerRepo, feedRepo))

	scheduler := tasks.NewScheduler(configCache, feedRepo, feedImporter, tasks.Options{
		Interval:    time.Duration(appCfg.SchedulerInterval) * time.Second,
		WorkerCount: appCfg.WorkerCount,
		TaskTimeout: appCfg.LeaseDuration,
		BatchSize:   importConfig.BatchSize,
	})

	if appCfg.Once {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scheduler.SyncConfigs(ctx)
		imported := feedImporter.ImportAll(ctx)
		slog.Info("Import run finished", "imported", imported)
		return
	}

	scheduler.Start()

	apiHandler := api.NewHandler(configCache, feedRepo, articleRepo, feedImporter, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "workers", appCfg.WorkerCount)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()

	slog.Info("Shutdown complete")
}
