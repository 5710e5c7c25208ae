package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	v1 "github.com/streamcloud/streamcloud/internal/api/v1"
	"github.com/streamcloud/streamcloud/internal/catalog"
	"github.com/streamcloud/streamcloud/internal/config"
	"github.com/streamcloud/streamcloud/internal/download"
	"github.com/streamcloud/streamcloud/internal/feed"
	"github.com/streamcloud/streamcloud/internal/migrations"
	"github.com/streamcloud/streamcloud/internal/notify"
	"github.com/streamcloud/streamcloud/internal/prefs"
	"github.com/streamcloud/streamcloud/internal/probe"
	"github.com/streamcloud/streamcloud/internal/server"
	"github.com/streamcloud/streamcloud/internal/stream"
	"github.com/streamcloud/streamcloud/internal/transcode"
	"github.com/streamcloud/streamcloud/internal/vault"
	"github.com/streamcloud/streamcloud/pkg/rss"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// finalizeAdapter bridges the download pipeline to catalog finalization.
type finalizeAdapter struct {
	catalog *catalog.Service
}

func (a finalizeAdapter) Finalize(ctx context.Context, mediaID, filePath string) error {
	_, err := a.catalog.Finalize(ctx, mediaID, filePath)
	return err
}

func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	for _, dir := range []string{filepath.Dir(cfg.Database.Path), cfg.Storage.MediaRoot, cfg.Storage.VaultRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// === Clients ===
	var tiers []transcode.Tier
	for _, t := range cfg.Transcode.Tiers {
		tiers = append(tiers, transcode.Tier{
			Resolution:   t.Resolution,
			VideoBitrate: t.VideoBitrate,
			AudioBitrate: t.AudioBitrate,
		})
	}
	engine := transcode.New(transcode.Config{
		FFmpeg:          cfg.Transcode.FFmpeg,
		Tiers:           tiers,
		SegmentSeconds:  cfg.Transcode.SegmentSeconds,
		ThumbnailOffset: cfg.Transcode.ThumbnailOffset,
	}, logger)
	prober := probe.New(cfg.Transcode.FFprobe)

	aria2, err := download.DialAria2(ctx, cfg.Aria2.URL, cfg.Aria2.Secret, logger)
	if err != nil {
		return fmt.Errorf("aria2: %w", err)
	}
	defer aria2.Close()

	// === Services ===
	prefsSvc := prefs.NewService(prefs.NewStore(db))
	notifySvc := notify.NewService(notify.NewStore(db), prefsSvc, logger)
	catalogSvc := catalog.NewService(catalog.NewStore(db), prober, engine, cfg.Storage.MediaRoot, logger)
	resolver := stream.NewResolver(catalog.NewStore(db), engine, cfg.Storage.MediaRoot, logger)
	vaultSvc := vault.NewService(vault.NewStore(db), cfg.Storage.VaultRoot, cfg.Storage.VaultSecret, logger)

	// The daemon runs with its own working directory, so it needs an
	// absolute drop location.
	downloadDir, err := filepath.Abs(cfg.Storage.MediaRoot)
	if err != nil {
		return fmt.Errorf("resolve media root: %w", err)
	}
	orch := download.NewOrchestrator(download.OrchestratorConfig{
		Store:       download.NewStore(db),
		Daemon:      aria2,
		Quota:       prefsSvc,
		Finalizer:   finalizeAdapter{catalog: catalogSvc},
		Notifier:    notifySvc,
		DownloadDir: downloadDir,
		UserAgent:   cfg.Aria2.UserAgent,
	}, logger)

	fetcher := rss.NewClient(cfg.Aria2.UserAgent, logger)
	watcher := feed.NewWatcher(feed.NewStore(db), fetcher, orch, catalogSvc, cfg.Feeds.PollInterval, logger)

	// === HTTP ===
	mux := http.NewServeMux()
	api, err := v1.New(v1.ServerDeps{
		Catalog:       catalogSvc,
		Streams:       resolver,
		Downloads:     orch,
		Feeds:         feed.NewStore(db),
		Notifications: notify.NewStore(db),
		Prefs:         prefsSvc,
		Vault:         vaultSvc,
		Daemon:        aria2,
		UploadDir:     os.TempDir(),
	}, logger)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	api.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"media_root", cfg.Storage.MediaRoot,
		"aria2", cfg.Aria2.URL,
		"log_level", cfg.Server.LogLevel,
	)

	runner := server.NewRunner(addr, v1.RequestLogger(logger, mux), orch, watcher, logger)
	if err := runner.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
