package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/subwatch/subwatch/internal/acquisition"
	"github.com/subwatch/subwatch/internal/attempts"
	"github.com/subwatch/subwatch/internal/blacklist"
	"github.com/subwatch/subwatch/internal/config"
	"github.com/subwatch/subwatch/internal/database"
	"github.com/subwatch/subwatch/internal/history"
	"github.com/subwatch/subwatch/internal/logger"
	"github.com/subwatch/subwatch/internal/media"
	"github.com/subwatch/subwatch/internal/notify"
	"github.com/subwatch/subwatch/internal/profile"
	"github.com/subwatch/subwatch/internal/provider"
	"github.com/subwatch/subwatch/internal/scheduler"
	"github.com/subwatch/subwatch/internal/scheduler/tasks"
	"github.com/subwatch/subwatch/internal/scoring"
	"github.com/subwatch/subwatch/internal/subtitles"
	"github.com/subwatch/subwatch/internal/synchook"
	"github.com/subwatch/subwatch/internal/upgrade"
)

func main() {
	// .env is optional; ignore a missing file.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	migrateOnly := flag.Bool("migrate", false, "Run database migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Str("database", cfg.Database.Path).
		Msg("Starting SubWatch")

	if err := run(cfg, *configPath, log, *migrateOnly); err != nil {
		log.Fatal().Err(err).Msg("SubWatch exited with error")
	}
}

func run(cfg *config.Config, configPath string, log *logger.Logger, migrateOnly bool) error {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if migrateOnly {
		log.Info().Msg("Migrations complete")
		return nil
	}

	// Stores and services.
	items := media.NewStore(db.Conn(), log.Logger)
	profiles := profile.NewStore(db.Conn(), log.Logger)
	attemptStore := attempts.NewStore(db.Conn(), log.Logger)
	historySvc := history.NewService(db.Conn(), log.Logger)
	blacklistSvc := blacklist.NewService(db.Conn(), log.Logger)
	storage := subtitles.NewStorage(log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := profiles.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed default profiles: %w", err)
	}

	// Provider pool and scoring.
	registry := provider.NewRegistry()
	pool := provider.NewPool(cfg.Providers, provider.DefaultBackoffConfig(), log.Logger)

	// Provider edits in the config file take effect without a restart;
	// merge-update keeps throttle state for providers that remain.
	watching, err := config.Watch(configPath, func(next *config.Config) {
		pool.Update(next.Providers)
		log.Info().Int("providers", len(next.Providers)).Msg("Provider configuration reloaded")
	})
	if err != nil {
		log.Warn().Err(err).Msg("Config watch unavailable")
	} else if watching {
		log.Info().Msg("Watching config file for provider changes")
	}

	scoringCfg := scoring.DefaultConfig()
	if cfg.Search.MinimumPercentEpisode > 0 {
		scoringCfg.MinimumPercentEpisode = cfg.Search.MinimumPercentEpisode
	}
	if cfg.Search.MinimumPercentMovie > 0 {
		scoringCfg.MinimumPercentMovie = cfg.Search.MinimumPercentMovie
	}
	engine := scoring.NewEngine(scoringCfg)

	retryPolicy := attempts.DefaultPolicy()
	retryPolicy.Enabled = cfg.Retry.Enabled
	if cfg.Retry.InitialDelay > 0 {
		retryPolicy.InitialDelay = cfg.Retry.InitialDelay
	}
	if cfg.Retry.RetryInterval > 0 {
		retryPolicy.RetryInterval = cfg.Retry.RetryInterval
	}

	svc := acquisition.NewService(
		items,
		profiles,
		attemptStore,
		pool,
		registry,
		engine,
		historySvc,
		blacklistSvc,
		storage,
		acquisition.Options{
			RetryPolicy:          retryPolicy,
			SyncThresholdPercent: cfg.Sync.ThresholdPercent,
			ProviderTimeout:      cfg.Search.ProviderTimeout,
		},
		log.Logger,
	)

	if cfg.Sync.Enabled && cfg.Sync.Command != "" {
		svc.SetSyncer(synchook.NewCommand(cfg.Sync.Command, nil, cfg.Sync.Timeout, log.Logger))
	}
	if cfg.Sync.PostCommand != "" {
		post := synchook.NewCommand(cfg.Sync.PostCommand, nil, cfg.Sync.Timeout, log.Logger)
		svc.SetPostProcess(func(ctx context.Context, videoPath, subtitlePath string) error {
			return post.Sync(ctx, videoPath, subtitlePath, "")
		})
	}
	if cfg.Notify.WebhookURL != "" {
		webhook := notify.NewWebhook(notify.WebhookSettings{URL: cfg.Notify.WebhookURL}, http.DefaultClient, log.Logger)
		svc.SetNotifier(notify.NewDispatcher(log.Logger, webhook))
	}

	searcher := acquisition.NewWantedSearcher(items, svc, log.Logger)
	sweeper := upgrade.NewSweeper(historySvc, svc, upgrade.Config{
		WindowDays:                cfg.Upgrade.WindowDays,
		NearPerfectPercentEpisode: cfg.Upgrade.NearPerfectPercentEpisode,
		NearPerfectPercentMovie:   cfg.Upgrade.NearPerfectPercentMovie,
		IncludeManual:             cfg.Upgrade.IncludeManual,
	}, log.Logger)

	// Scheduler.
	sched, err := scheduler.New(log.Logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := tasks.RegisterWantedSeriesTask(sched, searcher, &cfg.Scheduler); err != nil {
		return fmt.Errorf("failed to register wanted-series task: %w", err)
	}
	if err := tasks.RegisterWantedMoviesTask(sched, searcher, &cfg.Scheduler); err != nil {
		return fmt.Errorf("failed to register wanted-movies task: %w", err)
	}
	if err := tasks.RegisterUpgradeTask(sched, sweeper, cfg); err != nil {
		return fmt.Errorf("failed to register upgrade task: %w", err)
	}
	maintenance := tasks.NewMaintenanceTask(items, svc, pool, &log.Logger)
	if err := tasks.RegisterMaintenanceTask(sched, maintenance, &cfg.Scheduler); err != nil {
		return fmt.Errorf("failed to register maintenance task: %w", err)
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info().Int("providers", len(cfg.Providers)).Msg("SubWatch started")

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop scheduler cleanly")
	}

	log.Info().Msg("SubWatch stopped")
	return nil
}
