// Package main is the entry point for the brainBuddy progress daemon.
//
// The daemon owns one progress engine per configured user session, persists
// its state to the local store, serves it to the UI shell over a local HTTP
// interface, and reconciles it with the remote Progress Service in the
// background.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/impranzal/brainBuddy-sub000/config"
	"github.com/impranzal/brainBuddy-sub000/internal/application/eventhandler"
	"github.com/impranzal/brainBuddy-sub000/internal/domain/shared"
	"github.com/impranzal/brainBuddy-sub000/internal/engine"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/catalog"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/external/progressapi"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/messaging"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/persistence/kvstore"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/scheduler"
	"github.com/impranzal/brainBuddy-sub000/internal/infrastructure/scheduler/jobs"
	httpiface "github.com/impranzal/brainBuddy-sub000/internal/interface/http"
	"github.com/impranzal/brainBuddy-sub000/pkg/circuitbreaker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting brainBuddy progress daemon",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"user_id", cfg.App.UserID,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	store, err := kvstore.Open(kvstore.Config{
		Backend:    kvstore.Backend(cfg.Storage.Backend),
		SQLitePath: cfg.Storage.SQLitePath,
		Redis: kvstore.RedisConfig{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		},
		TTL:    cfg.Storage.TTL,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	log.Info("store opened", "backend", cfg.Storage.Backend)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. QUIZ BANK
	// ─────────────────────────────────────────────────────────────────────────
	var bank *catalog.QuizBank
	if cfg.Quiz.BankPath != "" {
		bank, err = catalog.LoadQuizBank(cfg.Quiz.BankPath)
		if err != nil {
			return fmt.Errorf("load quiz bank %q: %w", cfg.Quiz.BankPath, err)
		}
		log.Info("quiz bank loaded", "path", cfg.Quiz.BankPath, "items", bank.Size())
	} else {
		bank, err = catalog.DefaultQuizBank()
		if err != nil {
			return fmt.Errorf("load embedded quiz bank: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS + ENGINE
	// ─────────────────────────────────────────────────────────────────────────
	bus := messaging.NewInMemoryEventBus(log)
	defer bus.Close()

	eng, err := engine.New(engine.Config{
		UserID: cfg.App.UserID,
		Store:  store,
		Bus:    bus,
		Bank:   bank,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	if err := eng.Load(ctx); err != nil {
		return fmt.Errorf("load engine state: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. PROGRESS SERVICE CLIENT + SYNCHRONIZER
	// ─────────────────────────────────────────────────────────────────────────
	var synchronizer *engine.Synchronizer
	if cfg.SyncConfigured() && cfg.Features.IsEnabled(config.FeatureSyncProgress) {
		clientCfg := progressapi.DefaultClientConfig(cfg.ProgressService.BaseURL)
		clientCfg.Timeout = cfg.ProgressService.RequestTimeout
		clientCfg.RateLimiterConfig = progressapi.RateLimiterConfig{
			RequestsPerMinute: cfg.ProgressService.RateLimit,
			Burst:             cfg.ProgressService.RateLimitBurst,
		}
		clientCfg.CircuitBreakerConfig = circuitbreaker.Config{
			Name:             "progress-service",
			FailureThreshold: cfg.ProgressService.CircuitBreakerThreshold,
			Timeout:          cfg.ProgressService.CircuitBreakerTimeout,
		}
		clientCfg.Logger = log
		client := progressapi.NewClient(clientCfg)

		token := cfg.ProgressService.Token
		synchronizer = engine.NewSynchronizer(eng, client, func() string { return token }, log)
		log.Info("progress service sync enabled", "base_url", cfg.ProgressService.BaseURL)
	} else {
		log.Info("progress service sync disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	var trigger eventhandler.SyncTrigger
	if synchronizer != nil {
		trigger = synchronizer
	}
	if err := bus.Subscribe(shared.EventLevelUp, eventhandler.NewOnLevelUpHandler(trigger, log)); err != nil {
		return fmt.Errorf("subscribe level-up handler: %w", err)
	}
	if err := bus.Subscribe(shared.EventSessionCompleted, eventhandler.NewOnSessionCompletedHandler(trigger, log)); err != nil {
		return fmt.Errorf("subscribe session-completed handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(scheduler.Config{Logger: log})

		if synchronizer != nil {
			if err := sched.Register(
				jobs.NewSyncProgressJob(synchronizer, cfg.Scheduler.JobTimeout, log),
				scheduler.NewIntervalSchedule(cfg.Scheduler.SyncInterval),
			); err != nil {
				return fmt.Errorf("register sync job: %w", err)
			}
			if cfg.Features.IsEnabled(config.FeatureSyncRemoteStats) {
				if err := sched.Register(
					jobs.NewRefreshRemoteStatsJob(synchronizer, cfg.Scheduler.JobTimeout, log),
					scheduler.NewIntervalSchedule(cfg.Scheduler.RemoteStatsInterval),
				); err != nil {
					return fmt.Errorf("register stats job: %w", err)
				}
			}
		}

		if err := sched.Register(
			jobs.NewPurgeExpiredJob(store, log),
			scheduler.NewIntervalSchedule(cfg.Scheduler.PurgeExpiredInterval),
		); err != nil {
			return fmt.Errorf("register purge job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP INTERFACE
	// ─────────────────────────────────────────────────────────────────────────
	var server *httpiface.Server
	serverErr := make(chan error, 1)
	if cfg.Features.IsEnabled(config.FeatureHTTPAPI) {
		server = httpiface.NewServer(httpiface.Config{
			Addr:            cfg.HTTP.Addr,
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			WriteTimeout:    cfg.HTTP.WriteTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		}, httpiface.Dependencies{
			Engine:   eng,
			Features: cfg.Features,
			Logger:   log,
		})
		go func() {
			serverErr <- server.Start()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("progress daemon is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown error", "error", err)
		}
	}

	// One final sync attempt so the remote record is as fresh as possible.
	if synchronizer != nil {
		if err := synchronizer.Sync(shutdownCtx); err != nil {
			log.Warn("final sync failed", "error", err)
		}
	}

	log.Info("shutdown completed")
	return nil
}

// setupLogger configures structured logging from the observability config.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Observability.LogLevel)}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func parseLogLevel(level string) slog.Level {
	switch level {
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
