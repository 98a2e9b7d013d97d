package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinegate/cinegate/internal/bot"
	"github.com/cinegate/cinegate/internal/config"
	"github.com/cinegate/cinegate/internal/cron"
	"github.com/cinegate/cinegate/internal/deletion"
	"github.com/cinegate/cinegate/internal/gate"
	"github.com/cinegate/cinegate/internal/gateway"
	"github.com/cinegate/cinegate/internal/metrics"
	"github.com/cinegate/cinegate/internal/store"
	"github.com/cinegate/cinegate/internal/telegram"
	"github.com/cinegate/cinegate/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

// run wires every component and blocks until a termination signal.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runUntil(ctx, cfg)
}

// runUntil starts everything and tears it down when ctx is cancelled.
// Split from run so the service wrapper can supply its own context.
func runUntil(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)
	logger.Info("starting cinegate",
		"version", version,
		"database", redactDSN(cfg.DatabaseURL),
		"channels", len(cfg.Channels),
		"delete_after", cfg.DeleteAfter,
	)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, version)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	m := metrics.New()
	client := telegram.NewClient(cfg.BotToken, cfg.APIURL)
	g := gate.New(client, cfg.Channels, logger)
	reaper := deletion.NewReaper(client, logger, m)

	b := bot.New(client, st, g, reaper, m, logger, bot.Options{
		AdminID:        cfg.AdminID,
		SourceChannel:  cfg.SourceChannel,
		DeleteAfter:    cfg.DeleteAfter,
		PollingTimeout: cfg.PollingTimeout,
	})
	if err := b.Start(ctx); err != nil {
		return err
	}

	scheduler := cron.NewScheduler(logger)
	jobs := []cron.Job{
		&cron.PendingSweepJob{Pending: b, MaxAge: cfg.PendingTTL, Logger: logger},
		&cron.StorePingJob{Store: st, Logger: logger, OnFailure: m.StoreErrors.Inc},
	}
	for _, j := range jobs {
		if err := scheduler.RegisterJob(j); err != nil {
			return fmt.Errorf("register job %s: %w", j.Name(), err)
		}
	}
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	gw := gateway.New(cfg.Port, st, b.PendingCount, m, logger)
	if err := gw.Start(); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}

	logger.Info("cinegate is running", "port", cfg.Port)
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stop intake first, then drain what is already in flight.
	b.Stop()
	if err := gw.Stop(shutdownCtx); err != nil {
		logger.Error("gateway shutdown failed", "error", err)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", "error", err)
	}
	if err := reaper.Stop(shutdownCtx); err != nil {
		logger.Error("reaper shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// redactDSN strips credentials from a database URL for log output. Plain
// file paths come back unchanged.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}
	return u.Redacted()
}
