package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/workfree/search-briefing/internal/briefing"
	"github.com/workfree/search-briefing/internal/config"
	"github.com/workfree/search-briefing/internal/db"
	"github.com/workfree/search-briefing/internal/manager"
	"github.com/workfree/search-briefing/internal/notify"
	"github.com/workfree/search-briefing/internal/report"
	"github.com/workfree/search-briefing/internal/repo"
	"github.com/workfree/search-briefing/internal/search"
	"github.com/workfree/search-briefing/internal/trigger"
)

func main() {
	cfg := config.Load()

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	log := slog.New(handler)
	slog.SetDefault(log)

	if cfg.Env == "prod" && cfg.APIToken == "dev-token" {
		log.Error("API_TOKEN must be set in prod")
		os.Exit(1)
	}
	if cfg.AuthAllowAnonymous {
		log.Warn("AUTH_ALLOW_ANONYMOUS is enabled; unauthenticated requests are accepted")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("invalid BRIEFING_TZ", "tz", cfg.Timezone, "err", err)
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	log.Info("database ready", "host", cfg.DBHost, "name", cfg.DBName)

	registry := search.NewRegistry(
		&search.DemoProvider{},
		search.NewGoogleProvider(cfg.ProviderTimeout),
		search.NewNaverProvider(cfg.ProviderTimeout),
	)

	notifier := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		Timeout:  cfg.NotifyTimeout,
	})
	if !notifier.Configured() {
		log.Warn("SMTP credentials not set; briefing sends will fail until configured")
	}

	runner := &briefing.Runner{
		Registry:     registry,
		Builder:      report.New(cfg.ReportFormat),
		Notifier:     notifier,
		QueryTimeout: cfg.ProviderTimeout,
		Log:          log,
	}

	// Job timeout covers the whole firing: every provider call plus the send.
	jobTimeout := 2*cfg.ProviderTimeout + cfg.NotifyTimeout
	engine := trigger.NewEngine(loc, jobTimeout, log)

	scheduleRepo := repo.NewScheduleRepo(database)
	mgr := manager.New(scheduleRepo, engine, runner.Job, registry.Names(), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store is the source of truth: rebuild the engine's job table before
	// the first tick can fire.
	if err := mgr.Rehydrate(ctx); err != nil {
		log.Error("rehydrate failed", "err", err)
		os.Exit(1)
	}
	engine.Start(ctx, cfg.Workers)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, mgr, runner, notifier),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.Port, "tls", cfg.TLSCertFile != "")
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
	}
	engine.Stop()
	log.Info("bye")
}
