// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/auth"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/config"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/handler/api"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/logging"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/metrics"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/middleware"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/moderation"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/ratelimit"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/scheduler"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/service"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/session"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/store"
	"github.com/INWCOMMUNITY/INW-Community-sub006/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "nwc - Northwest Community API server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NWC_SESSION_SECRET     Session and CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NWC_DB_PATH            SQLite database path (default: ./data/nwc.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NWC_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NWC_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NWC_ADMIN_CODE         Shared admin code for the X-Admin-Code header (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NWC_ADMIN_EMAIL        Administrator account email (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NWC_REDIS_URL          Redis URL for shared rate-limit windows (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NWC_MODERATION_TERMS   JSON file with extra moderation terms (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Printf("nwc %s\n", info)
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	sessionManager := session.New(db, cfg.IsDevelopment())
	identities := session.NewIdentities(sessionManager, db)

	resolver := auth.NewAdminResolver(cfg.AdminCode, cfg.AdminEmail, identities)
	if !resolver.Enabled() {
		slog.Warn("no admin credential configured, admin routes will reject every request")
	}

	rateStore, err := newRateStore(cfg)
	if err != nil {
		return err
	}
	if closer, ok := rateStore.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}
	limiter := ratelimit.New(rateStore, ratelimit.Config{
		Window:      cfg.RateLimitWindow,
		MaxRequests: cfg.RateLimitMax,
	})
	throttle := middleware.NewGlobalRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst)
	lockout := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	terms := moderation.DefaultTerms()
	if cfg.ModerationTerms != "" {
		extra, err := moderation.LoadTerms(cfg.ModerationTerms)
		if err != nil {
			return fmt.Errorf("loading moderation terms: %w", err)
		}
		terms = terms.Merge(extra)
		slog.Info("moderation terms loaded", "path", cfg.ModerationTerms)
	}

	m := metrics.New()
	events := service.NewEventService(db)
	recorder := moderation.NewRecorder(store.New(db), m, cfg.FlagTimeout)
	screener := moderation.NewScreener(moderation.NewDetector(terms), recorder)
	reviewer := moderation.NewReviewer(db, events)

	sched := scheduler.New(logger)
	if err := sched.RegisterMaintenance(scheduler.Maintenance{
		Limiters:       []*ratelimit.Limiter{limiter},
		PruneThrottle:  throttle.Prune,
		PruneLockouts:  lockout.Prune,
		Events:         events,
		EventRetention: cfg.EventRetention(),
	}); err != nil {
		return fmt.Errorf("registering maintenance jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	h := api.NewHandler(api.Deps{
		DB:            db,
		Sessions:      sessionManager,
		Identities:    identities,
		Resolver:      resolver,
		Limiter:       limiter,
		Throttle:      throttle,
		Lockout:       lockout,
		Recorder:      recorder,
		Screener:      screener,
		Reviewer:      reviewer,
		Events:        events,
		Metrics:       m,
		Version:       info,
		IsDevelopment: cfg.IsDevelopment(),
		CSRFKey:       []byte(cfg.SessionSecret),
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           api.NewRouter(h),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second, // Mitigates slowloris
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Drain background flag writes before the database closes.
	recorder.Wait()

	slog.Info("server stopped")
	return nil
}

// newRateStore picks the shared Redis store when configured, else memory.
func newRateStore(cfg *config.Config) (ratelimit.Store, error) {
	if !cfg.UseRedis() {
		slog.Info("rate limiter using in-memory windows")
		return ratelimit.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rs, err := ratelimit.NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.RedisPrefix)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	slog.Info("rate limiter using redis", "prefix", cfg.RedisPrefix)
	return rs, nil
}
