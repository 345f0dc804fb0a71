package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/toonshelf/internal/app"
	"github.com/cesargomez89/toonshelf/internal/bootstrap"
	"github.com/cesargomez89/toonshelf/internal/catalog"
	"github.com/cesargomez89/toonshelf/internal/config"
	"github.com/cesargomez89/toonshelf/internal/connectivity"
	"github.com/cesargomez89/toonshelf/internal/constants"
	httpapp "github.com/cesargomez89/toonshelf/internal/http"
	"github.com/cesargomez89/toonshelf/internal/httpclient"
	"github.com/cesargomez89/toonshelf/internal/imagecache"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/query"
	"github.com/cesargomez89/toonshelf/internal/scheduler"
	"github.com/cesargomez89/toonshelf/internal/store"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Remote catalog: rate-limited client, text responses cached in SQLite
	apiClient := httpclient.NewClient(nil, constants.DefaultHTTPTimeout, constants.DefaultRequestInterval).
		WithRetry(constants.DefaultRetryCount, constants.DefaultRetryBase)
	remote := catalog.NewCachedClient(
		catalog.NewHTTPClient(cfg.CatalogURL, apiClient, appLogger),
		db,
		cfg.FetchCacheTTL,
	)

	engine := syncer.NewEngine(db, remote, syncer.Policy{MaxAge: cfg.SyncMaxAge}, appLogger)
	engine.OnTransition(func(from, to syncer.State) {
		appLogger.Debug("Sync state", "from", from, "to", to)
	})

	imageClient := httpclient.NewClient(nil, constants.ImageHTTPTimeout, 0).
		WithRetry(constants.DefaultRetryCount, constants.DefaultRetryBase)
	images := imagecache.NewManager(cfg.CacheDir, cfg.CacheMaxBytes(), imageClient, appLogger)
	var checker bootstrap.Connectivity = connectivity.Static(true)
	if cfg.ConnectivityURL != "" {
		checker = connectivity.NewChecker(cfg.ConnectivityURL, constants.ConnectivityTimeout, appLogger)
	}

	// Initialize Services
	queries := query.NewService(db)
	reading := app.NewReadingService(db, appLogger)
	safeMode := app.NewSafeModeService(db, appLogger)
	resetter := app.NewResetService(db, engine, images, remote, appLogger)

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := httpapp.NewHandler(queries, reading, safeMode, resetter, engine, appLogger)
	h.RegisterRoutes(r)
	r.Get("/images", func(w http.ResponseWriter, req *http.Request) {
		path, err := images.Fetch(req.Context(), req.URL.Query().Get("url"))
		switch {
		case errors.Is(err, imagecache.ErrInvalidURL):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.ServeFile(w, req, path)
	})

	// Start Server
	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, cfg.Port),
		Handler: r,
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Startup sequence runs while the API already answers /api/bootstrap with 503
	seq := bootstrap.NewSequencer(db, engine, images, checker, remote, appLogger)
	outcome := seq.Run(ctx)
	h.SetOutcome(outcome)
	appLogger.Info("Startup finished", "route", outcome.Route, "notices", len(outcome.Notices), "synced", outcome.Synced)

	// Periodic sync
	sched := scheduler.NewSyncScheduler(engine, cfg.SyncSchedule, constants.SyncJobTimeout, appLogger)
	if err := sched.Start(ctx); err != nil {
		appLogger.Error("Failed to start sync scheduler", "error", err)
	}
	defer sched.Stop()

	// Graceful Shutdown
	<-ctx.Done()

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exiting")
}
