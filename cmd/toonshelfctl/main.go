package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cesargomez89/toonshelf/internal/app"
	"github.com/cesargomez89/toonshelf/internal/catalog"
	"github.com/cesargomez89/toonshelf/internal/config"
	"github.com/cesargomez89/toonshelf/internal/constants"
	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/httpclient"
	"github.com/cesargomez89/toonshelf/internal/imagecache"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/store"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "toonshelfctl",
		Short:        "Maintenance commands for the local toonshelf catalog",
		SilenceUsage: true,
	}
	root.AddCommand(newStatusCmd(), newSyncCmd(), newResetCmd(), newStatsCmd())
	return root
}

// env is what every command opens: validated config, logger and a schema-ready DB.
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *store.DB
}

func openEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Output: cmd.ErrOrStderr(),
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) remote() *catalog.CachedClient {
	apiClient := httpclient.NewClient(nil, constants.DefaultHTTPTimeout, constants.DefaultRequestInterval).
		WithRetry(constants.DefaultRetryCount, constants.DefaultRetryBase)
	return catalog.NewCachedClient(catalog.NewHTTPClient(e.cfg.CatalogURL, apiClient, e.log), e.db, e.cfg.FetchCacheTTL)
}

func (e *env) engine(remote catalog.Client) *syncer.Engine {
	return syncer.NewEngine(e.db, remote, syncer.Policy{MaxAge: e.cfg.SyncMaxAge}, e.log)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog version and sync bookkeeping",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.db.Close()

			meta, err := e.db.LoadAppMeta(ctx)
			if err != nil {
				return err
			}
			count, err := e.db.CountManhwas(ctx)
			if err != nil {
				return err
			}

			lastSync := "never"
			if meta.Synced() {
				lastSync = meta.LastSyncAt.Format(time.RFC3339)
			}
			due := syncer.ShouldSync(meta, time.Now(), syncer.Policy{MaxAge: e.cfg.SyncMaxAge})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schema version:   %d\n", meta.SchemaVersion)
			fmt.Fprintf(out, "catalog version:  %d\n", meta.CatalogVersion)
			fmt.Fprintf(out, "expected version: %d\n", meta.ExpectedVersion)
			fmt.Fprintf(out, "last sync:        %s\n", lastSync)
			fmt.Fprintf(out, "sync due:         %t\n", due)
			fmt.Fprintf(out, "manhwas:          %d\n", count)
			fmt.Fprintf(out, "first run done:   %t\n", meta.FirstRunDone)
			fmt.Fprintf(out, "safe mode:        %t\n", meta.SafeModeEnabled)
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the remote catalog if it changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), constants.SyncJobTimeout)
			defer cancel()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.db.Close()

			engine := e.engine(e.remote())
			var report *syncer.Report
			if force {
				report, err = engine.Run(ctx)
			} else {
				report, err = engine.Sync(ctx)
			}
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Pull every table even when the version is unchanged")
	return cmd
}

func newResetCmd() *cobra.Command {
	var includePrivate bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop the local catalog and pull it again",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), constants.SyncJobTimeout)
			defer cancel()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.db.Close()

			imageClient := httpclient.NewClient(nil, constants.ImageHTTPTimeout, 0)
			images := imagecache.NewManager(e.cfg.CacheDir, e.cfg.CacheMaxBytes(), imageClient, e.log)
			if err := images.InitDirectory(); err != nil {
				return err
			}
			if err := images.Init(ctx, e.db); err != nil {
				return err
			}

			remote := e.remote()
			report, err := app.NewResetService(e.db, e.engine(remote), images, remote, e.log).ResetApp(ctx, includePrivate)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&includePrivate, "include-private", false, "Also wipe reading history, statuses, texts and cached images")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show reading statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.db.Close()

			stats, err := app.NewReadingService(e.db, e.log).Stats(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chapters read:   %d\n", stats.ChaptersRead)
			fmt.Fprintf(out, "images viewed:   %d\n", stats.ImagesViewed)
			fmt.Fprintf(out, "manhwas started: %d\n", stats.ManhwasStarted)
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, report *syncer.Report) {
	out := cmd.OutOrStdout()
	if report.UpToDate {
		fmt.Fprintf(out, "catalog up to date (version %d)\n", report.Version)
		return
	}
	fmt.Fprintf(out, "synced version %d: %d pages in %s\n", report.Version, report.Pages, report.Duration.Round(time.Millisecond))
	for _, kind := range domain.SyncOrder {
		fmt.Fprintf(out, "  %-17s %d\n", kind, report.Rows[kind])
	}
}
