// Package bootstrap runs the startup sequence and decides the first screen.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cesargomez89/toonshelf/internal/constants"
	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/imagecache"
	"github.com/cesargomez89/toonshelf/internal/logger"
	"github.com/cesargomez89/toonshelf/internal/syncer"
)

type Route string

const (
	RouteSafeMode        Route = "safe_mode"
	RouteDegradedOffline Route = "degraded_offline"
	RouteReady           Route = "ready"
)

// Notice codes surfaced to the UI.
const (
	NoticeSchema     = "schema_error"
	NoticeOffline    = "offline"
	NoticeSync       = "sync_failed"
	NoticeTexts      = "texts_unavailable"
	NoticeImageCache = "image_cache"
	NoticeMeta       = "meta_unavailable"
	NoticeInternal   = "internal_error"
)

type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Outcome struct {
	Route    Route          `json:"route"`
	Notices  []Notice       `json:"notices"`
	FirstRun bool           `json:"first_run"`
	Synced   bool           `json:"synced"`
	Report   *syncer.Report `json:"report,omitempty"`
}

type Store interface {
	imagecache.Store
	InitSchema(ctx context.Context) error
	LoadAppMeta(ctx context.Context) (*domain.AppMeta, error)
	MarkFirstRunDone(ctx context.Context) error
	SetText(ctx context.Context, key, body string) error
}

type Syncer interface {
	Sync(ctx context.Context) (*syncer.Report, error)
	ShouldClearCache(ctx context.Context) (bool, int64, error)
	AckCacheEpoch(ctx context.Context, epoch int64) error
}

type ImageCache interface {
	InitDirectory() error
	Init(ctx context.Context, store imagecache.Store) error
	ClearCache(ctx context.Context) error
}

type Connectivity interface {
	HasInternetAvailable(ctx context.Context) bool
}

type TextSource interface {
	FetchText(ctx context.Context, key string) (string, error)
}

type Sequencer struct {
	store  Store
	engine Syncer
	images ImageCache
	net    Connectivity
	texts  TextSource
	logger *logger.Logger
}

func NewSequencer(store Store, engine Syncer, images ImageCache, net Connectivity, texts TextSource, log *logger.Logger) *Sequencer {
	return &Sequencer{
		store:  store,
		engine: engine,
		images: images,
		net:    net,
		texts:  texts,
		logger: log.WithComponent("bootstrap"),
	}
}

// run state shared by the concurrent startup tasks
type state struct {
	mu       sync.Mutex
	notices  []Notice
	meta     *domain.AppMeta
	online   bool
	firstRun bool
}

func (s *state) notice(code, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Run performs startup and always returns an outcome; failures become
// notices.
func (s *Sequencer) Run(ctx context.Context) (out Outcome) {
	st := &state{}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Bootstrap panicked", "panic", r)
			st.notice(NoticeInternal, "startup failed: %v", r)
			out = Outcome{Route: RouteDegradedOffline, Notices: st.notices}
		}
	}()

	if err := s.store.InitSchema(ctx); err != nil {
		s.logger.Error("Schema init failed", "error", err)
		st.notice(NoticeSchema, "local database unavailable: %v", err)
		return Outcome{Route: RouteDegradedOffline, Notices: st.notices}
	}

	var g errgroup.Group
	g.Go(s.task(st, "meta", func() error {
		meta, err := s.store.LoadAppMeta(ctx)
		if err != nil {
			st.notice(NoticeMeta, "could not read settings: %v", err)
			return nil
		}
		st.mu.Lock()
		st.meta = meta
		st.firstRun = !meta.FirstRunDone
		st.mu.Unlock()
		return nil
	}))
	g.Go(s.task(st, "connectivity", func() error {
		online := s.net.HasInternetAvailable(ctx)
		st.mu.Lock()
		st.online = online
		st.mu.Unlock()
		return nil
	}))
	g.Go(s.task(st, "images", func() error {
		s.initImages(ctx, st)
		return nil
	}))
	g.Go(s.task(st, "first_run", func() error {
		s.firstRun(ctx, st)
		return nil
	}))
	_ = g.Wait()

	out = Outcome{FirstRun: st.firstRun}
	switch {
	case st.meta == nil:
		// Fail closed: the safe mode flag could not be checked.
		out.Route = RouteSafeMode
	case st.meta.SafeModeEnabled:
		out.Route = RouteSafeMode
	case !st.online:
		st.notice(NoticeOffline, "no internet connection, showing the local catalog")
		out.Route = RouteDegradedOffline
	default:
		report, err := s.engine.Sync(ctx)
		switch {
		case err == nil:
			out.Report = report
			out.Synced = !report.UpToDate
		case errors.Is(err, syncer.ErrSyncInProgress):
			s.logger.Info("Sync already running, skipping")
		default:
			st.notice(NoticeSync, "catalog update failed: %v", err)
		}
		out.Route = RouteReady
	}
	out.Notices = st.notices

	s.logger.Info("Bootstrap finished", "route", out.Route, "notices", len(out.Notices), "first_run", out.FirstRun, "synced", out.Synced)
	return out
}

// task wraps fn so a panic becomes a notice instead of killing startup.
func (s *Sequencer) task(st *state, name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Bootstrap task panicked", "task", name, "panic", r)
				st.notice(NoticeInternal, "%s failed: %v", name, r)
				err = nil
			}
		}()
		return fn()
	}
}

// initImages prepares the cache directory and accounting, then purges the
// cache when the remote or a migration asks for it.
func (s *Sequencer) initImages(ctx context.Context, st *state) {
	if err := s.images.InitDirectory(); err != nil {
		st.notice(NoticeImageCache, "image cache directory unavailable: %v", err)
		return
	}
	if err := s.images.Init(ctx, s.store); err != nil {
		st.notice(NoticeImageCache, "image cache could not load: %v", err)
		return
	}

	purge, epoch, err := s.engine.ShouldClearCache(ctx)
	if err != nil {
		s.logger.Debug("Cache epoch check skipped", "error", err)
		return
	}
	if !purge {
		return
	}
	if err := s.images.ClearCache(ctx); err != nil {
		st.notice(NoticeImageCache, "image cache purge failed: %v", err)
		return
	}
	if err := s.engine.AckCacheEpoch(ctx, epoch); err != nil {
		st.notice(NoticeImageCache, "image cache purge not recorded: %v", err)
		return
	}
	s.logger.Info("Image cache purged", "epoch", epoch)
}

// firstRun fetches the legal texts on the first start. The flag is only set
// once they are stored, so an offline first start retries next time.
func (s *Sequencer) firstRun(ctx context.Context, st *state) {
	meta, err := s.store.LoadAppMeta(ctx)
	if err != nil || meta.FirstRunDone {
		return
	}

	for _, key := range []string{constants.TextKeyEULA, constants.TextKeyDisclaimer} {
		body, err := s.texts.FetchText(ctx, key)
		if err != nil {
			st.notice(NoticeTexts, "could not download %s: %v", key, err)
			return
		}
		if err := s.store.SetText(ctx, key, body); err != nil {
			st.notice(NoticeTexts, "could not store %s: %v", key, err)
			return
		}
	}
	if err := s.store.MarkFirstRunDone(ctx); err != nil {
		st.notice(NoticeMeta, "could not record first run: %v", err)
	}
}
