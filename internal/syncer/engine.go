// Package syncer mirrors the remote catalog into the local store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cesargomez89/toonshelf/internal/catalog"
	"github.com/cesargomez89/toonshelf/internal/domain"
	"github.com/cesargomez89/toonshelf/internal/logger"
)

var ErrSyncInProgress = errors.New("sync already in progress")

// KindVersion tags SyncErrors raised while checking or committing the
// catalog version rather than while syncing a table.
const KindVersion domain.EntityKind = "version"

type State string

const (
	StateIdle            State = "idle"
	StateCheckingVersion State = "checking_version"
	StateUpToDate        State = "up_to_date"
	StateSyncing         State = "syncing"
	StateFailed          State = "failed"
)

// Store is the subset of the local store the engine writes through.
type Store interface {
	LoadAppMeta(ctx context.Context) (*domain.AppMeta, error)
	UpsertBatch(ctx context.Context, batch *domain.Batch) (int, error)
	RaiseExpectedVersion(ctx context.Context, version int64) error
	CommitSyncVersion(ctx context.Context, version int64, at time.Time) error
	AckCacheEpoch(ctx context.Context, epoch int64) error
}

type Policy struct {
	// MaxAge forces a sync once the last one is this old.
	MaxAge time.Duration
}

// Report summarizes one sync cycle.
type Report struct {
	Version  int64                     `json:"version"`
	Rows     map[domain.EntityKind]int `json:"rows"`
	Pages    int                       `json:"pages"`
	UpToDate bool                      `json:"up_to_date"`
	Duration time.Duration             `json:"duration"`
}

type Engine struct {
	store  Store
	client catalog.Client
	policy Policy
	logger *logger.Logger
	now    func() time.Time

	// runSem holds one token while a cycle or reset runs.
	runSem chan struct{}

	mu       sync.RWMutex
	state    State
	lastErr  error
	observer func(from, to State)
}

func NewEngine(store Store, client catalog.Client, policy Policy, log *logger.Logger) *Engine {
	return &Engine{
		store:  store,
		client: client,
		policy: policy,
		logger: log.WithComponent("syncer"),
		now:    time.Now,
		state:  StateIdle,
		runSem: make(chan struct{}, 1),
	}
}

func (e *Engine) tryAcquire() bool {
	select {
	case e.runSem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (e *Engine) acquire(ctx context.Context) error {
	select {
	case e.runSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() { <-e.runSem }

// State returns the current position in the sync cycle.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// LastError returns the error of the most recent failed cycle, nil after a
// successful one.
func (e *Engine) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// OnTransition registers fn to be called on every state change. It runs
// on the syncing goroutine and must not call back into the engine.
func (e *Engine) OnTransition(fn func(from, to State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = fn
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	from := e.state
	e.state = s
	observer := e.observer
	e.mu.Unlock()

	if observer != nil && from != s {
		observer(from, s)
	}
}

// ShouldSync reports whether the local mirror needs a sync: it never
// completed one, a newer remote version is pending, or the last one is
// older than the policy allows.
func ShouldSync(meta *domain.AppMeta, now time.Time, policy Policy) bool {
	if !meta.Synced() {
		return true
	}
	if meta.ExpectedVersion > meta.CatalogVersion {
		return true
	}
	if policy.MaxAge > 0 && now.Sub(meta.LastSyncAt.Time) >= policy.MaxAge {
		return true
	}
	return false
}

// Due loads the stored meta and applies ShouldSync.
func (e *Engine) Due(ctx context.Context) (bool, error) {
	meta, err := e.store.LoadAppMeta(ctx)
	if err != nil {
		return false, err
	}
	return ShouldSync(meta, e.now(), e.policy), nil
}

// CheckVersion fetches the remote version, records it as pending when it is
// ahead of the local mirror and reports whether a sync is due.
func (e *Engine) CheckVersion(ctx context.Context) (int64, bool, error) {
	info, err := e.client.FetchVersion(ctx)
	if err != nil {
		return 0, false, &domain.SyncError{Kind: KindVersion, Err: err}
	}
	if err := e.store.RaiseExpectedVersion(ctx, info.Version); err != nil {
		return 0, false, &domain.SyncError{Kind: KindVersion, Err: err}
	}
	due, err := e.Due(ctx)
	if err != nil {
		return 0, false, err
	}
	return info.Version, due, nil
}

// Sync runs a full cycle: check the version, then pull every table if the
// mirror is stale. It returns ErrSyncInProgress while another cycle runs.
func (e *Engine) Sync(ctx context.Context) (*Report, error) {
	if !e.tryAcquire() {
		return nil, ErrSyncInProgress
	}
	defer e.release()

	e.setState(StateCheckingVersion)
	version, due, err := e.CheckVersion(ctx)
	if err != nil {
		e.fail(err)
		return nil, err
	}
	if !due {
		e.setState(StateUpToDate)
		e.finish(nil)
		e.logger.Debug("Catalog up to date", "version", version)
		return &Report{Version: version, UpToDate: true}, nil
	}

	return e.run(ctx)
}

// Run pulls every table regardless of staleness.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if !e.tryAcquire() {
		return nil, ErrSyncInProgress
	}
	defer e.release()
	return e.run(ctx)
}

// Reset waits for any running cycle to finish, calls prepare and then pulls
// every table. No cycle can start between prepare and the pull. A prepare
// error aborts before anything is fetched.
func (e *Engine) Reset(ctx context.Context, prepare func(ctx context.Context) error) (*Report, error) {
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	defer e.release()

	if err := prepare(ctx); err != nil {
		return nil, err
	}
	return e.run(ctx)
}

func (e *Engine) run(ctx context.Context) (*Report, error) {
	e.setState(StateSyncing)
	start := e.now()

	info, err := e.client.FetchVersion(ctx)
	if err != nil {
		err = &domain.SyncError{Kind: KindVersion, Err: err}
		e.fail(err)
		return nil, err
	}
	meta, err := e.store.LoadAppMeta(ctx)
	if err != nil {
		e.fail(err)
		return nil, err
	}
	if info.Version < meta.ExpectedVersion {
		err = &domain.SyncError{
			Kind: KindVersion,
			Err:  fmt.Errorf("remote serves v%d, expected at least v%d", info.Version, meta.ExpectedVersion),
		}
		e.fail(err)
		return nil, err
	}

	report := &Report{Version: info.Version, Rows: make(map[domain.EntityKind]int)}
	e.logger.Info("Sync started", "version", info.Version, "local_version", meta.CatalogVersion)

	for _, kind := range domain.SyncOrder {
		rows, pages, err := e.syncKind(ctx, kind)
		report.Pages += pages
		report.Rows[kind] = rows
		if err != nil {
			err = &domain.SyncError{Kind: kind, Err: err}
			e.fail(err)
			return report, err
		}
	}

	if err := e.store.CommitSyncVersion(ctx, info.Version, e.now()); err != nil {
		err = &domain.SyncError{Kind: KindVersion, Err: err}
		e.fail(err)
		return report, err
	}

	report.Duration = e.now().Sub(start)
	e.finish(nil)
	e.logger.Info("Sync finished", "version", info.Version, "pages", report.Pages, "duration", report.Duration)
	return report, nil
}

// syncKind pages through one table. Each page is fetched in full before its
// write transaction opens. An empty page ends the kind even if the remote
// hands back a cursor.
func (e *Engine) syncKind(ctx context.Context, kind domain.EntityKind) (int, int, error) {
	log := e.logger.WithKind(string(kind))
	var rows, pages int
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return rows, pages, err
		}

		page, err := e.client.FetchEntities(ctx, kind, cursor)
		if err != nil {
			return rows, pages, fmt.Errorf("fetch page %d: %w", pages, err)
		}
		if page.Kind == "" {
			page.Kind = kind
		}
		if page.Kind != kind {
			return rows, pages, fmt.Errorf("remote returned %s rows for %s", page.Kind, kind)
		}
		if page.Len() == 0 {
			break
		}
		pages++

		n, err := e.store.UpsertBatch(ctx, &page.Batch)
		if err != nil {
			return rows, pages, fmt.Errorf("store page %d: %w", pages, err)
		}
		rows += n

		if page.NextCursor == "" {
			break
		}
		if page.NextCursor == cursor {
			return rows, pages, fmt.Errorf("remote repeated cursor %q", cursor)
		}
		cursor = page.NextCursor
	}
	log.Info("Synced entity kind", "rows", rows, "pages", pages)
	return rows, pages, nil
}

func (e *Engine) fail(err error) {
	e.setState(StateFailed)
	e.logger.Error("Sync failed", "error", err)
	e.finish(err)
}

func (e *Engine) finish(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	e.setState(StateIdle)
}

// ShouldClearCache reports whether cached images must be purged and the
// epoch to acknowledge afterwards. A pending purge from a schema upgrade is
// honoured even when the remote is unreachable.
func (e *Engine) ShouldClearCache(ctx context.Context) (bool, int64, error) {
	meta, err := e.store.LoadAppMeta(ctx)
	if err != nil {
		return false, 0, err
	}

	info, err := e.client.FetchVersion(ctx)
	if err != nil {
		if meta.CacheInvalidated {
			return true, meta.CacheEpoch, nil
		}
		return false, 0, err
	}

	if info.CacheEpoch > meta.CacheEpoch {
		return true, info.CacheEpoch, nil
	}
	return meta.CacheInvalidated, meta.CacheEpoch, nil
}

// AckCacheEpoch records that the purge for epoch happened.
func (e *Engine) AckCacheEpoch(ctx context.Context, epoch int64) error {
	return e.store.AckCacheEpoch(ctx, epoch)
}
