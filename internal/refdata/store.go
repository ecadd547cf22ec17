// Package refdata holds the lookup collections shared by every console view.
package refdata

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/thriftstock/thriftstock/internal/backend"
)

const defaultLoadTimeout = 30 * time.Second

// Source lists the nine reference collections.
type Source interface {
	ListDepartments(ctx context.Context) ([]backend.Department, error)
	ListCategories(ctx context.Context, departmentID *int64) ([]backend.Category, error)
	ListItemTypes(ctx context.Context, categoryID *int64) ([]backend.ItemType, error)
	ListSizes(ctx context.Context) ([]backend.Size, error)
	ListColors(ctx context.Context) ([]backend.Color, error)
	ListTags(ctx context.Context) ([]backend.Tag, error)
	ListConditions(ctx context.Context) ([]backend.Condition, error)
	ListStatuses(ctx context.Context) ([]backend.Status, error)
	ListLocations(ctx context.Context) ([]backend.Location, error)
}

// Publisher tells other processes that reference data changed.
type Publisher interface {
	Publish(ctx context.Context) error
}

// LoadObserver records load outcomes.
type LoadObserver interface {
	ObserveRefdataLoad(outcome string, elapsed time.Duration)
}

// Store serves lookups from the last complete snapshot and reloads all
// collections together.
type Store struct {
	source      Source
	logger      *slog.Logger
	observer    LoadObserver
	publisher   Publisher
	loadTimeout time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	snap    *Snapshot
	loaded  bool
	loading int
	stale   bool
	err     error
	// gen counts invalidations. A load only clears stale when no
	// invalidation happened while it ran; committed is the gen of the
	// installed snapshot so an older load never replaces a newer one.
	gen       uint64
	committed uint64
}

// Option customises a Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(o LoadObserver) Option {
	return func(s *Store) { s.observer = o }
}

// WithPublisher broadcasts Changed calls to other processes.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithLoadTimeout bounds one full load.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// NewStore builds an empty store. Nothing is fetched until Load or Ensure.
func NewStore(source Source, opts ...Option) *Store {
	s := &Store{
		source:      source,
		logger:      slog.Default(),
		loadTimeout: defaultLoadTimeout,
		snap:        emptySnapshot(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches every collection. It is Refetch under another name.
func (s *Store) Load(ctx context.Context) error {
	return s.Refetch(ctx)
}

// Refetch re-runs the parallel load. Concurrent callers share one load; a
// caller whose context ends stops waiting without cancelling the others.
func (s *Store) Refetch(ctx context.Context) error {
	ch := s.group.DoChan("load", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return nil, s.load(loadCtx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// Ensure loads when nothing is loaded yet, the last load failed, or the data
// was invalidated.
func (s *Store) Ensure(ctx context.Context) error {
	s.mu.RLock()
	fresh := s.loaded && !s.stale && s.err == nil
	s.mu.RUnlock()
	if fresh {
		return nil
	}
	return s.Refetch(ctx)
}

// Invalidate marks the data stale so the next Ensure reloads. A load already
// in flight is detached so later callers start a fresh one.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.gen++
	s.mu.Unlock()
	s.group.Forget("load")
}

// Changed invalidates locally and notifies other processes.
func (s *Store) Changed(ctx context.Context) error {
	s.Invalidate()
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx); err != nil {
		s.logger.Warn("refdata bump publish failed", slog.Any("error", err))
		return err
	}
	return nil
}

func (s *Store) load(ctx context.Context) error {
	s.mu.Lock()
	s.loading++
	startGen := s.gen
	s.mu.Unlock()

	start := time.Now()
	next := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	fetch(g, gctx, "departments", &next.Departments, s.source.ListDepartments)
	fetch(g, gctx, "categories", &next.Categories, func(ctx context.Context) ([]backend.Category, error) {
		return s.source.ListCategories(ctx, nil)
	})
	fetch(g, gctx, "item types", &next.ItemTypes, func(ctx context.Context) ([]backend.ItemType, error) {
		return s.source.ListItemTypes(ctx, nil)
	})
	fetch(g, gctx, "sizes", &next.Sizes, s.source.ListSizes)
	fetch(g, gctx, "colors", &next.Colors, s.source.ListColors)
	fetch(g, gctx, "tags", &next.Tags, s.source.ListTags)
	fetch(g, gctx, "conditions", &next.Conditions, s.source.ListConditions)
	fetch(g, gctx, "statuses", &next.Statuses, s.source.ListStatuses)
	fetch(g, gctx, "locations", &next.Locations, s.source.ListLocations)
	err := g.Wait()
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if s.loaded && startGen < s.committed {
		s.logger.Debug("refdata load superseded", slog.Duration("elapsed", elapsed))
		return err
	}
	if err != nil {
		s.err = err
		s.observe("error", elapsed)
		s.logger.Error("refdata load failed", slog.Any("error", err), slog.Duration("elapsed", elapsed))
		return err
	}

	next.normalise()
	next.index()
	next.LoadedAt = time.Now()
	s.snap = next
	s.loaded = true
	s.committed = startGen
	s.stale = s.gen != startGen
	s.err = nil
	s.observe("ok", elapsed)
	s.logger.Info("refdata loaded",
		slog.Int("departments", len(next.Departments)),
		slog.Int("categories", len(next.Categories)),
		slog.Int("item_types", len(next.ItemTypes)),
		slog.Duration("elapsed", elapsed))
	return nil
}

// fetch runs one list call in the group. Each call writes only its own field.
func fetch[T any](g *errgroup.Group, ctx context.Context, name string, dst *[]T, list func(context.Context) ([]T, error)) {
	g.Go(func() error {
		rows, err := list(ctx)
		if err != nil {
			return fmt.Errorf("refdata: load %s: %w", name, err)
		}
		*dst = rows
		return nil
	})
}

func (s *Store) observe(outcome string, elapsed time.Duration) {
	if s.observer != nil {
		s.observer.ObserveRefdataLoad(outcome, elapsed)
	}
}

// Snapshot returns the last complete snapshot, or an empty one before the
// first successful load. Callers must not modify it.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Ready reports whether a load has succeeded and none has failed since.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && s.err == nil
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Err is the last load failure, cleared by a successful load.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) DepartmentName(id int64) string { return s.Snapshot().DepartmentName(id) }
func (s *Store) CategoryName(id int64) string   { return s.Snapshot().CategoryName(id) }
func (s *Store) ItemTypeName(id int64) string   { return s.Snapshot().ItemTypeName(id) }
func (s *Store) SizeName(id int64) string       { return s.Snapshot().SizeName(id) }
func (s *Store) SizeSystem(id int64) string     { return s.Snapshot().SizeSystem(id) }
func (s *Store) ColorName(id int64) string      { return s.Snapshot().ColorName(id) }
func (s *Store) ConditionName(id int64) string  { return s.Snapshot().ConditionName(id) }
func (s *Store) StatusName(id int64) string     { return s.Snapshot().StatusName(id) }
func (s *Store) LocationName(id int64) string   { return s.Snapshot().LocationName(id) }
func (s *Store) TagName(id int64) string        { return s.Snapshot().TagName(id) }

func (s *Store) CategoriesByDepartment(departmentID int64) []backend.Category {
	return s.Snapshot().CategoriesByDepartment(departmentID)
}

func (s *Store) ItemTypesByCategory(categoryID int64) []backend.ItemType {
	return s.Snapshot().ItemTypesByCategory(categoryID)
}
