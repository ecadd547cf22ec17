// Package items loads item lists and single items for the console views.
package items

import (
	"context"
	"log/slog"
	"sync"

	"github.com/thriftstock/thriftstock/internal/backend"
)

// Lister fetches one page of items.
type Lister interface {
	ListItems(ctx context.Context, filters backend.ItemFilters) (backend.ItemList, error)
}

// ListState is what a list view renders.
type ListState struct {
	Items      []backend.Item
	Total      int
	TotalPages int
	Page       int
	PageSize   int
	Loading    bool
	Err        error
	Filters    backend.ItemFilters
}

// Error returns the last error message, or "".
func (s ListState) Error() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Query keeps the item list in sync with a filter record.
type Query struct {
	lister  Lister
	tracker *tracker[backend.ItemList]

	mu      sync.Mutex
	filters backend.ItemFilters
	key     string
	started bool
}

// NewQuery builds an idle query. Nothing is fetched until SetFilters.
func NewQuery(lister Lister, logger *slog.Logger) *Query {
	return &Query{
		lister:  lister,
		tracker: newTracker(logger, backend.ItemList{Items: []backend.Item{}}),
	}
}

// SetFilters fetches when the serialised filters differ from the last ones.
// It reports whether a fetch was issued.
func (q *Query) SetFilters(ctx context.Context, filters backend.ItemFilters) bool {
	key := filters.Key()
	q.mu.Lock()
	if q.started && key == q.key {
		q.mu.Unlock()
		return false
	}
	q.filters = filters
	q.key = key
	q.started = true
	q.mu.Unlock()

	q.issue(ctx, filters)
	return true
}

// Refetch re-runs the current filters unconditionally.
func (q *Query) Refetch(ctx context.Context) {
	q.mu.Lock()
	filters := q.filters
	q.started = true
	q.key = filters.Key()
	q.mu.Unlock()
	q.issue(ctx, filters)
}

func (q *Query) issue(ctx context.Context, filters backend.ItemFilters) {
	q.tracker.start(ctx, false, func(ctx context.Context) (backend.ItemList, error) {
		return q.lister.ListItems(ctx, filters)
	})
}

// State returns the current list state without blocking.
func (q *Query) State() ListState {
	list, loading, err := q.tracker.snapshot()
	q.mu.Lock()
	filters := q.filters
	q.mu.Unlock()

	items := list.Items
	if items == nil {
		items = []backend.Item{}
	}
	return ListState{
		Items:      items,
		Total:      list.Total,
		TotalPages: list.TotalPages,
		Page:       list.Page,
		PageSize:   list.PageSize,
		Loading:    loading,
		Err:        err,
		Filters:    filters,
	}
}

// Wait blocks until the latest fetch settles and returns the state.
func (q *Query) Wait(ctx context.Context) (ListState, error) {
	if err := q.tracker.wait(ctx); err != nil {
		return q.State(), err
	}
	return q.State(), nil
}

// Close cancels any in-flight fetch.
func (q *Query) Close() {
	q.tracker.stop()
}
