package items

import (
	"context"
	"log/slog"
	"sync"

	"github.com/thriftstock/thriftstock/internal/backend"
)

// Getter fetches one item.
type Getter interface {
	GetItem(ctx context.Context, id int64) (backend.Item, error)
}

// DetailState is what a detail view renders. Item is nil until loaded.
type DetailState struct {
	ID      int64
	Item    *backend.Item
	Loading bool
	Err     error
}

func (s DetailState) Error() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Detail keeps one item loaded by id.
type Detail struct {
	getter  Getter
	tracker *tracker[*backend.Item]

	mu sync.Mutex
	id int64
}

func NewDetail(getter Getter, logger *slog.Logger) *Detail {
	return &Detail{
		getter:  getter,
		tracker: newTracker[*backend.Item](logger, nil),
	}
}

// SetID fetches when id is non-zero and differs from the current one.
func (d *Detail) SetID(ctx context.Context, id int64) bool {
	if id == 0 {
		return false
	}
	d.mu.Lock()
	if id == d.id {
		d.mu.Unlock()
		return false
	}
	d.id = id
	d.mu.Unlock()

	d.issue(ctx, id, true)
	return true
}

// Refetch reloads the current id. It does nothing before SetID.
func (d *Detail) Refetch(ctx context.Context) {
	d.mu.Lock()
	id := d.id
	d.mu.Unlock()
	if id == 0 {
		return
	}
	d.issue(ctx, id, false)
}

func (d *Detail) issue(ctx context.Context, id int64, reset bool) {
	d.tracker.start(ctx, reset, func(ctx context.Context) (*backend.Item, error) {
		item, err := d.getter.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		return &item, nil
	})
}

func (d *Detail) State() DetailState {
	item, loading, err := d.tracker.snapshot()
	d.mu.Lock()
	id := d.id
	d.mu.Unlock()
	return DetailState{ID: id, Item: item, Loading: loading, Err: err}
}

// Wait blocks until the latest fetch settles.
func (d *Detail) Wait(ctx context.Context) (DetailState, error) {
	if err := d.tracker.wait(ctx); err != nil {
		return d.State(), err
	}
	return d.State(), nil
}

func (d *Detail) Close() {
	d.tracker.stop()
}
