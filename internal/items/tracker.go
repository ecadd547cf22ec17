package items

import (
	"context"
	"log/slog"
	"sync"
)

// tracker runs fetches in the background and keeps only the result of the
// most recently issued one. Issuing a fetch cancels the previous one.
type tracker[T any] struct {
	logger *slog.Logger

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	loading bool
	err     error
	value   T
	zero    T
	settled chan struct{}
}

func newTracker[T any](logger *slog.Logger, zero T) *tracker[T] {
	if logger == nil {
		logger = slog.Default()
	}
	done := make(chan struct{})
	close(done)
	return &tracker[T]{logger: logger, value: zero, zero: zero, settled: done}
}

// start issues fetch under a new sequence number and clears the last error.
// With reset the previous value is dropped too. The fetch context is detached
// from parent's cancellation but keeps its values.
func (t *tracker[T]) start(parent context.Context, reset bool, fetch func(context.Context) (T, error)) uint64 {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	my := t.seq
	t.cancel = cancel
	t.loading = true
	t.err = nil
	if reset {
		t.value = t.zero
	}
	prev := t.settled
	t.settled = make(chan struct{})
	t.mu.Unlock()

	// Wake waiters of the superseded fetch so they re-check the latest one.
	select {
	case <-prev:
	default:
		close(prev)
	}

	go func() {
		value, err := fetch(ctx)
		t.finish(my, value, err)
		cancel()
	}()
	return my
}

func (t *tracker[T]) finish(my uint64, value T, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if my != t.seq {
		t.logger.Debug("discarding stale response", slog.Uint64("seq", my), slog.Uint64("latest", t.seq))
		return
	}
	t.loading = false
	t.cancel = nil
	if err != nil {
		t.err = err
	} else {
		t.err = nil
		t.value = value
	}
	close(t.settled)
}

// snapshot returns the current state without blocking.
func (t *tracker[T]) snapshot() (T, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.loading, t.err
}

// wait blocks until the latest issued fetch has settled.
func (t *tracker[T]) wait(ctx context.Context) error {
	for {
		t.mu.Lock()
		ch := t.settled
		loading := t.loading
		t.mu.Unlock()
		if !loading {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// stop cancels any in-flight fetch.
func (t *tracker[T]) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}
