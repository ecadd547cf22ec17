package items_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/items"
)

type stubGetter struct {
	calls atomic.Int32
}

func (g *stubGetter) GetItem(ctx context.Context, id int64) (backend.Item, error) {
	g.calls.Add(1)
	if id == 404 {
		return backend.Item{}, &backend.APIError{Status: 404, Message: "Item not found"}
	}
	return backend.Item{ItemID: id, Description: "Denim jacket"}, nil
}

func waitDetail(t *testing.T, d *items.Detail) items.DetailState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := d.Wait(ctx)
	require.NoError(t, err)
	return state
}

func TestDetailZeroIDIsNoop(t *testing.T) {
	g := &stubGetter{}
	d := items.NewDetail(g, nil)
	assert.False(t, d.SetID(context.Background(), 0))
	d.Refetch(context.Background())
	state := waitDetail(t, d)
	assert.Nil(t, state.Item)
	assert.Equal(t, int32(0), g.calls.Load())
}

func TestDetailSameIDDoesNotRefetch(t *testing.T) {
	g := &stubGetter{}
	d := items.NewDetail(g, nil)
	ctx := context.Background()

	assert.True(t, d.SetID(ctx, 42))
	state := waitDetail(t, d)
	require.NotNil(t, state.Item)
	assert.Equal(t, int64(42), state.Item.ItemID)

	assert.False(t, d.SetID(ctx, 42))
	assert.Equal(t, int32(1), g.calls.Load())

	d.Refetch(ctx)
	waitDetail(t, d)
	assert.Equal(t, int32(2), g.calls.Load())
}

func TestDetailErrorClearsPreviousItem(t *testing.T) {
	d := items.NewDetail(&stubGetter{}, nil)
	ctx := context.Background()

	d.SetID(ctx, 1)
	waitDetail(t, d)

	d.SetID(ctx, 404)
	state := waitDetail(t, d)
	assert.Nil(t, state.Item)
	assert.Equal(t, "Item not found", state.Error())
	assert.True(t, backend.IsNotFound(state.Err))
	assert.Equal(t, int64(404), state.ID)
}
