package cartsession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro/internal/domain/order"
)

type nopStore struct{}

func (nopStore) Submit(_ context.Context, _ *order.Order) (string, error) {
	return "ord_1", nil
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry(nopStore{}, time.Minute)

	s := r.Create()
	require.NotEmpty(t, s.ID)
	require.NotNil(t, s.Cart)
	require.NotNil(t, s.Checkout)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Delete(t *testing.T) {
	r := NewRegistry(nopStore{}, time.Minute)
	s := r.Create()

	r.Delete(s.ID)
	_, ok := r.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	r := NewRegistry(nopStore{}, 10*time.Millisecond)
	stale := r.Create()
	fresh := r.Create()

	time.Sleep(15 * time.Millisecond)
	// Touch fresh so only stale crosses the ttl.
	_, ok := r.Get(fresh.ID)
	require.True(t, ok)

	r.evict(time.Now())

	_, ok = r.Get(stale.ID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID)
	assert.True(t, ok)
}
