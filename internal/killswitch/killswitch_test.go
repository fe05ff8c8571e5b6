package killswitch

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edge-engine/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type countingStore struct {
	inner *MemoryStore
	gets  int32
	err   atomic.Value
	mu    sync.Mutex
}

func (s *countingStore) GetStates(ctx context.Context) (map[string]State, error) {
	atomic.AddInt32(&s.gets, 1)
	if v := s.err.Load(); v != nil {
		if err, ok := v.(error); ok && err != nil {
			return nil, err
		}
	}
	return s.inner.GetStates(ctx)
}

func (s *countingStore) SetState(ctx context.Context, state State) error {
	return s.inner.SetState(ctx, state)
}

func TestActivateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	sw := New(NewMemoryStore(), time.Second, testLogger())

	require.NoError(t, sw.Activate(ctx, GlobalScope, "live incident", "ops"))
	assert.True(t, sw.IsActive(ctx, models.MarketSpread))
	assert.True(t, sw.IsActive(ctx, models.MarketTotal))

	state, blocked := sw.ActiveState(ctx, models.MarketSpread)
	require.True(t, blocked)
	assert.Equal(t, "live incident", state.Reason)
	assert.Equal(t, "ops", state.ActivatedBy)

	require.NoError(t, sw.Deactivate(ctx, GlobalScope, "ops"))
	assert.False(t, sw.IsActive(ctx, models.MarketSpread))
}

func TestMarketScopedSwitch(t *testing.T) {
	ctx := context.Background()
	sw := New(NewMemoryStore(), time.Second, testLogger())

	require.NoError(t, sw.Activate(ctx, string(models.MarketSpread), "bad spread feed", "ops"))
	assert.True(t, sw.IsActive(ctx, models.MarketSpread))
	assert.False(t, sw.IsActive(ctx, models.MarketTotal))
}

func TestReadsServedFromCacheWithinTTL(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{inner: NewMemoryStore()}
	sw := New(store, time.Minute, testLogger())

	// First read fetches, the rest hit the cache.
	sw.IsActive(ctx, models.MarketSpread)
	for i := 0; i < 10; i++ {
		sw.IsActive(ctx, models.MarketSpread)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.gets))
}

func TestExpiredCacheRefetches(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{inner: NewMemoryStore()}
	sw := New(store, 10*time.Millisecond, testLogger())

	sw.IsActive(ctx, models.MarketSpread)
	time.Sleep(15 * time.Millisecond)
	sw.IsActive(ctx, models.MarketSpread)
	assert.Equal(t, int32(2), atomic.LoadInt32(&store.gets))
}

func TestWriteUpdatesCacheImmediately(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{inner: NewMemoryStore()}
	sw := New(store, time.Minute, testLogger())

	assert.False(t, sw.IsActive(ctx, models.MarketSpread))
	require.NoError(t, sw.Activate(ctx, GlobalScope, "incident", "ops"))
	// Activation is visible without waiting for the TTL to lapse.
	assert.True(t, sw.IsActive(ctx, models.MarketSpread))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.gets))
}

func TestReadErrorKeepsLastView(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{inner: NewMemoryStore()}
	sw := New(store, 10*time.Millisecond, testLogger())

	require.NoError(t, sw.Activate(ctx, GlobalScope, "incident", "ops"))
	time.Sleep(15 * time.Millisecond)

	store.err.Store(errors.New("connection refused"))
	assert.True(t, sw.IsActive(ctx, models.MarketSpread))
}

func TestFailsClosedWithoutAnyFetch(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{inner: NewMemoryStore()}
	store.err.Store(errors.New("connection refused"))
	sw := New(store, time.Minute, testLogger())

	assert.True(t, sw.IsActive(ctx, models.MarketSpread))

	state, blocked := sw.ActiveState(ctx, models.MarketSpread)
	require.True(t, blocked)
	assert.Equal(t, "kill switch state unavailable", state.Reason)
}
