package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokyun/folio/pkg/logger"
)

type quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestMemoryStore_SetGetExpire(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, QuoteKey("kr", "005930"), quote{Symbol: "005930", Price: 71000}, time.Minute))

	var got quote
	found, err := store.Get(ctx, QuoteKey("kr", "005930"), &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 71000.0, got.Price)

	// 만료된 항목은 미스
	require.NoError(t, store.Set(ctx, "stale", quote{}, -time.Second))
	found, err = store.Get(ctx, "stale", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "live", quote{}, time.Hour))
	require.NoError(t, store.Set(ctx, "dead1", quote{}, -time.Second))
	require.NoError(t, store.Set(ctx, "dead2", quote{}, -time.Second))

	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

// failingStore simulates an unreachable primary backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string, interface{}) (bool, error) {
	return false, errors.New("backend down")
}
func (failingStore) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("backend down")
}
func (failingStore) Delete(context.Context, string) error {
	return errors.New("backend down")
}

func TestReadThrough_FallsBackWhenPrimaryFails(t *testing.T) {
	c := NewReadThrough(failingStore{}, NewMemoryStore(), logger.Discard())
	ctx := context.Background()

	c.Set(ctx, "k", quote{Symbol: "A", Price: 100}, time.Minute)

	var got quote
	require.True(t, c.Get(ctx, "k", &got), "fallback must serve the value")
	assert.Equal(t, "A", got.Symbol)
}

func TestReadThrough_GetOrFetch(t *testing.T) {
	c := NewReadThrough(nil, NewMemoryStore(), logger.Discard())
	ctx := context.Background()
	calls := 0

	fetch := func(context.Context) (interface{}, error) {
		calls++
		return quote{Symbol: "B", Price: 200}, nil
	}

	var got quote
	require.NoError(t, c.GetOrFetch(ctx, "k", &got, time.Minute, fetch))
	assert.Equal(t, 200.0, got.Price)

	// 두 번째 호출은 캐시 적중
	var again quote
	require.NoError(t, c.GetOrFetch(ctx, "k", &again, time.Minute, fetch))
	assert.Equal(t, 1, calls)
	assert.Equal(t, got, again)
}

func TestReadThrough_FetchErrorPropagates(t *testing.T) {
	c := NewReadThrough(nil, NewMemoryStore(), logger.Discard())

	var got quote
	err := c.GetOrFetch(context.Background(), "k", &got, time.Minute,
		func(context.Context) (interface{}, error) {
			return nil, errors.New("upstream down")
		})
	require.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "quote:kr:005930", QuoteKey("kr", "005930"))
	assert.Equal(t, "candidates:crypto:all", CandidatesKey("crypto", ""))
	assert.Equal(t, "enrichment:us:AAPL", EnrichmentKey("us", "AAPL"))
}
