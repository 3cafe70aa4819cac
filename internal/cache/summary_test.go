package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/possession"
)

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	return mr, rc
}

func sampleSummary() *possession.Summary {
	return &possession.Summary{
		TotalPossessions: 3,
		Teams: []possession.TeamSummary{
			{TeamID: 1610612737, Possessions: 2, Points: 3, PointsPerPossession: 1.5, Outcomes: map[possession.Outcome]int{possession.OutcomeMadeShot: 1, possession.OutcomeGameEnd: 1}},
			{TeamID: 1610612738, Possessions: 1, Points: 0, Outcomes: map[possession.Outcome]int{possession.OutcomeDefensiveRebound: 1}},
		},
	}
}

func TestSummaryCache_RoundTrip(t *testing.T) {
	_, rc := setupMiniRedis(t)
	sc := NewSummaryCache(rc, time.Hour)
	ctx := context.Background()

	_, ok, err := sc.Get(ctx, "0022400061")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sc.Set(ctx, "0022400061", sampleSummary()))

	got, ok, err := sc.Get(ctx, "0022400061")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleSummary(), got)
}

func TestSummaryCache_Expiry(t *testing.T) {
	mr, rc := setupMiniRedis(t)
	sc := NewSummaryCache(rc, time.Minute)
	ctx := context.Background()

	require.NoError(t, sc.Set(ctx, "g1", sampleSummary()))
	assert.Equal(t, time.Minute, mr.TTL(SummaryKey("g1")))

	mr.FastForward(2 * time.Minute)

	_, ok, err := sc.Get(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummaryCache_Invalidate(t *testing.T) {
	mr, rc := setupMiniRedis(t)
	sc := NewSummaryCache(rc, 0)
	ctx := context.Background()

	require.NoError(t, sc.Set(ctx, "g1", sampleSummary()))
	require.True(t, mr.Exists(SummaryKey("g1")))

	require.NoError(t, sc.Invalidate(ctx, "g1"))
	assert.False(t, mr.Exists(SummaryKey("g1")))
}

func TestSummaryCache_CorruptValue(t *testing.T) {
	mr, rc := setupMiniRedis(t)
	require.NoError(t, mr.Set(SummaryKey("g1"), "{not json"))

	_, ok, err := NewSummaryCache(rc, 0).Get(context.Background(), "g1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisCache_GetMiss(t *testing.T) {
	_, rc := setupMiniRedis(t)

	_, err := rc.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-url")
	assert.Error(t, err)
}
