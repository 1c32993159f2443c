package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"stock-pos/internal/cache"
	"stock-pos/internal/core"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	_ = godotenv.Load("../../.env")
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis integration test")
	}
	c, err := cache.NewRedis(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisCache_RoundTripsSummary(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()
	key := "pos:test:" + t.Name()

	pct := 12.5
	in := core.DashboardSummary{
		Year:         2025,
		Month:        6,
		MonthTotal:   core.MoneyFromCents(123456),
		DeltaPercent: &pct,
		TopProducts:  []core.TopProduct{{Name: "Pen", Units: 9}},
	}
	require.NoError(t, c.Set(ctx, key, in, time.Minute))

	var out core.DashboardSummary
	found, err := c.Get(ctx, key, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1234.56", out.MonthTotal.String())
	require.NotNil(t, out.DeltaPercent)
	assert.Equal(t, 12.5, *out.DeltaPercent)
	assert.Equal(t, in.TopProducts, out.TopProducts)
}

func TestRedisCache_MissAndExpiry(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	var out core.DashboardSummary
	found, err := c.Get(ctx, "pos:test:absent", &out)
	require.NoError(t, err)
	assert.False(t, found)

	key := "pos:test:" + t.Name()
	require.NoError(t, c.Set(ctx, key, core.DashboardSummary{Year: 2025}, 50*time.Millisecond))
	time.Sleep(150 * time.Millisecond)
	found, err = c.Get(ctx, key, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewRedis_UnreachableAddress(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := cache.NewRedis(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}
