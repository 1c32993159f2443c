package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pos")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DASHBOARD_CACHE_TTL", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.DashboardCacheTTL)
	assert.Equal(t, int32(0), cfg.DBMaxConns)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestFromEnv_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := fromEnv()
	assert.Error(t, err)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pos")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DASHBOARD_CACHE_TTL", "2m")
	t.Setenv("DB_MAX_CONNS", "12")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2*time.Minute, cfg.DashboardCacheTTL)
	assert.Equal(t, int32(12), cfg.DBMaxConns)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestFromEnv_RejectsBadValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pos")
	t.Setenv("DB_MAX_CONNS", "-3")
	_, err := fromEnv()
	assert.Error(t, err)

	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("DASHBOARD_CACHE_TTL", "soon")
	_, err = fromEnv()
	assert.Error(t, err)
}
