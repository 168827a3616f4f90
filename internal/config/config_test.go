package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 5000

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

postgres:
  dsn: "postgres://uno:uno@db:5432/uno?sslmode=disable"
  max_conns: 4

auth:
  secret: "s3cr3t"

game:
  turn_timeout: 20
  abandon_timeout: 2
  room_timeout: 15

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  rate_limit:
    max_per_second: 20
    max_per_minute: 120
    ban_duration: 120

log:
  level: debug
  format: json
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5000, cfg.Server.MaxConnections)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "postgres://uno:uno@db:5432/uno?sslmode=disable", cfg.Postgres.DSN)
	assert.Equal(t, int32(4), cfg.Postgres.MaxConns)
	assert.Equal(t, "s3cr3t", cfg.Auth.Secret)
	assert.Equal(t, 20, cfg.Game.TurnTimeout)
	assert.Equal(t, 2, cfg.Game.AbandonTimeout)
	assert.Equal(t, defaultMaxSeats, cfg.Game.MaxSeats)
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, defaultMessageMaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, 15, cfg.Game.TurnTimeout)
	assert.Equal(t, 5, cfg.Game.AbandonTimeout)
	assert.Equal(t, 4, cfg.Game.MaxSeats)
	assert.Equal(t, 3, cfg.Game.MinSeats)
	assert.Equal(t, 7, cfg.Game.HandSize)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestGameConfig_DurationMethods(t *testing.T) {
	t.Parallel()

	cfg := &GameConfig{
		TurnTimeout:    15,
		AbandonTimeout: 5,
		RoomTimeout:    10,
		ShutdownDelay:  3,
	}

	assert.Equal(t, 15*time.Second, cfg.TurnTimeoutDuration())
	assert.Equal(t, 5*time.Minute, cfg.AbandonTimeoutDuration())
	assert.Equal(t, 10*time.Minute, cfg.RoomTimeoutDuration())
	assert.Equal(t, 3*time.Second, cfg.ShutdownDelayDuration())
}

func TestRateLimitConfig_BanDurationTime(t *testing.T) {
	t.Parallel()

	cfg := &RateLimitConfig{BanDuration: 120}
	assert.Equal(t, 120*time.Second, cfg.BanDurationTime())
}

func TestLoadFromEnv(t *testing.T) {
	// Not parallel because it modifies environment variables
	t.Setenv("SERVER_HOST", "env-host")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("POSTGRES_DSN", "postgres://env")
	t.Setenv("AUTH_SECRET", "env-secret")
	t.Setenv("GAME_TURN_TIMEOUT", "30")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.com, http://b.com")

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, 30, cfg.Game.TurnTimeout)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Security.AllowedOrigins)
}

func TestDefault(t *testing.T) {
	t.Setenv("SERVER_PORT", "")

	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultTurnTimeout, cfg.Game.TurnTimeout)
}
