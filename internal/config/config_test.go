package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := values[k]
		return v, ok
	}
}

func TestDecode(t *testing.T) {
	cfg := Default()
	err := Decode([]byte(`
store: redis
redis:
  addr: redis:6379
  db: "2"
  ttl: 1h
lock_ttl: 10s
log_level: debug
log_format: json
`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Store)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "facilitator:", cfg.Redis.Prefix, "unset keys keep defaults")
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 25, cfg.MaxDepth)
	assert.Equal(t, "json", cfg.LogFormat)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestDecode_UnknownKey(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("stor: redis\n"), &cfg)
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(nil, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		EnvStore:      "sqlite",
		EnvSQLitePath: "/tmp/x.db",
		EnvMaxDepth:   "10",
		EnvHTTPAddr:   ":9090",
		EnvLogFormat:  "json",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store)
	assert.Equal(t, "/tmp/x.db", cfg.SQLite.Path)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestApplyEnv_BadDepth(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{EnvMaxDepth: "deep"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store = "etcd" }},
		{"zero depth", func(c *Config) { c.MaxDepth = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facilitator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: sqlite\nmax_depth: 30\n"), 0644))
	t.Setenv(EnvStore, "")
	os.Unsetenv(EnvStore)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Store)
	assert.Equal(t, 30, cfg.MaxDepth)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
