package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil, "empty")
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "root:password@tcp(127.0.0.1:3306)/pagebuilder?charset=utf8mb4&loc=Local&parseTime=true", cfg.DSN)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.False(t, cfg.Redis.Enable)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, time.Hour, cfg.Jobs.BrokenReferenceScanInterval())
}

func TestParseOverrides(t *testing.T) {
	content := []byte(`
port: 8080
env: Production
database:
  host: db.internal
  port: 3307
  user: composer
  password: secret
  name: pages
  parse_time: false
redis:
  enable: true
  host: cache.internal
  db: 2
  tls: true
cache:
  disable: true
  ttl_seconds: 30
jobs:
  broken_reference_scan_minutes: 0
allowed_origins:
  - " https://admin.example.com/ "
  - ""
paths:
  logs: /var/log/pagebuilder
`)
	cfg, err := Parse(content, "inline")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "composer:secret@tcp(db.internal:3307)/pages?charset=utf8mb4&loc=Local&parseTime=false", cfg.DSN)
	assert.True(t, cfg.Redis.Enable)
	assert.Equal(t, "rediss://cache.internal:6379/2", cfg.RedisURL)
	assert.True(t, cfg.Cache.Disable)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL())
	assert.Zero(t, cfg.Jobs.BrokenReferenceScanInterval())
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "/var/log/pagebuilder", cfg.Paths.Logs)
}

func TestParseExplicitDSNWins(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  dsn: user:pw@tcp(x:1)/y\n"), "inline")
	require.NoError(t, err)
	assert.Equal(t, "user:pw@tcp(x:1)/y", cfg.DSN)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":       "bogus: 1\n",
		"bad port":          "port: 70000\n",
		"negative redis db": "redis:\n  db: -1\n",
		"negative ttl":      "cache:\n  ttl_seconds: -5\n",
		"negative interval": "jobs:\n  broken_reference_scan_minutes: -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content), "inline")
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
