package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "attendance-events", cfg.Kafka.Topic)
	assert.Equal(t, "badge-engine", cfg.Kafka.GroupID)
	assert.Equal(t, 500, cfg.Backfill.PageSize)
	assert.Equal(t, 8, cfg.Backfill.Concurrency)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
postgres:
  host: db.internal
  user: badges
  password: ${TEST_PG_PASSWORD}
  database: badges
kafka:
  enabled: true
  topic: custom-events
backfill:
  page_size: 100
  schedule: "0 3 * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "custom-events", cfg.Kafka.Topic)
	assert.Equal(t, 100, cfg.Backfill.PageSize)
	assert.Equal(t, "0 3 * * *", cfg.Backfill.Schedule)

	// Unset fields pick up defaults.
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 8, cfg.Backfill.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "badges",
		Password: "pw",
		Database: "badges",
	}
	assert.Equal(t, "postgres://badges:pw@db:5432/badges?sslmode=disable", cfg.ConnectionString())

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://badges:pw@db:5432/badges?sslmode=require", cfg.ConnectionString())
}
