package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_LayersAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
app:
  http_addr: ":8080"
  log_level: info
mysql:
  dsn: "base-dsn"
outbox:
  batch_size: 100
idempotency:
  ttl: 1h
`)
	writeFile(t, dir, "dev.yaml", `
app:
  log_level: debug
`)
	t.Setenv("OMS_MYSQL__DSN", "env-dsn")
	t.Setenv("OMS_OUTBOX__BATCH_SIZE", "7")

	cfg, err := Load(dir, "dev")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "env-dsn", cfg.MySQL.DSN)
	assert.Equal(t, 7, cfg.Outbox.BatchSize)
	assert.Equal(t, time.Hour, cfg.Idempotency.TTL)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "app:\n  http_addr: \":1\"\nmysql:\n  dsn: x\n")

	_, err := Load(dir, "prod")

	assert.NoError(t, err)
}

func TestLoad_MissingBase(t *testing.T) {
	_, err := Load(t.TempDir(), "dev")

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.http_addr required")
	assert.Contains(t, err.Error(), "mysql.dsn required")

	cfg.App.HTTPAddr = ":8080"
	cfg.MySQL.DSN = "dsn"
	assert.NoError(t, cfg.Validate())

	cfg.Kafka.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "kafka.brokers")
}

func TestBaseYAMLLoads(t *testing.T) {
	cfg, err := Load(".", "none")

	require.NoError(t, err)
	assert.Equal(t, "order.events", cfg.Rabbit.Exchange)
	assert.Equal(t, "order.#", cfg.Rabbit.BindingKey)
	assert.Contains(t, cfg.MySQL.DSN, "parseTime=true")
}
