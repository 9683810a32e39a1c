package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "dorm-data", cfg.Storage.FileDir)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, uint32(64*1024), cfg.Auth.Argon2MemoryKiB)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dorm.yaml")
	yml := `
storage:
  backend: redis
  namespace: "dorm:"
redis:
  addr: redis.internal:6379
  db: 2
log:
  level: debug
seed:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	t.Setenv("DORM_REDIS_ADDR", "127.0.0.1:6380")
	t.Setenv("DORM_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "dorm:", cfg.Storage.Namespace)
	assert.Equal(t, "127.0.0.1:6380", cfg.Redis.Addr, "env overrides YAML")
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Seed.Enabled)
	// untouched by file and env
	assert.Equal(t, "localhost", cfg.Database.Host)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dorm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: memory\n"), 0644))
	t.Setenv(ConfigPathEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	t.Setenv("DORM_STORAGE_BACKEND", "etcd")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "dorm", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=dorm sslmode=disable", c.GetDSN())
}
