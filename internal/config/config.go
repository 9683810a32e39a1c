package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. DORM_STORAGE_BACKEND.
const EnvPrefix = "DORM_"

// ConfigPathEnv names the YAML file to load when no path is given.
const ConfigPathEnv = "DORM_CONFIG"

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config dorm-admin 配置
// 优先级：默认值 < YAML 文件 < 环境变量
type Config struct {
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Seed     SeedConfig     `yaml:"seed" envPrefix:"SEED_"`
	Auth     AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend" env:"BACKEND"`
	Namespace  string `yaml:"namespace" env:"NAMESPACE"` // key prefix, e.g. "dorm:"
	FileDir    string `yaml:"file_dir" env:"FILE_DIR"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type SeedConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// AuthConfig Argon2id 参数
type AuthConfig struct {
	Argon2MemoryKiB uint32 `yaml:"argon2_memory_kib" env:"ARGON2_MEMORY_KIB"`
	Argon2Time      uint32 `yaml:"argon2_time" env:"ARGON2_TIME"`
	Argon2Threads   uint8  `yaml:"argon2_threads" env:"ARGON2_THREADS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.Backend = BackendFile
	cfg.Storage.FileDir = "dorm-data"
	cfg.Storage.SQLitePath = "dorm.db"

	cfg.Redis.Addr = "localhost:6379"

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "dorm"
	cfg.Database.SSLMode = "disable"

	cfg.Log.Level = "info"
	cfg.Log.Format = "console"

	cfg.Seed.Enabled = true

	cfg.Auth.Argon2MemoryKiB = 64 * 1024
	cfg.Auth.Argon2Time = 1
	cfg.Auth.Argon2Threads = 4
	return cfg
}

// Load builds the configuration from defaults, the YAML file at path (or
// $DORM_CONFIG when path is empty) and DORM_* environment variables.
// A missing file is only an error when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the storage selection.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	case BackendFile:
		if c.Storage.FileDir == "" {
			return fmt.Errorf("storage.file_dir is required for the file backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
