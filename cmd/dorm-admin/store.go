package main

import (
	"context"
	"fmt"

	"dorm-admin/internal/config"
	"dorm-admin/internal/database"
	"dorm-admin/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// openStore builds the KV backend named by storage.backend. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.KV, func(), error) {
	noop := func() {}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Warn("memory backend: data is lost when the process exits")
		return store.NewMemoryKV(), noop, nil

	case config.BackendFile:
		kv, err := store.NewFileKV(cfg.Storage.FileDir, log)
		if err != nil {
			return nil, nil, err
		}
		return kv, noop, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return store.NewRedisKV(client), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		kv := store.NewSQLKV(db, store.DialectPostgres)
		if err := kv.EnsureSchema(ctx); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		return kv, func() { _ = database.Close(db) }, nil

	case config.BackendSQLite:
		db, err := database.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		kv := store.NewSQLKV(db, store.DialectSQLite)
		if err := kv.EnsureSchema(ctx); err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		return kv, func() { _ = database.Close(db) }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
