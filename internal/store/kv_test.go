package store

import (
	"context"
	"path/filepath"
	"testing"

	"dorm-admin/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKVContract exercises the behavior every backend must share.
func testKVContract(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "dorm:rooms")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "dorm:rooms", `[{"id":"1"}]`))
	got, err := kv.Get(ctx, "dorm:rooms")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, got)

	// whole-value overwrite
	require.NoError(t, kv.Set(ctx, "dorm:rooms", `[]`))
	got, err = kv.Get(ctx, "dorm:rooms")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	// keys are independent
	require.NoError(t, kv.Set(ctx, "dorm:session", `{"id":"u1"}`))
	got, err = kv.Get(ctx, "dorm:rooms")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	require.NoError(t, kv.Delete(ctx, "dorm:session"))
	_, err = kv.Get(ctx, "dorm:session")
	assert.ErrorIs(t, err, ErrMiss)

	// deleting an absent key is not an error
	require.NoError(t, kv.Delete(ctx, "dorm:session"))
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	testKVContract(t, kv)
	assert.Equal(t, 1, kv.Len())
}

func TestMemoryKV_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	kv := NewMemoryKV()
	assert.ErrorIs(t, kv.Set(ctx, "rooms", "[]"), context.Canceled)
	_, err := kv.Get(ctx, "rooms")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	kv := NewRedisKV(client)
	testKVContract(t, kv)

	raw, err := mr.Get("dorm:rooms")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
	assert.Zero(t, mr.TTL("dorm:rooms"), "values never expire")
}

func TestSQLKV_SQLite(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "dorm.db"))
	require.NoError(t, err)
	defer db.Close()

	kv := NewSQLKV(db, DialectSQLite)
	require.NoError(t, kv.EnsureSchema(context.Background()))
	// idempotent
	require.NoError(t, kv.EnsureSchema(context.Background()))

	testKVContract(t, kv)
}

func TestSQLKV_SQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dorm.db")
	ctx := context.Background()

	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	kv := NewSQLKV(db, DialectSQLite)
	require.NoError(t, kv.EnsureSchema(ctx))
	require.NoError(t, kv.Set(ctx, "buildings", `[{"id":"1","name":"East Hall","totalRooms":2}]`))
	require.NoError(t, db.Close())

	db, err = database.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	kv = NewSQLKV(db, DialectSQLite)
	require.NoError(t, kv.EnsureSchema(ctx))

	got, err := kv.Get(ctx, "buildings")
	require.NoError(t, err)
	assert.Contains(t, got, "East Hall")
}

func TestDialect_String(t *testing.T) {
	assert.Equal(t, "postgres", DialectPostgres.String())
	assert.Equal(t, "sqlite", DialectSQLite.String())
	assert.Equal(t, "$2", DialectPostgres.placeholder(2))
	assert.Equal(t, "?", DialectSQLite.placeholder(2))
}
