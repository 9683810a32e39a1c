package repository

import (
	"context"
	"testing"

	"dorm-admin/internal/domain"
	"dorm-admin/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVDormRepo_EmptyCollections(t *testing.T) {
	repo := NewKVDormRepo(store.NewMemoryKV(), "")
	ctx := context.Background()

	rooms, err := repo.LoadRooms(ctx)
	require.NoError(t, err)
	assert.NotNil(t, rooms)
	assert.Empty(t, rooms)

	has, err := repo.HasRooms(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	_, ok, err := repo.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVDormRepo_RecordShapes(t *testing.T) {
	kv := store.NewMemoryKV()
	repo := NewKVDormRepo(kv, "dorm:")
	ctx := context.Background()

	require.NoError(t, repo.SaveRooms(ctx, []domain.Room{{
		ID: "1", Number: "102", Building: "East Hall", Floor: 1,
		Type: domain.RoomTypeDouble, Capacity: 2, Occupancy: 1, Available: true,
	}}))
	require.NoError(t, repo.SaveResidents(ctx, []domain.Resident{{
		ID: "1", Name: "John Doe", Email: "john@example.com", RoomID: "1",
	}}))
	require.NoError(t, repo.SaveBuildings(ctx, []domain.Building{{ID: "1", Name: "East Hall", TotalRooms: 2}}))

	raw, err := kv.Get(ctx, "dorm:rooms")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","number":"102","building":"East Hall","floor":1,"type":"Double","capacity":2,"occupancy":1,"available":true}]`, raw)

	raw, err = kv.Get(ctx, "dorm:residents")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","name":"John Doe","email":"john@example.com","roomId":"1"}]`, raw)

	raw, err = kv.Get(ctx, "dorm:buildings")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","name":"East Hall","totalRooms":2}]`, raw)

	has, err := repo.HasRooms(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestKVDormRepo_NilSliceStoredAsEmptyArray(t *testing.T) {
	kv := store.NewMemoryKV()
	repo := NewKVDormRepo(kv, "")
	ctx := context.Background()

	require.NoError(t, repo.SaveResidents(ctx, nil))
	raw, err := kv.Get(ctx, KeyResidents)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestKVDormRepo_NullCollection(t *testing.T) {
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), KeyBuildings, "null"))

	buildings, err := NewKVDormRepo(kv, "").LoadBuildings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, buildings)
	assert.Empty(t, buildings)
}

func TestKVDormRepo_MalformedJSON(t *testing.T) {
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), KeyRooms, "{not json"))

	_, err := NewKVDormRepo(kv, "").LoadRooms(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode rooms")
}

func TestKVDormRepo_Session(t *testing.T) {
	kv := store.NewMemoryKV()
	repo := NewKVDormRepo(kv, "")
	ctx := context.Background()

	user := domain.SessionUser{ID: "u1", Name: "Admin", Email: "admin@example.com"}
	require.NoError(t, repo.SaveSession(ctx, user))

	raw, err := kv.Get(ctx, KeySession)
	require.NoError(t, err)
	assert.NotContains(t, raw, "password")

	got, ok, err := repo.LoadSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user, got)

	require.NoError(t, repo.ClearSession(ctx))
	_, ok, err = repo.LoadSession(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVDormRepo_Users(t *testing.T) {
	repo := NewKVDormRepo(store.NewMemoryKV(), "")
	ctx := context.Background()

	users := []domain.User{{ID: "u1", Name: "Admin", Email: "admin@example.com", PasswordHash: "$argon2id$x"}}
	require.NoError(t, repo.SaveUsers(ctx, users))

	got, err := repo.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, got)
}
