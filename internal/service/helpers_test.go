package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dorm-admin/internal/repository"
	"dorm-admin/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (OccupancyService, *store.MemoryKV, repository.DormRepository) {
	t.Helper()
	kv := store.NewMemoryKV()
	repo := repository.NewKVDormRepo(kv, "")
	return NewOccupancyService(repo, zap.NewNop()), kv, repo
}

func newSeededService(t *testing.T) (OccupancyService, *store.MemoryKV, repository.DormRepository) {
	t.Helper()
	svc, kv, repo := newTestService(t)
	seeded, err := svc.InitializeIfEmpty(context.Background())
	require.NoError(t, err)
	require.True(t, seeded)
	return svc, kv, repo
}

// snapshot captures the raw persisted collections.
func snapshot(t *testing.T, kv store.KV) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, key := range []string{repository.KeyRooms, repository.KeyResidents, repository.KeyBuildings} {
		v, err := kv.Get(context.Background(), key)
		if errors.Is(err, store.ErrMiss) {
			continue
		}
		require.NoError(t, err)
		out[key] = v
	}
	return out
}

// failingKV fails Set for keys containing failKey.
type failingKV struct {
	store.KV
	failKey string
}

var errDiskFull = errors.New("disk full")

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if strings.Contains(key, f.failKey) {
		return errDiskFull
	}
	return f.KV.Set(ctx, key, value)
}

func cheapHasher() PasswordHasher {
	return PasswordHasher{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}
}
