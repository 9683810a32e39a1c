package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dorm-admin/internal/domain"
	"dorm-admin/internal/store"
)

// KVDormRepo 基于 store.KV 的实现：每个集合序列化为一个 JSON 数组
type KVDormRepo struct {
	kv        store.KV
	namespace string
}

// NewKVDormRepo prefixes every collection key with namespace (may be empty).
func NewKVDormRepo(kv store.KV, namespace string) *KVDormRepo {
	return &KVDormRepo{kv: kv, namespace: namespace}
}

var _ DormRepository = (*KVDormRepo)(nil)

// Key returns the storage key for a collection.
func (r *KVDormRepo) Key(collection string) string {
	return r.namespace + collection
}

func (r *KVDormRepo) HasRooms(ctx context.Context) (bool, error) {
	rooms, err := r.LoadRooms(ctx)
	if err != nil {
		return false, err
	}
	return len(rooms) > 0, nil
}

func (r *KVDormRepo) LoadRooms(ctx context.Context) ([]domain.Room, error) {
	return loadList[domain.Room](ctx, r.kv, r.Key(KeyRooms))
}

func (r *KVDormRepo) SaveRooms(ctx context.Context, rooms []domain.Room) error {
	return saveValue(ctx, r.kv, r.Key(KeyRooms), nonNil(rooms))
}

func (r *KVDormRepo) LoadResidents(ctx context.Context) ([]domain.Resident, error) {
	return loadList[domain.Resident](ctx, r.kv, r.Key(KeyResidents))
}

func (r *KVDormRepo) SaveResidents(ctx context.Context, residents []domain.Resident) error {
	return saveValue(ctx, r.kv, r.Key(KeyResidents), nonNil(residents))
}

func (r *KVDormRepo) LoadBuildings(ctx context.Context) ([]domain.Building, error) {
	return loadList[domain.Building](ctx, r.kv, r.Key(KeyBuildings))
}

func (r *KVDormRepo) SaveBuildings(ctx context.Context, buildings []domain.Building) error {
	return saveValue(ctx, r.kv, r.Key(KeyBuildings), nonNil(buildings))
}

func (r *KVDormRepo) LoadUsers(ctx context.Context) ([]domain.User, error) {
	return loadList[domain.User](ctx, r.kv, r.Key(KeyUsers))
}

func (r *KVDormRepo) SaveUsers(ctx context.Context, users []domain.User) error {
	return saveValue(ctx, r.kv, r.Key(KeyUsers), nonNil(users))
}

func (r *KVDormRepo) LoadSession(ctx context.Context) (domain.SessionUser, bool, error) {
	key := r.Key(KeySession)
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return domain.SessionUser{}, false, nil
		}
		return domain.SessionUser{}, false, fmt.Errorf("load %s: %w", key, err)
	}
	var u domain.SessionUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return domain.SessionUser{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return u, true, nil
}

func (r *KVDormRepo) SaveSession(ctx context.Context, user domain.SessionUser) error {
	return saveValue(ctx, r.kv, r.Key(KeySession), user)
}

func (r *KVDormRepo) ClearSession(ctx context.Context) error {
	key := r.Key(KeySession)
	if err := r.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	return nil
}

// loadList treats an absent key as an empty collection.
func loadList[T any](ctx context.Context, kv store.KV, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	out := []T{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if out == nil {
		// stored as JSON null
		out = []T{}
	}
	return out, nil
}

func saveValue(ctx context.Context, kv store.KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// nonNil keeps empty collections serialized as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
