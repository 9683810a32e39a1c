package repository

import (
	"context"

	"dorm-admin/internal/domain"
)

// Collection keys（每个集合一个 key）
const (
	KeyRooms     = "rooms"
	KeyResidents = "residents"
	KeyBuildings = "buildings"
	KeyUsers     = "users"
	KeySession   = "session"
)

// DormRepository 宿舍数据Repository接口
// 每次调用都整表读写，不做跨调用缓存
type DormRepository interface {
	// HasRooms reports whether the rooms collection exists and is non-empty.
	HasRooms(ctx context.Context) (bool, error)

	LoadRooms(ctx context.Context) ([]domain.Room, error)
	SaveRooms(ctx context.Context, rooms []domain.Room) error

	LoadResidents(ctx context.Context) ([]domain.Resident, error)
	SaveResidents(ctx context.Context, residents []domain.Resident) error

	LoadBuildings(ctx context.Context) ([]domain.Building, error)
	SaveBuildings(ctx context.Context, buildings []domain.Building) error

	LoadUsers(ctx context.Context) ([]domain.User, error)
	SaveUsers(ctx context.Context, users []domain.User) error

	// LoadSession returns ok=false when no one is logged in.
	LoadSession(ctx context.Context) (domain.SessionUser, bool, error)
	SaveSession(ctx context.Context, user domain.SessionUser) error
	ClearSession(ctx context.Context) error
}
