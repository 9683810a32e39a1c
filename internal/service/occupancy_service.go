package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"dorm-admin/internal/domain"
	"dorm-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OccupancyService 房间/住户/楼栋管理服务接口
// 所有读操作都从持久化存储整表重读；写操作为整表 read-modify-write
type OccupancyService interface {
	// 初始化
	InitializeIfEmpty(ctx context.Context) (bool, error)

	// Room 查询
	ListRooms(ctx context.Context) ([]domain.Room, error)
	ListAvailableRooms(ctx context.Context) ([]domain.Room, error)
	GetRoomByID(ctx context.Context, id string) (domain.Room, bool, error)

	// Resident 查询
	ListResidents(ctx context.Context) ([]domain.Resident, error)
	GetResidentByID(ctx context.Context, id string) (domain.Resident, bool, error)
	ListResidentsByRoom(ctx context.Context, roomID string) ([]domain.Resident, error)
	OccupancyOf(ctx context.Context, roomID string) (int, error)

	// Building 查询
	ListBuildings(ctx context.Context) ([]domain.Building, error)
	GetBuildingByID(ctx context.Context, id string) (domain.Building, bool, error)

	// 统计
	TotalRoomsCount(ctx context.Context) (int, error)
	AvailableRoomsCount(ctx context.Context) (int, error)
	TotalResidentsCount(ctx context.Context) (int, error)
	OccupancyPercentage(ctx context.Context) (int, error)

	// 写操作
	AddRoom(ctx context.Context, req AddRoomRequest) (domain.Room, error)
	AddResident(ctx context.Context, req AddResidentRequest) (domain.Resident, error)
	AddBuilding(ctx context.Context, req AddBuildingRequest) (domain.Building, error)

	// 页面视图
	SearchRooms(ctx context.Context, filter RoomFilter) ([]domain.Room, error)
	ListRoomsWithSpace(ctx context.Context) ([]domain.Room, error)
	ListRoomsWithOccupancy(ctx context.Context, availableOnly bool) ([]RoomOccupancy, error)
	RoomDetails(ctx context.Context, roomID string) (RoomDetails, bool, error)
	Dashboard(ctx context.Context) (DashboardSummary, error)
	CheckConsistency(ctx context.Context) (ConsistencyReport, error)
}

type AddRoomRequest struct {
	Number   string // 必填
	Building string // 必填，Building.Name
	Floor    int    // >= 1
	Type     string // Single/Double/Triple/Quad
	Capacity int    // >= 1
}

type AddResidentRequest struct {
	Name   string // 必填
	Email  string // 必填，全局唯一
	Phone  string // 可选
	RoomID string // 必填
}

type AddBuildingRequest struct {
	Name string // 必填，唯一
}

// occupancyService 实现
// mu serializes mutations inside one process only; separate processes
// sharing a backend can still lose updates.
type occupancyService struct {
	repo   repository.DormRepository
	logger *zap.Logger
	newID  func() string
	mu     sync.Mutex
}

// NewOccupancyService 创建 OccupancyService 实例
func NewOccupancyService(repo repository.DormRepository, logger *zap.Logger) OccupancyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &occupancyService{
		repo:   repo,
		logger: logger,
		newID:  newEntityID,
	}
}

// newEntityID returns a time-ordered UUIDv7 derived from the creation time.
func newEntityID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// InitializeIfEmpty writes the sample dataset when the rooms collection is
// absent or empty. It reports whether it seeded.
func (s *occupancyService) InitializeIfEmpty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	has, err := s.repo.HasRooms(ctx)
	if err != nil {
		return false, fmt.Errorf("check rooms: %w", err)
	}
	if has {
		return false, nil
	}

	if err := s.repo.SaveRooms(ctx, SeedRooms()); err != nil {
		return false, err
	}
	if err := s.repo.SaveResidents(ctx, SeedResidents()); err != nil {
		return false, err
	}
	if err := s.repo.SaveBuildings(ctx, SeedBuildings()); err != nil {
		return false, err
	}
	s.logger.Info("seeded sample dormitory data",
		zap.Int("rooms", len(SeedRooms())),
		zap.Int("residents", len(SeedResidents())),
		zap.Int("buildings", len(SeedBuildings())),
	)
	return true, nil
}

// ============================================
// Room
// ============================================

func (s *occupancyService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.repo.LoadRooms(ctx)
}

// ListAvailableRooms filters on the cached available flag.
func (s *occupancyService) ListAvailableRooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.Available {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *occupancyService) GetRoomByID(ctx context.Context, id string) (domain.Room, bool, error) {
	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return domain.Room{}, false, err
	}
	r, ok := findRoom(rooms, id)
	return r, ok, nil
}

func findRoom(rooms []domain.Room, id string) (domain.Room, bool) {
	for _, r := range rooms {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Room{}, false
}

// ============================================
// Resident
// ============================================

func (s *occupancyService) ListResidents(ctx context.Context) ([]domain.Resident, error) {
	return s.repo.LoadResidents(ctx)
}

func (s *occupancyService) GetResidentByID(ctx context.Context, id string) (domain.Resident, bool, error) {
	residents, err := s.repo.LoadResidents(ctx)
	if err != nil {
		return domain.Resident{}, false, err
	}
	for _, r := range residents {
		if r.ID == id {
			return r, true, nil
		}
	}
	return domain.Resident{}, false, nil
}

func (s *occupancyService) ListResidentsByRoom(ctx context.Context, roomID string) ([]domain.Resident, error) {
	residents, err := s.repo.LoadResidents(ctx)
	if err != nil {
		return nil, err
	}
	return residentsInRoom(residents, roomID), nil
}

// OccupancyOf is the live resident count, independent of Room.Occupancy.
func (s *occupancyService) OccupancyOf(ctx context.Context, roomID string) (int, error) {
	residents, err := s.ListResidentsByRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}
	return len(residents), nil
}

func residentsInRoom(residents []domain.Resident, roomID string) []domain.Resident {
	out := []domain.Resident{}
	for _, r := range residents {
		if r.RoomID == roomID {
			out = append(out, r)
		}
	}
	return out
}

// ============================================
// Building
// ============================================

func (s *occupancyService) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	return s.repo.LoadBuildings(ctx)
}

func (s *occupancyService) GetBuildingByID(ctx context.Context, id string) (domain.Building, bool, error) {
	buildings, err := s.repo.LoadBuildings(ctx)
	if err != nil {
		return domain.Building{}, false, err
	}
	for _, b := range buildings {
		if b.ID == id {
			return b, true, nil
		}
	}
	return domain.Building{}, false, nil
}

// ============================================
// 统计
// ============================================

func (s *occupancyService) TotalRoomsCount(ctx context.Context) (int, error) {
	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return 0, err
	}
	return len(rooms), nil
}

func (s *occupancyService) AvailableRoomsCount(ctx context.Context) (int, error) {
	rooms, err := s.ListAvailableRooms(ctx)
	if err != nil {
		return 0, err
	}
	return len(rooms), nil
}

func (s *occupancyService) TotalResidentsCount(ctx context.Context) (int, error) {
	residents, err := s.repo.LoadResidents(ctx)
	if err != nil {
		return 0, err
	}
	return len(residents), nil
}

// OccupancyPercentage is the share of rooms not flagged available, rounded
// half up. With no rooms it returns 0 and ErrDivisionUndefined.
func (s *occupancyService) OccupancyPercentage(ctx context.Context) (int, error) {
	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return 0, err
	}
	return occupancyPercentage(rooms)
}

func occupancyPercentage(rooms []domain.Room) (int, error) {
	total := len(rooms)
	if total == 0 {
		return 0, ErrDivisionUndefined
	}
	available := 0
	for _, r := range rooms {
		if r.Available {
			available++
		}
	}
	pct := float64(total-available) / float64(total) * 100
	return int(math.Floor(pct + 0.5)), nil
}

// ============================================
// 写操作
// ============================================

// AddRoom validates, rejects a duplicate (number, building) pair, appends a
// room with occupancy 0 and bumps the named building's room counter. An
// unknown building name is tolerated and leaves the counters untouched.
// Rooms are saved before buildings: if the building write fails the room
// stays stored and the counter is stale until fixed by hand.
func (s *occupancyService) AddRoom(ctx context.Context, req AddRoomRequest) (domain.Room, error) {
	number := strings.TrimSpace(req.Number)
	building := strings.TrimSpace(req.Building)
	if missing := missingFields(
		field{"number", number}, field{"building", building}, field{"type", req.Type},
	); missing != "" {
		return domain.Room{}, s.rejected("room", fmt.Errorf("%w: %s", ErrMissingRequiredField, missing))
	}
	roomType, ok := domain.ParseRoomType(req.Type)
	if !ok {
		return domain.Room{}, s.rejected("room",
			fmt.Errorf("%w: type %q is not one of Single, Double, Triple, Quad", ErrInvalidField, req.Type))
	}
	if req.Floor < 1 {
		return domain.Room{}, s.rejected("room", fmt.Errorf("%w: floor must be >= 1", ErrInvalidField))
	}
	if req.Capacity < 1 {
		return domain.Room{}, s.rejected("room", fmt.Errorf("%w: capacity must be >= 1", ErrInvalidField))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return domain.Room{}, err
	}
	for _, r := range rooms {
		if r.SameSlot(number, building) {
			s.logger.Debug("rejected duplicate room", zap.String("number", number), zap.String("building", building))
			return domain.Room{}, fmt.Errorf("%w: room %s already exists in %s", ErrDuplicateRoom, number, building)
		}
	}

	room := domain.Room{
		ID:        s.newID(),
		Number:    number,
		Building:  building,
		Floor:     req.Floor,
		Type:      roomType,
		Capacity:  req.Capacity,
		Occupancy: 0,
		Available: true,
	}
	rooms = append(rooms, room)
	if err := s.repo.SaveRooms(ctx, rooms); err != nil {
		s.logger.Error("failed to save rooms", zap.Error(err))
		return domain.Room{}, err
	}

	buildings, err := s.repo.LoadBuildings(ctx)
	if err != nil {
		return domain.Room{}, err
	}
	matched := false
	for i := range buildings {
		if buildings[i].Name == building {
			buildings[i].TotalRooms++
			matched = true
		}
	}
	if matched {
		if err := s.repo.SaveBuildings(ctx, buildings); err != nil {
			s.logger.Error("failed to save buildings", zap.Error(err))
			return domain.Room{}, err
		}
	} else {
		s.logger.Warn("room added to unknown building; counter not updated", zap.String("building", building))
	}

	s.logger.Info("room added",
		zap.String("room_id", room.ID),
		zap.String("number", room.Number),
		zap.String("building", room.Building),
	)
	return room, nil
}

// AddResident validates, rejects a duplicate email, an unknown room or a
// full room, then appends the resident and refreshes the room's cached
// occupancy and availability.
func (s *occupancyService) AddResident(ctx context.Context, req AddResidentRequest) (domain.Resident, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	roomID := strings.TrimSpace(req.RoomID)
	if missing := missingFields(
		field{"name", name}, field{"email", email}, field{"roomId", roomID},
	); missing != "" {
		return domain.Resident{}, s.rejected("resident", fmt.Errorf("%w: %s", ErrMissingRequiredField, missing))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	residents, err := s.repo.LoadResidents(ctx)
	if err != nil {
		return domain.Resident{}, err
	}
	for _, r := range residents {
		if strings.EqualFold(strings.TrimSpace(r.Email), email) {
			s.logger.Debug("rejected duplicate resident email", zap.String("email", email))
			return domain.Resident{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
		}
	}

	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return domain.Resident{}, err
	}
	idx := -1
	for i := range rooms {
		if rooms[i].ID == roomID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Resident{}, s.rejected("resident", fmt.Errorf("%w: %s", ErrRoomNotFound, roomID))
	}
	room := rooms[idx]

	current := len(residentsInRoom(residents, roomID))
	if current >= room.Capacity {
		s.logger.Debug("rejected resident for full room",
			zap.String("room_id", roomID), zap.Int("occupancy", current), zap.Int("capacity", room.Capacity))
		return domain.Resident{}, fmt.Errorf("%w: room %s in %s holds %d of %d",
			ErrRoomFull, room.Number, room.Building, current, room.Capacity)
	}

	resident := domain.Resident{
		ID:     s.newID(),
		Name:   name,
		Email:  email,
		Phone:  strings.TrimSpace(req.Phone),
		RoomID: roomID,
	}
	residents = append(residents, resident)
	if err := s.repo.SaveResidents(ctx, residents); err != nil {
		s.logger.Error("failed to save residents", zap.Error(err))
		return domain.Resident{}, err
	}

	room.Occupancy = current + 1
	room.Available = room.Occupancy < room.Capacity
	rooms[idx] = room
	if err := s.repo.SaveRooms(ctx, rooms); err != nil {
		// residents already written; the cached counter is now stale
		s.logger.Error("failed to save room occupancy", zap.String("room_id", roomID), zap.Error(err))
		return domain.Resident{}, err
	}

	s.logger.Info("resident added",
		zap.String("resident_id", resident.ID),
		zap.String("room_id", roomID),
		zap.Int("occupancy", room.Occupancy),
		zap.Bool("available", room.Available),
	)
	return resident, nil
}

// AddBuilding creates a building with no rooms. Names are unique
// (case-insensitive).
func (s *occupancyService) AddBuilding(ctx context.Context, req AddBuildingRequest) (domain.Building, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Building{}, s.rejected("building", fmt.Errorf("%w: name", ErrMissingRequiredField))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buildings, err := s.repo.LoadBuildings(ctx)
	if err != nil {
		return domain.Building{}, err
	}
	for _, b := range buildings {
		if strings.EqualFold(b.Name, name) {
			return domain.Building{}, s.rejected("building", fmt.Errorf("%w: %s", ErrDuplicateBuilding, name))
		}
	}

	building := domain.Building{ID: s.newID(), Name: name, TotalRooms: 0}
	buildings = append(buildings, building)
	if err := s.repo.SaveBuildings(ctx, buildings); err != nil {
		s.logger.Error("failed to save buildings", zap.Error(err))
		return domain.Building{}, err
	}

	s.logger.Info("building added", zap.String("building_id", building.ID), zap.String("name", name))
	return building, nil
}

// rejected logs a refused mutation at debug and returns err.
func (s *occupancyService) rejected(entity string, err error) error {
	s.logger.Debug("rejected "+entity, zap.Error(err))
	return err
}

type field struct{ name, value string }

// missingFields names the blank fields, comma separated.
func missingFields(fields ...field) string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return strings.Join(missing, ", ")
}
