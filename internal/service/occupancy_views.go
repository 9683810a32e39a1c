package service

import (
	"context"
	"errors"
	"strings"

	"dorm-admin/internal/domain"
)

// RoomFilter Rooms 页面的搜索条件
type RoomFilter struct {
	Search        string // matches room number or building name, case-insensitive
	AvailableOnly bool   // cached available flag
}

// RoomOccupancy pairs a room with its live resident count.
type RoomOccupancy struct {
	Room             domain.Room `json:"room"`
	CurrentOccupancy int         `json:"currentOccupancy"`
}

type RoomDetails struct {
	Room      domain.Room       `json:"room"`
	Residents []domain.Resident `json:"residents"`
}

// DashboardSummary 首页统计卡片
type DashboardSummary struct {
	TotalRooms          int `json:"totalRooms"`
	AvailableRooms      int `json:"availableRooms"`
	TotalResidents      int `json:"totalResidents"`
	OccupancyPercentage int `json:"occupancyPercentage"`
}

// RoomDrift is a room whose cached counters disagree with the residents.
type RoomDrift struct {
	RoomID          string `json:"roomId"`
	Number          string `json:"number"`
	Building        string `json:"building"`
	CachedOccupancy int    `json:"cachedOccupancy"`
	LiveOccupancy   int    `json:"liveOccupancy"`
	CachedAvailable bool   `json:"cachedAvailable"`
	LiveAvailable   bool   `json:"liveAvailable"`
}

// BuildingDrift is a building whose totalRooms disagrees with the rooms.
type BuildingDrift struct {
	BuildingID  string `json:"buildingId"`
	Name        string `json:"name"`
	CachedTotal int    `json:"cachedTotal"`
	LiveTotal   int    `json:"liveTotal"`
}

// ConsistencyReport 只读检查结果，不做修复
type ConsistencyReport struct {
	Rooms             []RoomDrift     `json:"rooms"`
	Buildings         []BuildingDrift `json:"buildings"`
	UnknownBuildings  []string        `json:"unknownBuildings"`  // room.building with no Building record
	DanglingResidents []string        `json:"danglingResidents"` // resident ids whose room does not exist
	OverCapacityRooms []string        `json:"overCapacityRooms"` // room ids with more residents than capacity
}

// Clean reports whether no drift was found.
func (r ConsistencyReport) Clean() bool {
	return len(r.Rooms) == 0 && len(r.Buildings) == 0 && len(r.UnknownBuildings) == 0 &&
		len(r.DanglingResidents) == 0 && len(r.OverCapacityRooms) == 0
}

func (s *occupancyService) SearchRooms(ctx context.Context, filter RoomFilter) ([]domain.Room, error) {
	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	out := []domain.Room{}
	for _, r := range rooms {
		if term != "" &&
			!strings.Contains(strings.ToLower(r.Number), term) &&
			!strings.Contains(strings.ToLower(r.Building), term) {
			continue
		}
		if filter.AvailableOnly && !r.Available {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ListRoomsWithSpace uses the live resident count, not the cached flag, so
// it matches what AddResident will accept.
func (s *occupancyService) ListRoomsWithSpace(ctx context.Context) ([]domain.Room, error) {
	rooms, counts, err := s.roomsWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Room{}
	for _, r := range rooms {
		if counts[r.ID] < r.Capacity {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *occupancyService) ListRoomsWithOccupancy(ctx context.Context, availableOnly bool) ([]RoomOccupancy, error) {
	rooms, counts, err := s.roomsWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := []RoomOccupancy{}
	for _, r := range rooms {
		if availableOnly && !r.Available {
			continue
		}
		out = append(out, RoomOccupancy{Room: r, CurrentOccupancy: counts[r.ID]})
	}
	return out, nil
}

func (s *occupancyService) RoomDetails(ctx context.Context, roomID string) (RoomDetails, bool, error) {
	room, ok, err := s.GetRoomByID(ctx, roomID)
	if err != nil || !ok {
		return RoomDetails{}, false, err
	}
	residents, err := s.ListResidentsByRoom(ctx, roomID)
	if err != nil {
		return RoomDetails{}, false, err
	}
	return RoomDetails{Room: room, Residents: residents}, true, nil
}

// Dashboard reports a 0 percentage for an empty inventory.
func (s *occupancyService) Dashboard(ctx context.Context) (DashboardSummary, error) {
	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}
	residents, err := s.repo.LoadResidents(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}

	summary := DashboardSummary{
		TotalRooms:     len(rooms),
		TotalResidents: len(residents),
	}
	for _, r := range rooms {
		if r.Available {
			summary.AvailableRooms++
		}
	}
	pct, err := occupancyPercentage(rooms)
	if err != nil && !errors.Is(err, ErrDivisionUndefined) {
		return DashboardSummary{}, err
	}
	summary.OccupancyPercentage = pct
	return summary, nil
}

// CheckConsistency compares every cached counter with the live collections.
func (s *occupancyService) CheckConsistency(ctx context.Context) (ConsistencyReport, error) {
	rooms, counts, err := s.roomsWithCounts(ctx)
	if err != nil {
		return ConsistencyReport{}, err
	}
	buildings, err := s.repo.LoadBuildings(ctx)
	if err != nil {
		return ConsistencyReport{}, err
	}
	residents, err := s.repo.LoadResidents(ctx)
	if err != nil {
		return ConsistencyReport{}, err
	}

	report := ConsistencyReport{
		Rooms:             []RoomDrift{},
		Buildings:         []BuildingDrift{},
		UnknownBuildings:  []string{},
		DanglingResidents: []string{},
		OverCapacityRooms: []string{},
	}

	roomIDs := map[string]bool{}
	roomsPerBuilding := map[string]int{}
	for _, r := range rooms {
		roomIDs[r.ID] = true
		roomsPerBuilding[r.Building]++

		live := counts[r.ID]
		liveAvailable := live < r.Capacity
		if r.Occupancy != live || r.Available != liveAvailable {
			report.Rooms = append(report.Rooms, RoomDrift{
				RoomID:          r.ID,
				Number:          r.Number,
				Building:        r.Building,
				CachedOccupancy: r.Occupancy,
				LiveOccupancy:   live,
				CachedAvailable: r.Available,
				LiveAvailable:   liveAvailable,
			})
		}
		if live > r.Capacity {
			report.OverCapacityRooms = append(report.OverCapacityRooms, r.ID)
		}
	}

	known := map[string]bool{}
	for _, b := range buildings {
		known[b.Name] = true
		if live := roomsPerBuilding[b.Name]; live != b.TotalRooms {
			report.Buildings = append(report.Buildings, BuildingDrift{
				BuildingID:  b.ID,
				Name:        b.Name,
				CachedTotal: b.TotalRooms,
				LiveTotal:   live,
			})
		}
	}
	seen := map[string]bool{}
	for _, r := range rooms {
		if !known[r.Building] && !seen[r.Building] {
			seen[r.Building] = true
			report.UnknownBuildings = append(report.UnknownBuildings, r.Building)
		}
	}

	for _, res := range residents {
		if !roomIDs[res.RoomID] {
			report.DanglingResidents = append(report.DanglingResidents, res.ID)
		}
	}
	return report, nil
}

func (s *occupancyService) roomsWithCounts(ctx context.Context) ([]domain.Room, map[string]int, error) {
	rooms, err := s.repo.LoadRooms(ctx)
	if err != nil {
		return nil, nil, err
	}
	residents, err := s.repo.LoadResidents(ctx)
	if err != nil {
		return nil, nil, err
	}
	counts := make(map[string]int, len(rooms))
	for _, r := range residents {
		counts[r.RoomID]++
	}
	return rooms, counts, nil
}
