package service

import (
	"context"
	"testing"

	"dorm-admin/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomIDs(rooms []domain.Room) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}

func TestSearchRooms(t *testing.T) {
	svc, _, repo := newSeededService(t)
	ctx := context.Background()

	rooms, err := repo.LoadRooms(ctx)
	require.NoError(t, err)
	rooms[1].Available = false
	require.NoError(t, repo.SaveRooms(ctx, rooms))

	tests := []struct {
		name   string
		filter RoomFilter
		want   []string
	}{
		{"no filter", RoomFilter{}, []string{"1", "2", "3"}},
		{"by building", RoomFilter{Search: "east"}, []string{"1", "2"}},
		{"by number", RoomFilter{Search: "21"}, []string{"3"}},
		{"matches either field", RoomFilter{Search: "0"}, []string{"1", "2"}},
		{"available only", RoomFilter{AvailableOnly: true}, []string{"1", "3"}},
		{"combined", RoomFilter{Search: "EAST HALL", AvailableOnly: true}, []string{"1"}},
		{"no match", RoomFilter{Search: "north"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.SearchRooms(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, roomIDs(got))
		})
	}
}

func TestListRoomsWithSpace_UsesLiveCount(t *testing.T) {
	svc, _, repo := newSeededService(t)
	ctx := context.Background()

	// stale flag: room 1 claims to be full but has one resident of two
	rooms, err := repo.LoadRooms(ctx)
	require.NoError(t, err)
	rooms[0].Available = false
	require.NoError(t, repo.SaveRooms(ctx, rooms))

	got, err := svc.ListRoomsWithSpace(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, roomIDs(got))

	_, err = svc.AddResident(ctx, AddResidentRequest{Name: "N", Email: "n@example.com", RoomID: "1"})
	require.NoError(t, err)

	got, err = svc.ListRoomsWithSpace(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, roomIDs(got))
}

func TestListRoomsWithOccupancy(t *testing.T) {
	svc, _, _ := newSeededService(t)
	ctx := context.Background()

	_, err := svc.AddResident(ctx, AddResidentRequest{Name: "N", Email: "n@example.com", RoomID: "1"})
	require.NoError(t, err)

	all, err := svc.ListRoomsWithOccupancy(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 2, all[0].CurrentOccupancy)
	assert.Equal(t, 3, all[1].CurrentOccupancy)
	assert.Equal(t, 2, all[2].CurrentOccupancy)

	available, err := svc.ListRoomsWithOccupancy(ctx, true)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, "2", available[0].Room.ID)
}

func TestRoomDetails(t *testing.T) {
	svc, _, _ := newSeededService(t)
	ctx := context.Background()

	details, ok, err := svc.RoomDetails(ctx, "2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "401", details.Room.Number)
	assert.Len(t, details.Residents, 3)

	_, ok, err = svc.RoomDetails(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDashboard(t *testing.T) {
	svc, _, _ := newSeededService(t)
	ctx := context.Background()

	summary, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardSummary{TotalRooms: 3, AvailableRooms: 3, TotalResidents: 6, OccupancyPercentage: 0}, summary)

	_, err = svc.AddResident(ctx, AddResidentRequest{Name: "X", Email: "x@example.com", RoomID: "1"})
	require.NoError(t, err)

	summary, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardSummary{TotalRooms: 3, AvailableRooms: 2, TotalResidents: 7, OccupancyPercentage: 33}, summary)
}

func TestDashboard_EmptyInventory(t *testing.T) {
	svc, _, _ := newTestService(t)

	summary, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DashboardSummary{}, summary)
}

func TestCheckConsistency_SeedIsClean(t *testing.T) {
	svc, _, _ := newSeededService(t)
	ctx := context.Background()

	report, err := svc.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	// mutations through the service keep it clean
	_, err = svc.AddRoom(ctx, AddRoomRequest{Number: "7", Building: "West Hall", Floor: 1, Type: "Single", Capacity: 1})
	require.NoError(t, err)
	_, err = svc.AddResident(ctx, AddResidentRequest{Name: "X", Email: "x@example.com", RoomID: "1"})
	require.NoError(t, err)

	report, err = svc.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestCheckConsistency_ReportsDriftWithoutRepair(t *testing.T) {
	svc, kv, repo := newSeededService(t)
	ctx := context.Background()

	residents, err := repo.LoadResidents(ctx)
	require.NoError(t, err)
	// move a resident out of room 2 behind the service's back, and strand one
	residents[1].RoomID = "1"
	residents[5].RoomID = "gone"
	require.NoError(t, repo.SaveResidents(ctx, residents))

	buildings, err := repo.LoadBuildings(ctx)
	require.NoError(t, err)
	buildings[1].TotalRooms = 5
	require.NoError(t, repo.SaveBuildings(ctx, buildings))

	_, err = svc.AddRoom(ctx, AddRoomRequest{Number: "1", Building: "Annex", Floor: 1, Type: "Single", Capacity: 1})
	require.NoError(t, err)

	before := snapshot(t, kv)
	report, err := svc.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, before, snapshot(t, kv), "report only")

	drifts := map[string]RoomDrift{}
	for _, d := range report.Rooms {
		drifts[d.RoomID] = d
	}
	require.Contains(t, drifts, "1")
	assert.Equal(t, 1, drifts["1"].CachedOccupancy)
	assert.Equal(t, 2, drifts["1"].LiveOccupancy)
	assert.True(t, drifts["1"].CachedAvailable)
	assert.False(t, drifts["1"].LiveAvailable)
	require.Contains(t, drifts, "2")
	assert.Equal(t, 2, drifts["2"].LiveOccupancy)
	require.Contains(t, drifts, "3")
	assert.Equal(t, 1, drifts["3"].LiveOccupancy)

	require.Len(t, report.Buildings, 1)
	assert.Equal(t, "West Hall", report.Buildings[0].Name)
	assert.Equal(t, 5, report.Buildings[0].CachedTotal)
	assert.Equal(t, 1, report.Buildings[0].LiveTotal)

	assert.Equal(t, []string{"Annex"}, report.UnknownBuildings)
	assert.Equal(t, []string{"6"}, report.DanglingResidents)
	assert.Empty(t, report.OverCapacityRooms)
}
