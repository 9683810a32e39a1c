package service

import "dorm-admin/internal/domain"

// SeedRooms 首次启动写入的样例房间
func SeedRooms() []domain.Room {
	return []domain.Room{
		{ID: "1", Number: "102", Building: "East Hall", Floor: 1, Type: domain.RoomTypeDouble, Capacity: 2, Occupancy: 1, Available: true},
		{ID: "2", Number: "401", Building: "East Hall", Floor: 4, Type: domain.RoomTypeQuad, Capacity: 4, Occupancy: 3, Available: true},
		{ID: "3", Number: "215", Building: "West Hall", Floor: 2, Type: domain.RoomTypeTriple, Capacity: 3, Occupancy: 2, Available: true},
	}
}

// SeedResidents 样例住户
func SeedResidents() []domain.Resident {
	return []domain.Resident{
		{ID: "1", Name: "John Doe", Email: "john@example.com", RoomID: "1"},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", RoomID: "2"},
		{ID: "3", Name: "Bob Johnson", Email: "bob@example.com", RoomID: "2"},
		{ID: "4", Name: "Alice Brown", Email: "alice@example.com", RoomID: "2"},
		{ID: "5", Name: "Charlie Wilson", Email: "charlie@example.com", RoomID: "3"},
		{ID: "6", Name: "Diana Miller", Email: "diana@example.com", RoomID: "3"},
	}
}

// SeedBuildings 样例楼栋
func SeedBuildings() []domain.Building {
	return []domain.Building{
		{ID: "1", Name: "East Hall", TotalRooms: 2},
		{ID: "2", Name: "West Hall", TotalRooms: 1},
	}
}
