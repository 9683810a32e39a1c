package domain

import "strings"

// RoomType 房型（决定常规床位数，但 capacity 以记录为准）
type RoomType string

const (
	RoomTypeSingle RoomType = "Single"
	RoomTypeDouble RoomType = "Double"
	RoomTypeTriple RoomType = "Triple"
	RoomTypeQuad   RoomType = "Quad"
)

// RoomTypes lists the accepted room types in display order.
var RoomTypes = []RoomType{RoomTypeSingle, RoomTypeDouble, RoomTypeTriple, RoomTypeQuad}

// ParseRoomType matches s case-insensitively against the known room types.
func ParseRoomType(s string) (RoomType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range RoomTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// DefaultCapacity is the usual bed count for the type. It is a hint only.
func (t RoomType) DefaultCapacity() int {
	switch t {
	case RoomTypeSingle:
		return 1
	case RoomTypeDouble:
		return 2
	case RoomTypeTriple:
		return 3
	case RoomTypeQuad:
		return 4
	}
	return 0
}

// Room 房间（对应 rooms 集合）
// Occupancy/Available 是缓存字段，只在新增住户时重算
type Room struct {
	ID        string   `json:"id"`
	Number    string   `json:"number"`   // unique within Building
	Building  string   `json:"building"` // Building.Name, not Building.ID
	Floor     int      `json:"floor"`
	Type      RoomType `json:"type"`
	Capacity  int      `json:"capacity"`
	Occupancy int      `json:"occupancy"`
	Available bool     `json:"available"`
}

// SameSlot reports whether r occupies the (number, building) pair.
func (r Room) SameSlot(number, building string) bool {
	return r.Number == number && r.Building == building
}
