package domain

// Building 楼栋（对应 buildings 集合）
// Name 是 Room.Building 实际引用的键
type Building struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TotalRooms int    `json:"totalRooms"`
}
