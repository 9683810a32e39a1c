package domain

// Resident 住户（对应 residents 集合）
type Resident struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"` // unique across residents
	Phone  string `json:"phone,omitempty"`
	RoomID string `json:"roomId"`
}
