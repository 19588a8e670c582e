package model

// 考场类型
const (
	RoomKindStandard = "room" // 普通教室
	RoomKindHall     = "hall" // 阶梯教室
)

// ExamRoom 考场表 — 对应 exam_rooms
type ExamRoom struct {
	RoomID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Capacity int    `gorm:"not null"                                       json:"capacity"`
	Kind     string `gorm:"type:varchar(10);not null;default:'room'"       json:"kind"` // room | hall
	BaseModel
}

// TableName 指定表名
func (ExamRoom) TableName() string { return "exam_rooms" }
