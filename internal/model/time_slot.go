package model

// TimeSlot 考试时段表 — 对应 time_slots
// SlotID 为整数主键，排考按其升序取前 N 个
type TimeSlot struct {
	SlotID    int    `gorm:"primaryKey;autoIncrement:false" json:"slot_id"`
	Label     string `gorm:"type:varchar(50);not null"      json:"label"`
	StartTime string `gorm:"type:varchar(5);not null"       json:"start_time"` // HH:MM
	EndTime   string `gorm:"type:varchar(5);not null"       json:"end_time"`
	BaseModel
}

// TableName 指定表名
func (TimeSlot) TableName() string { return "time_slots" }
