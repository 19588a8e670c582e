package model

import "time"

// Group 学生班组表 — 对应 groups
type Group struct {
	GroupID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	FormationID string `gorm:"type:uuid;not null"                             json:"formation_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	BaseModel

	// 关联
	Formation *Formation `gorm:"foreignKey:FormationID;references:FormationID" json:"formation,omitempty"`
}

// TableName 指定表名
func (Group) TableName() string { return "groups" }

// StudentGroup 学生-班组归属表 — 对应 student_groups
type StudentGroup struct {
	StudentID string    `gorm:"type:varchar(64);primaryKey"        json:"student_id"`
	GroupID   string    `gorm:"type:uuid;primaryKey"               json:"group_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (StudentGroup) TableName() string { return "student_groups" }

// GroupSize 班组人数统计（聚合查询结果）
type GroupSize struct {
	GroupID string
	Size    int
}
