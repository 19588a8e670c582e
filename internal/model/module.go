package model

// Module 课程模块表 — 对应 modules
type Module struct {
	ModuleID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"module_id"`
	FormationID string `gorm:"type:uuid;not null"                             json:"formation_id"`
	Name        string `gorm:"type:varchar(200);not null"                     json:"name"`
	BaseModel
}

// TableName 指定表名
func (Module) TableName() string { return "modules" }
