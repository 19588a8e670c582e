package model

// Department 院系表 — 对应 departments
type Department struct {
	DepartmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	BaseModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// Formation 专业表 — 对应 formations
type Formation struct {
	FormationID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"formation_id"`
	DepartmentID string `gorm:"type:uuid;not null"                             json:"department_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	BaseModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (Formation) TableName() string { return "formations" }
