package model

// Professor 监考教师表 — 对应 professors
type Professor struct {
	ProfessorID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"professor_id"`
	DepartmentID *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	BaseModel
}

// TableName 指定表名
func (Professor) TableName() string { return "professors" }
