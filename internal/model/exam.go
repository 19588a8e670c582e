package model

import "time"

// Exam 考试安排表 — 对应 exams
// 运行内只插入不更新；(run, group, module) 与 (run, group, date) 均有唯一索引
type Exam struct {
	ExamID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"exam_id"`
	RunID       string    `gorm:"type:uuid;not null"                             json:"run_id"`
	ModuleID    string    `gorm:"type:uuid;not null"                             json:"module_id"`
	GroupID     string    `gorm:"type:uuid;not null"                             json:"group_id"`
	ProfessorID string    `gorm:"type:uuid;not null"                             json:"professor_id"`
	RoomID      string    `gorm:"type:uuid;not null"                             json:"room_id"`
	ExamDate    time.Time `gorm:"type:date;not null"                             json:"exam_date"`
	SlotID      int       `gorm:"not null"                                       json:"slot_id"`
	DurationMin int       `gorm:"not null"                                       json:"duration_min"`
	BaseModel

	// 关联
	Module    *Module    `gorm:"foreignKey:ModuleID;references:ModuleID"       json:"module,omitempty"`
	Group     *Group     `gorm:"foreignKey:GroupID;references:GroupID"         json:"group,omitempty"`
	Professor *Professor `gorm:"foreignKey:ProfessorID;references:ProfessorID" json:"professor,omitempty"`
	Room      *ExamRoom  `gorm:"foreignKey:RoomID;references:RoomID"           json:"room,omitempty"`
	TimeSlot  *TimeSlot  `gorm:"foreignKey:SlotID;references:SlotID"           json:"time_slot,omitempty"`
}

// TableName 指定表名
func (Exam) TableName() string { return "exams" }

// ExamDetail 考试明细（联表查询结果，导出与列表使用）
type ExamDetail struct {
	ExamID         string
	RunID          string
	GroupID        string
	GroupName      string
	FormationName  string
	DepartmentID   string
	DepartmentName string
	ModuleName     string
	ProfessorID    string
	ProfessorName  string
	RoomID         string
	RoomName       string
	RoomKind       string
	RoomCapacity   int
	ExamDate       time.Time
	SlotID         int
	SlotLabel      string
	DurationMin    int
}

// ExamFilter 考试列表过滤条件，空值不过滤
type ExamFilter struct {
	RunID        string
	DepartmentID string
	FormationID  string
	GroupID      string
	ProfessorID  string
	Date         *time.Time
	Page         int
	PageSize     int
}

// CountByKey 分组计数结果
type CountByKey struct {
	Key   string
	Label string
	Count int
}
