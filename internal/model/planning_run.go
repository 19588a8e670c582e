package model

import "time"

// 运行状态
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// UnplacedItem 未排入的 (班组, 模块)
type UnplacedItem struct {
	GroupID  string `json:"group_id"`
	ModuleID string `json:"module_id,omitempty"`
	Reason   string `json:"reason"`
}

// PlanningRun 排考运行表 — 对应 planning_runs
type PlanningRun struct {
	RunID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"run_id"`
	Status             string         `gorm:"type:varchar(20);not null;default:'running'"    json:"status"` // running | completed | failed
	StartDate          time.Time      `gorm:"type:date;not null"                             json:"start_date"`
	Days               int            `gorm:"not null"                                       json:"days"`
	Seed               int64          `gorm:"not null;default:0"                             json:"seed"`
	DurationMin        int            `gorm:"not null;default:90"                            json:"duration_min"`
	ExaminerDailyCap   int            `gorm:"not null;default:3"                             json:"examiner_daily_cap"`
	HallCapacity       int            `gorm:"not null;default:2"                             json:"hall_capacity"`
	SlotsPerDay        int            `gorm:"not null;default:4"                             json:"slots_per_day"`
	PlacedCount        int            `gorm:"not null;default:0"                             json:"placed_count"`
	UnplacedCount      int            `gorm:"not null;default:0"                             json:"unplaced_count"`
	CommitFailures     int            `gorm:"not null;default:0"                             json:"commit_failures"`
	GroupConflicts     int            `gorm:"not null;default:0"                             json:"group_conflicts"`
	ExaminerConflicts  []string       `gorm:"type:jsonb;serializer:json;not null"            json:"examiner_conflicts"` // 超出每日上限的教师 ID
	RoomConflicts      int            `gorm:"not null;default:0"                             json:"room_conflicts"`
	HallConflicts      int            `gorm:"not null;default:0"                             json:"hall_conflicts"`
	CapacityViolations int            `gorm:"not null;default:0"                             json:"capacity_violations"`
	Unplaced           []UnplacedItem `gorm:"type:jsonb;serializer:json;not null"            json:"unplaced"`
	ErrorMessage       string         `gorm:"type:text;not null;default:''"                  json:"error_message,omitempty"`
	StartedAt          time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"started_at"`
	FinishedAt         *time.Time     `json:"finished_at,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (PlanningRun) TableName() string { return "planning_runs" }
