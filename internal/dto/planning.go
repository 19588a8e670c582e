package dto

// ── 排考运行 DTO ──

// RunPlanningRequest 发起排考请求；为空的字段使用配置默认值
type RunPlanningRequest struct {
	StartDate string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	Days      int    `json:"days"       binding:"omitempty,min=1,max=366"`
	Seed      int64  `json:"seed"`
}

// ── 响应 ──

// UnplacedResponse 未排入项
type UnplacedResponse struct {
	GroupID  string `json:"group_id"`
	ModuleID string `json:"module_id,omitempty"`
	Reason   string `json:"reason"`
}

// ConflictSummary 冲突审计结果
type ConflictSummary struct {
	GroupConflicts     int      `json:"group_conflicts"`
	ExaminerConflicts  []string `json:"examiner_conflicts"`
	RoomConflicts      int      `json:"room_conflicts"`
	HallConflicts      int      `json:"hall_conflicts"`
	CapacityViolations int      `json:"capacity_violations"`
	Clean              bool     `json:"clean"`
}

// RunLimits 运行时生效的容量上限，重新审计以此为准
type RunLimits struct {
	DurationMinutes  int `json:"duration_minutes"`
	ExaminerDailyCap int `json:"examiner_daily_cap"`
	HallCapacity     int `json:"hall_capacity"`
	SlotsPerDay      int `json:"slots_per_day"`
}

// PlanningRunResponse 排考运行摘要
type PlanningRunResponse struct {
	ID             string             `json:"id"`
	Status         string             `json:"status"`
	StartDate      string             `json:"start_date"`
	Days           int                `json:"days"`
	Seed           int64              `json:"seed"`
	Limits         RunLimits          `json:"limits"`
	Placed         int                `json:"placed"`
	UnplacedCount  int                `json:"unplaced_count"`
	CommitFailures int                `json:"commit_failures"`
	Unplaced       []UnplacedResponse `json:"unplaced"`
	Conflicts      ConflictSummary    `json:"conflicts"`
	ErrorMessage   string             `json:"error_message,omitempty"`
	StartedAt      string             `json:"started_at"`
	FinishedAt     *string            `json:"finished_at,omitempty"`
	ElapsedMs      int64              `json:"elapsed_ms"`
}
