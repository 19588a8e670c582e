package dto

// ── 考试查询 DTO ──

// ExamListRequest 考试列表查询参数
type ExamListRequest struct {
	RunID        string `form:"run_id"        binding:"omitempty,uuid"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	FormationID  string `form:"formation_id"  binding:"omitempty,uuid"`
	GroupID      string `form:"group_id"      binding:"omitempty,uuid"`
	ProfessorID  string `form:"professor_id"  binding:"omitempty,uuid"`
	Date         string `form:"date"          binding:"omitempty,datetime=2006-01-02"`
	PaginationRequest
}

// ExportRequest 导出查询参数
type ExportRequest struct {
	RunID  string `form:"run_id" binding:"omitempty,uuid"`
	Format string `form:"format" binding:"omitempty,oneof=csv xlsx"`
}

// ── 响应 ──

// ExamResponse 考试明细
type ExamResponse struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id"`
	Group       NamedBrief `json:"group"`
	Formation   string     `json:"formation"`
	Department  NamedBrief `json:"department"`
	Module      string     `json:"module"`
	Professor   NamedBrief `json:"professor"`
	Room        RoomBrief  `json:"room"`
	Date        string     `json:"date"`
	SlotID      int        `json:"slot_id"`
	SlotLabel   string     `json:"slot_label,omitempty"`
	DurationMin int        `json:"duration_min"`
}

// NamedBrief ID + 名称
type NamedBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomBrief 考场简要信息
type RoomBrief struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Capacity int    `json:"capacity"`
}

// CountItem 分组计数
type CountItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// OverviewResponse 运行总览
type OverviewResponse struct {
	RunID           string      `json:"run_id"`
	TotalExams      int         `json:"total_exams"`
	UnplacedCount   int         `json:"unplaced_count"`
	ByDepartment    []CountItem `json:"by_department"`
	ByDay           []CountItem `json:"by_day"`
	RoomUsage       []CountItem `json:"room_usage"`
	ExaminerLoads   []CountItem `json:"examiner_loads"`
	ConflictSummary
}
