package handler

import "exam-planner/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Planning *PlanningHandler
	Exam     *ExamHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Planning: NewPlanningHandler(svc.Planning),
		Exam:     NewExamHandler(svc.Exam),
		Export:   NewExportHandler(svc.Export),
	}
}
