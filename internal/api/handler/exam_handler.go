package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"exam-planner/internal/dto"
	"exam-planner/internal/service"
	"exam-planner/pkg/response"
)

// ExamHandler 考试查询 HTTP 处理器（只读）
type ExamHandler struct {
	examSvc service.ExamService
}

// NewExamHandler 创建 ExamHandler
func NewExamHandler(examSvc service.ExamService) *ExamHandler {
	return &ExamHandler{examSvc: examSvc}
}

// ListExams 分页查询考试安排
// GET /api/v1/exams?run_id=&department_id=&formation_id=&group_id=&professor_id=&date=&page=&page_size=
func (h *ExamHandler) ListExams(c *gin.Context) {
	var req dto.ExamListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	list, total, err := h.examSvc.ListExams(c.Request.Context(), &req)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Overview 运行总览
// GET /api/v1/plannings/:id/overview
func (h *ExamHandler) Overview(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "运行ID不能为空")
		return
	}

	result, err := h.examSvc.Overview(c.Request.Context(), id)
	if err != nil {
		h.handleExamError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ExamHandler) handleExamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 14101, "排考运行不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 14102, "日期格式错误，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
