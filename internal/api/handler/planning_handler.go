package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"exam-planner/internal/dto"
	"exam-planner/internal/service"
	"exam-planner/pkg/response"
)

// PlanningHandler 排考运行 HTTP 处理器
type PlanningHandler struct {
	planningSvc service.PlanningService
}

// NewPlanningHandler 创建 PlanningHandler
func NewPlanningHandler(planningSvc service.PlanningService) *PlanningHandler {
	return &PlanningHandler{planningSvc: planningSvc}
}

// Run 发起一次排考
// POST /api/v1/plannings
// 请求体可省略，省略时全部使用配置默认值
func (h *PlanningHandler) Run(c *gin.Context) {
	var req dto.RunPlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	result, err := h.planningSvc.Run(c.Request.Context(), &req)
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}

	response.Created(c, result)
}

// GetLatest 最近一次运行摘要
// GET /api/v1/plannings/latest
func (h *PlanningHandler) GetLatest(c *gin.Context) {
	result, err := h.planningSvc.GetLatestRun(c.Request.Context())
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}

	response.OK(c, result)
}

// GetRun 指定运行摘要
// GET /api/v1/plannings/:id
func (h *PlanningHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "运行ID不能为空")
		return
	}

	result, err := h.planningSvc.GetRun(c.Request.Context(), id)
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}

	response.OK(c, result)
}

// GetConflicts 重新审计运行的考试安排
// GET /api/v1/plannings/:id/conflicts
func (h *PlanningHandler) GetConflicts(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "运行ID不能为空")
		return
	}

	result, err := h.planningSvc.CheckConflicts(c.Request.Context(), id)
	if err != nil {
		h.handlePlanningError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *PlanningHandler) handlePlanningError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 13101, "排考运行不存在")
	case errors.Is(err, service.ErrRunInProgress):
		response.Conflict(c, 13102, "已有排考正在运行，请稍后再试")
	case errors.Is(err, service.ErrEmptyCatalog):
		response.UnprocessableEntity(c, 13103, "目录数据不完整，无法排考")
	case errors.Is(err, service.ErrInvalidOptions):
		response.BadRequest(c, 13104, err.Error())
	case errors.Is(err, service.ErrRunInterrupted):
		response.Error(c, http.StatusServiceUnavailable, 13105, "排考超出运行时限，已中止")
	default:
		response.InternalError(c)
	}
}
