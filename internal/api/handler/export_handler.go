package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"exam-planner/internal/dto"
	"exam-planner/internal/service"
	"exam-planner/pkg/response"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportExams 导出考试安排
// GET /api/v1/export/exams?run_id=xxx&format=csv|xlsx
// run_id 省略时导出最近一次运行
func (h *ExportHandler) ExportExams(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportExams(c.Request.Context(), req.RunID, req.Format)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	contentType := contentTypeCSV
	if req.Format == service.FormatXLSX {
		contentType = contentTypeXLSX
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 16101, "排考运行不存在")
	case errors.Is(err, service.ErrExportNoExams):
		response.NotFound(c, 16102, "该运行暂无考试安排")
	case errors.Is(err, service.ErrExportUnsupported):
		response.BadRequest(c, 16103, "不支持的导出格式")
	default:
		response.InternalError(c)
	}
}
