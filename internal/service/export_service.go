package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"exam-planner/config"
	"exam-planner/internal/export"
	"exam-planner/internal/model"
	"exam-planner/internal/planner"
	"exam-planner/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoExams      = errors.New("该运行暂无考试安排")
	ErrExportUnsupported  = errors.New("不支持的导出格式")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出格式
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - CSV 列固定：Exam ID, Group, Module, Professor, Room, Date, Slot
//   - XLSX 单 Sheet：标题行 + 表头 + 每场考试一行
type ExportService interface {
	// ExportExams 导出运行的全部考试；runID 为空时取最近一次运行
	ExportExams(ctx context.Context, runID, format string) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportExams — 导出考试安排
// ═══════════════════════════════════════════════════════════
//
// 返回值：buf（文件内容）, filename（建议文件名）, error

func (s *exportService) ExportExams(ctx context.Context, runID, format string) (*bytes.Buffer, string, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, "", ErrExportUnsupported
	}

	// 1. 确定运行
	run, err := resolveRun(ctx, s.repo, runID)
	if err != nil {
		if !errors.Is(err, ErrRunNotFound) {
			s.logger.Error("查询排考运行失败", zap.Error(err))
		}
		return nil, "", err
	}

	// 2. 查询全部明细（不分页）
	details, _, err := s.repo.Exam.ListDetails(ctx, model.ExamFilter{RunID: run.RunID})
	if err != nil {
		s.logger.Error("查询考试明细失败", zap.Error(err))
		return nil, "", err
	}
	if len(details) == 0 {
		return nil, "", ErrExportNoExams
	}

	rows := lo.Map(details, func(d model.ExamDetail, _ int) export.Row {
		return export.Row{
			ExamID:    d.ExamID,
			Group:     d.GroupName,
			Module:    d.ModuleName,
			Professor: d.ProfessorName,
			Room:      d.RoomName,
			Date:      planner.DayOf(d.ExamDate).String(),
			Slot:      d.SlotID,
		}
	})

	// 3. 编码
	buf := new(bytes.Buffer)
	switch format {
	case FormatXLSX:
		title := fmt.Sprintf("考试安排 %s（%d 天）", planner.DayOf(run.StartDate), run.Days)
		if err := export.WriteXLSX(buf, title, rows); err != nil {
			s.logger.Error("写入 Excel 失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		return buf, fmt.Sprintf("planning_examens_%s.xlsx", shortID(run.RunID)), nil
	default:
		if err := export.WriteCSV(buf, rows, csvDelimiter(s.cfg)); err != nil {
			s.logger.Error("写入 CSV 失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		return buf, fmt.Sprintf("planning_examens_%s.csv", shortID(run.RunID)), nil
	}
}

// ── 辅助函数 ──

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func csvDelimiter(cfg *config.Config) rune {
	if cfg == nil || cfg.Export.Delimiter == "" {
		return ','
	}
	return rune(cfg.Export.Delimiter[0])
}
