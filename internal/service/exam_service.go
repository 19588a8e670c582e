package service

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-planner/internal/dto"
	"exam-planner/internal/model"
	"exam-planner/internal/planner"
	"exam-planner/internal/repository"
)

// ── 考试查询模块业务错误 ──

var (
	ErrInvalidDate = errors.New("日期格式错误，应为 YYYY-MM-DD")
)

// ExamService 考试查询业务接口（只读视图）
type ExamService interface {
	// ListExams 分页查询考试安排；run_id 为空时取最近一次运行
	ListExams(ctx context.Context, req *dto.ExamListRequest) ([]dto.ExamResponse, int64, error)
	// Overview 运行总览：按院系、按日、考场使用、教师负载
	Overview(ctx context.Context, runID string) (*dto.OverviewResponse, error)
}

type examService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExamService 创建 ExamService 实例
func NewExamService(repo *repository.Repository, logger *zap.Logger) ExamService {
	return &examService{repo: repo, logger: logger}
}

func (s *examService) ListExams(ctx context.Context, req *dto.ExamListRequest) ([]dto.ExamResponse, int64, error) {
	run, err := resolveRun(ctx, s.repo, req.RunID)
	if err != nil {
		return nil, 0, err
	}

	filter := model.ExamFilter{
		RunID:        run.RunID,
		DepartmentID: req.DepartmentID,
		FormationID:  req.FormationID,
		GroupID:      req.GroupID,
		ProfessorID:  req.ProfessorID,
		Page:         req.GetPage(),
		PageSize:     req.GetPageSize(),
	}
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, 0, ErrInvalidDate
		}
		filter.Date = &d
	}

	list, total, err := s.repo.Exam.ListDetails(ctx, filter)
	if err != nil {
		s.logger.Error("查询考试列表失败", zap.Error(err))
		return nil, 0, err
	}

	return lo.Map(list, func(d model.ExamDetail, _ int) dto.ExamResponse {
		return toExamResponse(d)
	}), total, nil
}

func (s *examService) Overview(ctx context.Context, runID string) (*dto.OverviewResponse, error) {
	run, err := resolveRun(ctx, s.repo, runID)
	if err != nil {
		return nil, err
	}

	byDept, err := s.repo.Exam.CountByDepartment(ctx, run.RunID)
	if err != nil {
		s.logger.Error("按院系统计失败", zap.Error(err))
		return nil, err
	}
	byDay, err := s.repo.Exam.CountByDate(ctx, run.RunID)
	if err != nil {
		s.logger.Error("按日期统计失败", zap.Error(err))
		return nil, err
	}
	byRoom, err := s.repo.Exam.CountByRoom(ctx, run.RunID)
	if err != nil {
		s.logger.Error("按考场统计失败", zap.Error(err))
		return nil, err
	}
	byProf, err := s.repo.Exam.CountByProfessor(ctx, run.RunID)
	if err != nil {
		s.logger.Error("按教师统计失败", zap.Error(err))
		return nil, err
	}

	total := lo.SumBy(byDept, func(c model.CountByKey) int { return c.Count })
	return &dto.OverviewResponse{
		RunID:           run.RunID,
		TotalExams:      total,
		UnplacedCount:   run.UnplacedCount,
		ByDepartment:    toCountItems(byDept),
		ByDay:           toCountItems(byDay),
		RoomUsage:       toCountItems(byRoom),
		ExaminerLoads:   toCountItems(byProf),
		ConflictSummary: toRunResponse(run).Conflicts,
	}, nil
}

// resolveRun 按 ID 查询运行；ID 为空时取最近一次
func resolveRun(ctx context.Context, repo *repository.Repository, runID string) (*model.PlanningRun, error) {
	var (
		run *model.PlanningRun
		err error
	)
	if runID == "" {
		run, err = repo.PlanningRun.GetLatest(ctx)
	} else {
		run, err = repo.PlanningRun.GetByID(ctx, runID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func toExamResponse(d model.ExamDetail) dto.ExamResponse {
	return dto.ExamResponse{
		ID:          d.ExamID,
		RunID:       d.RunID,
		Group:       dto.NamedBrief{ID: d.GroupID, Name: d.GroupName},
		Formation:   d.FormationName,
		Department:  dto.NamedBrief{ID: d.DepartmentID, Name: d.DepartmentName},
		Module:      d.ModuleName,
		Professor:   dto.NamedBrief{ID: d.ProfessorID, Name: d.ProfessorName},
		Room:        dto.RoomBrief{ID: d.RoomID, Name: d.RoomName, Kind: d.RoomKind, Capacity: d.RoomCapacity},
		Date:        planner.DayOf(d.ExamDate).String(),
		SlotID:      d.SlotID,
		SlotLabel:   d.SlotLabel,
		DurationMin: d.DurationMin,
	}
}

func toCountItems(counts []model.CountByKey) []dto.CountItem {
	return lo.Map(counts, func(c model.CountByKey, _ int) dto.CountItem {
		return dto.CountItem{Key: c.Key, Label: c.Label, Count: c.Count}
	})
}
