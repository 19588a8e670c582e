package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-planner/config"
	"exam-planner/internal/catalog"
	"exam-planner/internal/dto"
	"exam-planner/internal/model"
	"exam-planner/internal/planner"
	"exam-planner/internal/repository"
	"exam-planner/pkg/metrics"
	"exam-planner/pkg/redis"
)

// ── 排考模块业务错误 ──

var (
	ErrRunNotFound    = errors.New("排考运行不存在")
	ErrRunInProgress  = errors.New("已有排考正在运行，请稍后再试")
	ErrEmptyCatalog   = errors.New("目录数据不完整：班组、考场、教师、时段均不能为空")
	ErrInvalidOptions = errors.New("排考参数无效")
	ErrRunInterrupted = errors.New("排考超出运行时限，已中止")
)

// finalizeTimeout 运行结束后写回状态的时限，与调用方 ctx 无关
const finalizeTimeout = 10 * time.Second

// RunStore 跨进程协调：运行锁与最近一次运行摘要缓存（Redis 实现）
type RunStore interface {
	AcquireRunLock(ctx context.Context, ttl time.Duration) (func(), error)
	SetLatestRun(ctx context.Context, payload []byte, ttl time.Duration) error
	GetLatestRun(ctx context.Context) ([]byte, error)
}

// PlanningService 排考业务接口
type PlanningService interface {
	// Run 执行一次完整排考；单场落库失败不会中断运行
	Run(ctx context.Context, req *dto.RunPlanningRequest) (*dto.PlanningRunResponse, error)
	// GetRun 查询指定运行摘要
	GetRun(ctx context.Context, runID string) (*dto.PlanningRunResponse, error)
	// GetLatestRun 最近一次运行摘要（优先读缓存）
	GetLatestRun(ctx context.Context) (*dto.PlanningRunResponse, error)
	// CheckConflicts 对已落库的考试重新审计
	CheckConflicts(ctx context.Context, runID string) (*dto.ConflictSummary, error)
}

type planningService struct {
	cfg     *config.Config
	repo    *repository.Repository
	loader  catalog.Loader
	store   RunStore // nil 表示 Redis 不可用
	metrics *metrics.PlannerMetrics
	logger  *zap.Logger

	// Redis 不可用时的进程内互斥
	mu sync.Mutex
}

// NewPlanningService 创建 PlanningService 实例
func NewPlanningService(
	cfg *config.Config,
	repo *repository.Repository,
	loader catalog.Loader,
	store RunStore,
	m *metrics.PlannerMetrics,
	logger *zap.Logger,
) PlanningService {
	return &planningService{
		cfg:     cfg,
		repo:    repo,
		loader:  loader,
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// ════════════════════════════════════════════════════════════
// Run — 加锁 → 加载目录 → 贪心排考 → 审计 → 持久化摘要
// ════════════════════════════════════════════════════════════

func (s *planningService) Run(ctx context.Context, req *dto.RunPlanningRequest) (*dto.PlanningRunResponse, error) {
	opts, seed, err := s.buildOptions(req)
	if err != nil {
		return nil, err
	}

	// 0. 运行互斥
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	if s.store != nil {
		release, err := s.store.AcquireRunLock(ctx, s.cfg.Redis.LockTTL)
		if err != nil {
			if errors.Is(err, redis.ErrLockHeld) {
				return nil, ErrRunInProgress
			}
			// Redis 异常时降级为进程内互斥
			s.logger.Warn("获取 Redis 运行锁失败，降级为进程内互斥", zap.Error(err))
		} else {
			defer release()
		}
	}

	// 运行与调用方生命周期解耦：客户端断开或 CLI 中断不会截断排考；
	// 时长以运行锁有效期为上限，避免锁过期后与下一次运行重叠
	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	// 1. 加载目录
	cat, err := s.loader.Load(runCtx)
	if err != nil {
		s.logger.Error("加载目录失败", zap.Error(err))
		return nil, err
	}
	if cat.IsEmpty() {
		return nil, ErrEmptyCatalog
	}

	// 2. 创建运行记录
	started := time.Now()
	run := &model.PlanningRun{
		Status:           model.RunStatusRunning,
		StartDate:        opts.StartDate,
		Days:             opts.Days,
		Seed:             seed,
		DurationMin:      opts.DurationMinutes,
		ExaminerDailyCap: opts.ExaminerDailyCap,
		HallCapacity:     opts.HallCapacity,
		SlotsPerDay:      opts.SlotsPerDay,
		StartedAt:        started,
	}
	if err := s.repo.PlanningRun.Create(runCtx, run); err != nil {
		s.logger.Error("创建排考运行失败", zap.Error(err))
		return nil, err
	}
	logger := s.logger.With(zap.String("run_id", run.RunID))
	logger.Info("排考开始",
		zap.String("start_date", planner.DayOf(opts.StartDate).String()),
		zap.Int("days", opts.Days),
		zap.Int64("seed", seed),
	)

	// 3. 贪心排考，每场考试成功落库后才记入索引
	committer := &examCommitter{repo: s.repo.Exam, runID: run.RunID}
	engine := planner.NewEngine(opts, committer,
		planner.WithSlotOrder(planner.ShuffleOrder(seed)),
		planner.WithLogger(logger),
	)
	result, err := engine.Run(runCtx, cat)
	if err != nil {
		s.failRun(run, result, err)
		if runCtx.Err() != nil && result != nil {
			logger.Error("排考超时中止", zap.Int("placed", len(result.Placed)), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrRunInterrupted, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	// 4. 事后审计
	report := planner.DetectConflicts(result.Placed, cat.Rooms, groupSizes(cat), opts)
	if !report.Clean() {
		logger.Error("排考结果违反约束",
			zap.Int("group_conflicts", report.GroupConflicts),
			zap.Strings("examiner_conflicts", report.ExaminerConflicts),
			zap.Int("room_conflicts", report.RoomConflicts),
			zap.Int("hall_conflicts", report.HallConflicts),
			zap.Int("capacity_violations", report.CapacityViolations),
		)
	}

	// 5. 更新运行记录
	finished := time.Now()
	run.Status = model.RunStatusCompleted
	applyResult(run, result)
	applyReport(run, report)
	run.FinishedAt = &finished
	if err := s.repo.PlanningRun.Update(runCtx, run); err != nil {
		logger.Error("更新排考运行失败", zap.Error(err))
		s.failRun(run, nil, err)
		return nil, fmt.Errorf("保存排考结果失败: %w", err)
	}

	s.metrics.ObserveRun(metrics.RunStats{
		Placed:         run.PlacedCount,
		Unplaced:       lo.CountValuesBy(run.Unplaced, func(u model.UnplacedItem) string { return u.Reason }),
		CommitFailures: run.CommitFailures,
		Conflicts:      conflictCounts(report),
		Duration:       finished.Sub(started),
	})

	logger.Info("排考完成",
		zap.Int("placed", run.PlacedCount),
		zap.Int("unplaced", run.UnplacedCount),
		zap.Int("commit_failures", run.CommitFailures),
		zap.Duration("elapsed", finished.Sub(started)),
	)

	resp := toRunResponse(run)
	s.cacheLatest(runCtx, resp)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// GetRun / GetLatestRun
// ════════════════════════════════════════════════════════════

func (s *planningService) GetRun(ctx context.Context, runID string) (*dto.PlanningRunResponse, error) {
	run, err := s.repo.PlanningRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询排考运行失败", zap.Error(err))
		return nil, err
	}
	return toRunResponse(run), nil
}

func (s *planningService) GetLatestRun(ctx context.Context) (*dto.PlanningRunResponse, error) {
	if s.store != nil {
		b, err := s.store.GetLatestRun(ctx)
		if err != nil {
			s.logger.Warn("读取运行摘要缓存失败", zap.Error(err))
		} else if b != nil {
			var resp dto.PlanningRunResponse
			if err := json.Unmarshal(b, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	run, err := s.repo.PlanningRun.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询最近排考运行失败", zap.Error(err))
		return nil, err
	}
	return toRunResponse(run), nil
}

// ════════════════════════════════════════════════════════════
// CheckConflicts — 基于已落库考试重新审计
// ════════════════════════════════════════════════════════════

func (s *planningService) CheckConflicts(ctx context.Context, runID string) (*dto.ConflictSummary, error) {
	run, err := s.repo.PlanningRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询排考运行失败", zap.Error(err))
		return nil, err
	}

	exams, err := s.repo.Exam.ListByRun(ctx, runID)
	if err != nil {
		s.logger.Error("查询考试安排失败", zap.Error(err))
		return nil, err
	}

	cat, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("加载目录失败", zap.Error(err))
		return nil, err
	}

	// 按运行时生效的上限审计，而非当前配置
	opts, err := s.runOptions(run)
	if err != nil {
		return nil, err
	}

	assignments := lo.Map(exams, func(e model.Exam, _ int) planner.Assignment {
		return planner.Assignment{
			ModuleID:   e.ModuleID,
			GroupID:    e.GroupID,
			ExaminerID: e.ProfessorID,
			RoomID:     e.RoomID,
			Day:        planner.DayOf(e.ExamDate),
			SlotID:     e.SlotID,
			Duration:   e.DurationMin,
		}
	})
	report := planner.DetectConflicts(assignments, cat.Rooms, groupSizes(cat), opts)
	summary := ConflictSummaryOf(report)
	return &summary, nil
}

// ════════════════════════════════════════════════════════════
// 辅助函数
// ════════════════════════════════════════════════════════════

// buildOptions 配置默认值 + 请求覆盖；seed 为 0 时取当前时间并回写，便于复现
func (s *planningService) buildOptions(req *dto.RunPlanningRequest) (planner.Options, int64, error) {
	opts, err := s.cfg.Planner.Options()
	if err != nil {
		return opts, 0, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	seed := s.cfg.Planner.Seed

	if req != nil {
		if req.StartDate != "" {
			start, err := time.Parse("2006-01-02", req.StartDate)
			if err != nil {
				return opts, 0, fmt.Errorf("%w: start_date 格式错误", ErrInvalidOptions)
			}
			opts.StartDate = start
		}
		if req.Days > 0 {
			opts.Days = req.Days
		}
		if req.Seed != 0 {
			seed = req.Seed
		}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if err := opts.Validate(); err != nil {
		return opts, 0, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return opts, seed, nil
}

// runContext 派生运行上下文：不随调用方取消，以运行锁有效期为时限
func (s *planningService) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if ttl := s.cfg.Redis.LockTTL; ttl > 0 {
		return context.WithTimeout(detached, ttl)
	}
	return context.WithCancel(detached)
}

// runOptions 还原运行时的排考参数；旧记录缺少上限时退回当前配置
func (s *planningService) runOptions(run *model.PlanningRun) (planner.Options, error) {
	opts, err := s.cfg.Planner.Options()
	if err != nil {
		return opts, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	opts.StartDate = run.StartDate
	if run.Days > 0 {
		opts.Days = run.Days
	}
	if run.DurationMin > 0 {
		opts.DurationMinutes = run.DurationMin
	}
	if run.ExaminerDailyCap > 0 {
		opts.ExaminerDailyCap = run.ExaminerDailyCap
	}
	if run.HallCapacity > 0 {
		opts.HallCapacity = run.HallCapacity
	}
	if run.SlotsPerDay > 0 {
		opts.SlotsPerDay = run.SlotsPerDay
	}
	return opts, nil
}

// failRun 标记运行失败并记下已完成部分，错误仅记录日志。
// 使用独立上下文，确保调用方已取消或已超时时运行记录仍能结束。
func (s *planningService) failRun(run *model.PlanningRun, partial *planner.Result, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	now := time.Now()
	run.Status = model.RunStatusFailed
	run.ErrorMessage = cause.Error()
	run.FinishedAt = &now
	if partial != nil {
		applyResult(run, partial)
	}
	if err := s.repo.PlanningRun.Update(ctx, run); err != nil {
		s.logger.Error("标记排考运行失败状态出错", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

func applyResult(run *model.PlanningRun, r *planner.Result) {
	run.PlacedCount = len(r.Placed)
	run.UnplacedCount = len(r.Unplaced)
	run.CommitFailures = r.CommitFailures
	run.Unplaced = lo.Map(r.Unplaced, func(u planner.Unplaced, _ int) model.UnplacedItem {
		return model.UnplacedItem{GroupID: u.GroupID, ModuleID: u.ModuleID, Reason: string(u.Reason)}
	})
}

func (s *planningService) cacheLatest(ctx context.Context, resp *dto.PlanningRunResponse) {
	if s.store == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.store.SetLatestRun(ctx, b, s.cfg.Redis.CacheTTL); err != nil {
		s.logger.Warn("写入运行摘要缓存失败", zap.Error(err))
	}
}

func groupSizes(c *planner.Catalog) map[string]int {
	return lo.SliceToMap(c.Groups, func(g planner.Group) (string, int) { return g.ID, g.Size })
}

func applyReport(run *model.PlanningRun, r planner.ConflictReport) {
	run.GroupConflicts = r.GroupConflicts
	run.ExaminerConflicts = r.ExaminerConflicts
	run.RoomConflicts = r.RoomConflicts
	run.HallConflicts = r.HallConflicts
	run.CapacityViolations = r.CapacityViolations
}

func conflictCounts(r planner.ConflictReport) map[string]int {
	return map[string]int{
		"group":    r.GroupConflicts,
		"examiner": len(r.ExaminerConflicts),
		"room":     r.RoomConflicts,
		"hall":     r.HallConflicts,
		"capacity": r.CapacityViolations,
	}
}

// ConflictSummaryOf 将审计报告转换为响应结构；离线 CLI 也复用
func ConflictSummaryOf(r planner.ConflictReport) dto.ConflictSummary {
	examiners := r.ExaminerConflicts
	if examiners == nil {
		examiners = []string{}
	}
	return dto.ConflictSummary{
		GroupConflicts:     r.GroupConflicts,
		ExaminerConflicts:  examiners,
		RoomConflicts:      r.RoomConflicts,
		HallConflicts:      r.HallConflicts,
		CapacityViolations: r.CapacityViolations,
		Clean:              r.Clean(),
	}
}

func toRunResponse(run *model.PlanningRun) *dto.PlanningRunResponse {
	report := planner.ConflictReport{
		GroupConflicts:     run.GroupConflicts,
		ExaminerConflicts:  run.ExaminerConflicts,
		RoomConflicts:      run.RoomConflicts,
		HallConflicts:      run.HallConflicts,
		CapacityViolations: run.CapacityViolations,
	}
	resp := &dto.PlanningRunResponse{
		ID:             run.RunID,
		Status:         run.Status,
		StartDate:      planner.DayOf(run.StartDate).String(),
		Days:           run.Days,
		Seed:           run.Seed,
		Limits: dto.RunLimits{
			DurationMinutes:  run.DurationMin,
			ExaminerDailyCap: run.ExaminerDailyCap,
			HallCapacity:     run.HallCapacity,
			SlotsPerDay:      run.SlotsPerDay,
		},
		Placed:         run.PlacedCount,
		UnplacedCount:  run.UnplacedCount,
		CommitFailures: run.CommitFailures,
		Unplaced: lo.Map(run.Unplaced, func(u model.UnplacedItem, _ int) dto.UnplacedResponse {
			return dto.UnplacedResponse{GroupID: u.GroupID, ModuleID: u.ModuleID, Reason: u.Reason}
		}),
		Conflicts:    ConflictSummaryOf(report),
		ErrorMessage: run.ErrorMessage,
		StartedAt:    run.StartedAt.Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		f := run.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &f
		resp.ElapsedMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	}
	return resp
}

// ── 落库适配 ──

// examCommitter 将引擎的安排写入 exams 表，带上运行 ID
type examCommitter struct {
	repo  repository.ExamRepository
	runID string
}

func (c *examCommitter) Commit(ctx context.Context, a planner.Assignment) error {
	exam := &model.Exam{
		RunID:       c.runID,
		ModuleID:    a.ModuleID,
		GroupID:     a.GroupID,
		ProfessorID: a.ExaminerID,
		RoomID:      a.RoomID,
		ExamDate:    a.Day.Time(),
		SlotID:      a.SlotID,
		DurationMin: a.Duration,
	}
	return c.repo.Create(ctx, exam)
}
