package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"exam-planner/config"
	"exam-planner/internal/dto"
	"exam-planner/internal/model"
	"exam-planner/internal/planner"
	"exam-planner/internal/repository"
	"exam-planner/pkg/metrics"
	"exam-planner/pkg/redis"
)

// ── 测试辅助 ──

func testConfig() *config.Config {
	return &config.Config{
		Redis: config.RedisConfig{LockTTL: time.Minute, CacheTTL: time.Minute},
		Planner: config.PlannerConfig{
			StartDate:        "2025-01-10",
			Days:             5,
			DurationMinutes:  90,
			ExaminerDailyCap: 3,
			HallCapacity:     2,
			SlotsPerDay:      4,
			Seed:             7,
		},
		Export: config.ExportConfig{Delimiter: ","},
	}
}

// testCatalog 两个班组共享一个专业的两门模块，另有一个无模块的班组
func testCatalog() *planner.Catalog {
	return &planner.Catalog{
		Groups: []planner.Group{
			{ID: "g1", ProgramID: "info", Name: "Info-A", Size: 25},
			{ID: "g2", ProgramID: "info", Name: "Info-B", Size: 30},
			{ID: "g3", ProgramID: "empty", Name: "Orphan", Size: 10},
		},
		Modules: []planner.Module{
			{ID: "m1", ProgramID: "info", Name: "Algo"},
			{ID: "m2", ProgramID: "info", Name: "BD"},
		},
		Examiners: []planner.Examiner{{ID: "p1", Name: "Martin"}, {ID: "p2", Name: "Durand"}},
		Rooms: []planner.Room{
			{ID: "r1", Name: "S101", Capacity: 40, Kind: planner.RoomStandard},
			{ID: "r2", Name: "Amphi", Capacity: 200, Kind: planner.RoomSharedHall},
		},
		Slots: []planner.Slot{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
	}
}

type planningFixture struct {
	svc    PlanningService
	cfg    *config.Config
	exams  *mockExamRepo
	runs   *mockPlanningRunRepo
	loader *stubLoader
	store  *mockRunStore
	reg    *prometheus.Registry
}

func setupTestPlanningService(withStore bool) *planningFixture {
	return newPlanningFixture(testConfig(), withStore, nil)
}

// newPlanningFixture wrap 非 nil 时用其包装考试仓储
func newPlanningFixture(cfg *config.Config, withStore bool, wrap func(*mockExamRepo) repository.ExamRepository) *planningFixture {
	f := &planningFixture{
		cfg:    cfg,
		exams:  newMockExamRepo(),
		runs:   newMockPlanningRunRepo(),
		loader: &stubLoader{catalog: testCatalog()},
		reg:    prometheus.NewRegistry(),
	}
	var exams repository.ExamRepository = f.exams
	if wrap != nil {
		exams = wrap(f.exams)
	}
	repo := &repository.Repository{Exam: exams, PlanningRun: f.runs}
	m, _ := metrics.NewPlannerMetrics(f.reg)

	var store RunStore
	if withStore {
		f.store = &mockRunStore{}
		store = f.store
	}
	f.svc = NewPlanningService(cfg, repo, f.loader, store, m, zap.NewNop())
	return f
}

// ── Run 测试 ──

func TestPlanningService_Run_Success(t *testing.T) {
	f := setupTestPlanningService(true)

	resp, err := f.svc.Run(context.Background(), &dto.RunPlanningRequest{})
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}

	if resp.Status != model.RunStatusCompleted {
		t.Errorf("状态期望 completed, 实际 %s", resp.Status)
	}
	if resp.Placed != 4 {
		t.Errorf("期望排入 4 场, 实际 %d", resp.Placed)
	}
	if resp.UnplacedCount != 1 || resp.Unplaced[0].GroupID != "g3" || resp.Unplaced[0].Reason != string(planner.ReasonNoModules) {
		t.Errorf("未排项不符: %+v", resp.Unplaced)
	}
	if !resp.Conflicts.Clean {
		t.Errorf("期望无冲突: %+v", resp.Conflicts)
	}
	if resp.Seed != 7 || resp.StartDate != "2025-01-10" || resp.Days != 5 {
		t.Errorf("运行参数不符: %+v", resp)
	}
	if len(f.exams.exams) != 4 {
		t.Errorf("期望落库 4 场, 实际 %d", len(f.exams.exams))
	}
	for _, e := range f.exams.exams {
		if e.RunID != resp.ID {
			t.Errorf("考试未关联运行 ID: %+v", e)
		}
		if e.DurationMin != 90 {
			t.Errorf("时长期望 90, 实际 %d", e.DurationMin)
		}
	}

	// 锁已释放，摘要已缓存
	if f.store.held || f.store.released != 1 {
		t.Errorf("运行锁未释放: held=%v released=%d", f.store.held, f.store.released)
	}
	if len(f.store.latest) == 0 {
		t.Error("运行摘要未缓存")
	}

	stored, _ := f.runs.GetByID(context.Background(), resp.ID)
	if stored.Status != model.RunStatusCompleted || stored.FinishedAt == nil || stored.PlacedCount != 4 {
		t.Errorf("运行记录未更新: %+v", stored)
	}

	expected := `
# HELP planner_exams_placed_total Total number of exams placed
# TYPE planner_exams_placed_total counter
planner_exams_placed_total 4
`
	if err := testutil.GatherAndCompare(f.reg, strings.NewReader(expected), "planner_exams_placed_total"); err != nil {
		t.Errorf("placed 指标不符: %v", err)
	}
}

func TestPlanningService_Run_CommitFailureRecovered(t *testing.T) {
	f := setupTestPlanningService(false)
	f.exams.failNext = 2
	f.exams.failErr = errors.New("connection reset")

	resp, err := f.svc.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("落库失败不应中断运行: %v", err)
	}
	if resp.CommitFailures != 2 {
		t.Errorf("期望 2 次落库失败, 实际 %d", resp.CommitFailures)
	}
	if resp.Placed != 4 {
		t.Errorf("失败后应在后续时段排入, 实际排入 %d", resp.Placed)
	}
	if len(f.exams.exams) != resp.Placed {
		t.Errorf("落库数 %d 与排入数 %d 不一致", len(f.exams.exams), resp.Placed)
	}
}

func TestPlanningService_Run_RequestOverrides(t *testing.T) {
	f := setupTestPlanningService(false)

	resp, err := f.svc.Run(context.Background(), &dto.RunPlanningRequest{StartDate: "2025-06-02", Days: 1, Seed: 99})
	if err != nil {
		t.Fatalf("Run 失败: %v", err)
	}
	if resp.StartDate != "2025-06-02" || resp.Days != 1 || resp.Seed != 99 {
		t.Errorf("请求参数未生效: %+v", resp)
	}
	// 1 天窗口内每个班组至多一场
	if resp.Placed != 2 {
		t.Errorf("期望排入 2 场, 实际 %d", resp.Placed)
	}
	for _, e := range f.exams.exams {
		if planner.DayOf(e.ExamDate) != "2025-06-02" {
			t.Errorf("考试日期超出窗口: %v", e.ExamDate)
		}
	}
}

func TestPlanningService_Run_InvalidStartDate(t *testing.T) {
	f := setupTestPlanningService(false)

	_, err := f.svc.Run(context.Background(), &dto.RunPlanningRequest{StartDate: "02/06/2025"})
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("期望 ErrInvalidOptions, 实际 %v", err)
	}
	if f.loader.calls != 0 {
		t.Error("参数无效时不应加载目录")
	}
}

func TestPlanningService_Run_EmptyCatalog(t *testing.T) {
	f := setupTestPlanningService(false)
	f.loader.catalog = &planner.Catalog{Groups: testCatalog().Groups}

	_, err := f.svc.Run(context.Background(), nil)
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("期望 ErrEmptyCatalog, 实际 %v", err)
	}
	if len(f.runs.runs) != 0 {
		t.Error("目录为空时不应创建运行记录")
	}
}

func TestPlanningService_Run_LockHeld(t *testing.T) {
	f := setupTestPlanningService(true)
	f.store.lockErr = redis.ErrLockHeld

	_, err := f.svc.Run(context.Background(), nil)
	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("期望 ErrRunInProgress, 实际 %v", err)
	}
}

func TestPlanningService_Run_RedisDownDegrades(t *testing.T) {
	f := setupTestPlanningService(true)
	f.store.lockErr = errors.New("dial tcp: connection refused")

	if _, err := f.svc.Run(context.Background(), nil); err != nil {
		t.Errorf("Redis 异常应降级继续, 实际 %v", err)
	}
}

func TestPlanningService_Run_InProcessMutex(t *testing.T) {
	f := setupTestPlanningService(false)
	impl := f.svc.(*planningService)

	impl.mu.Lock()
	_, err := f.svc.Run(context.Background(), nil)
	impl.mu.Unlock()

	if !errors.Is(err, ErrRunInProgress) {
		t.Errorf("期望 ErrRunInProgress, 实际 %v", err)
	}
}

func TestPlanningService_RunsAreIsolated(t *testing.T) {
	f := setupTestPlanningService(false)
	ctx := context.Background()

	first, err := f.svc.Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID == second.ID {
		t.Fatal("两次运行 ID 相同")
	}
	if second.Placed != 4 || second.CommitFailures != 0 {
		t.Errorf("第二次运行不应受第一次影响: %+v", second)
	}
	a, _ := f.exams.ListByRun(ctx, first.ID)
	b, _ := f.exams.ListByRun(ctx, second.ID)
	if len(a) != 4 || len(b) != 4 {
		t.Errorf("运行间考试数不符: %d / %d", len(a), len(b))
	}
}

// ── 中断与持久化失败 ──

func TestPlanningService_Run_CallerCancelledStillCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newPlanningFixture(testConfig(), true, func(m *mockExamRepo) repository.ExamRepository {
		// 首场落库后调用方断开
		return &ctxExamRepo{mockExamRepo: m, afterFirst: cancel}
	})

	resp, err := f.svc.Run(ctx, nil)
	if err != nil {
		t.Fatalf("调用方取消不应中断运行: %v", err)
	}
	if resp.Placed != 4 || resp.CommitFailures != 0 {
		t.Errorf("期望排入 4 场且无落库失败, 实际 %+v", resp)
	}
	for _, u := range resp.Unplaced {
		if u.Reason == string(planner.ReasonNoSlotFound) {
			t.Errorf("不应出现 no_slot_found: %+v", u)
		}
	}

	stored, _ := f.runs.GetByID(context.Background(), resp.ID)
	if stored.Status != model.RunStatusCompleted || stored.FinishedAt == nil {
		t.Errorf("运行记录应为 completed: %+v", stored)
	}
	if len(f.exams.exams) != 4 {
		t.Errorf("期望落库 4 场, 实际 %d", len(f.exams.exams))
	}
	if len(f.store.latest) == 0 {
		t.Error("运行摘要未缓存")
	}
}

func TestPlanningService_Run_TimeoutMarksFailed(t *testing.T) {
	cfg := testConfig()
	cfg.Redis.LockTTL = 50 * time.Millisecond
	f := newPlanningFixture(cfg, true, func(m *mockExamRepo) repository.ExamRepository {
		// 第二场落库卡住直到超出运行时限
		return &ctxExamRepo{mockExamRepo: m, blockAt: 2}
	})

	_, err := f.svc.Run(context.Background(), nil)
	if !errors.Is(err, ErrRunInterrupted) {
		t.Fatalf("期望 ErrRunInterrupted, 实际 %v", err)
	}

	if len(f.runs.runs) != 1 {
		t.Fatalf("期望 1 条运行记录, 实际 %d", len(f.runs.runs))
	}
	for _, stored := range f.runs.runs {
		if stored.Status != model.RunStatusFailed || stored.FinishedAt == nil {
			t.Errorf("超时运行应标记为 failed: %+v", stored)
		}
		if stored.ErrorMessage == "" {
			t.Error("失败原因未记录")
		}
		// 已落库的部分计入运行记录
		if stored.PlacedCount != 1 || stored.CommitFailures != 1 {
			t.Errorf("期望已排 1 场、失败 1 次, 实际 placed=%d failures=%d", stored.PlacedCount, stored.CommitFailures)
		}
		for _, u := range stored.Unplaced {
			if u.Reason == string(planner.ReasonNoSlotFound) {
				t.Errorf("中断的班组不应记为 no_slot_found: %+v", u)
			}
		}
	}
	if f.store.held {
		t.Error("运行锁未释放")
	}
}

func TestPlanningService_Run_UpdateFailureMarksFailed(t *testing.T) {
	f := setupTestPlanningService(false)
	f.runs.failUpdates = 1
	f.runs.updateErr = errors.New("connection reset")

	_, err := f.svc.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("保存结果失败时应返回错误")
	}

	for _, stored := range f.runs.runs {
		if stored.Status != model.RunStatusFailed || stored.FinishedAt == nil {
			t.Errorf("运行记录应标记为 failed: %+v", stored)
		}
		if !strings.Contains(stored.ErrorMessage, "connection reset") {
			t.Errorf("失败原因不符: %q", stored.ErrorMessage)
		}
		if stored.PlacedCount != 4 {
			t.Errorf("期望记录已排 4 场, 实际 %d", stored.PlacedCount)
		}
	}
}

// ── GetRun / GetLatestRun 测试 ──

func TestPlanningService_GetRun(t *testing.T) {
	f := setupTestPlanningService(false)
	ctx := context.Background()

	if _, err := f.svc.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("期望 ErrRunNotFound, 实际 %v", err)
	}

	created, _ := f.svc.Run(ctx, nil)
	got, err := f.svc.GetRun(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetRun 失败: %v", err)
	}
	if got.Placed != created.Placed || got.UnplacedCount != created.UnplacedCount || got.FinishedAt == nil {
		t.Errorf("查询结果与运行结果不一致: %+v", got)
	}
}

func TestPlanningService_GetLatestRun_Cache(t *testing.T) {
	f := setupTestPlanningService(true)
	ctx := context.Background()

	if _, err := f.svc.GetLatestRun(ctx); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("无运行时期望 ErrRunNotFound, 实际 %v", err)
	}

	cached, _ := json.Marshal(dto.PlanningRunResponse{ID: "cached-run", Status: model.RunStatusCompleted})
	f.store.latest = cached

	got, err := f.svc.GetLatestRun(ctx)
	if err != nil {
		t.Fatalf("GetLatestRun 失败: %v", err)
	}
	if got.ID != "cached-run" {
		t.Errorf("期望命中缓存, 实际 %s", got.ID)
	}
}

func TestPlanningService_GetLatestRun_FromRepo(t *testing.T) {
	f := setupTestPlanningService(false)
	ctx := context.Background()

	created, _ := f.svc.Run(ctx, nil)
	got, err := f.svc.GetLatestRun(ctx)
	if err != nil {
		t.Fatalf("GetLatestRun 失败: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("期望 %s, 实际 %s", created.ID, got.ID)
	}
}

// ── CheckConflicts 测试 ──

func TestPlanningService_CheckConflicts(t *testing.T) {
	f := setupTestPlanningService(false)
	ctx := context.Background()

	if _, err := f.svc.CheckConflicts(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("期望 ErrRunNotFound, 实际 %v", err)
	}

	run, _ := f.svc.Run(ctx, nil)
	summary, err := f.svc.CheckConflicts(ctx, run.ID)
	if err != nil {
		t.Fatalf("CheckConflicts 失败: %v", err)
	}
	if !summary.Clean {
		t.Errorf("正常运行结果应无冲突: %+v", summary)
	}

	// 绕过唯一约束写入一场同日考试
	first := f.exams.exams[0]
	dup := *first
	dup.ExamID = "injected"
	dup.ModuleID = "m-extra"
	dup.SlotID = first.SlotID + 1
	f.exams.exams = append(f.exams.exams, &dup)

	summary, err = f.svc.CheckConflicts(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.GroupConflicts != 1 || summary.Clean {
		t.Errorf("期望 1 个班组冲突, 实际 %+v", summary)
	}
}

func TestPlanningService_CheckConflicts_UsesRunLimits(t *testing.T) {
	f := setupTestPlanningService(false)
	ctx := context.Background()

	run, err := f.svc.Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if run.Limits.ExaminerDailyCap != 3 || run.Limits.HallCapacity != 2 {
		t.Errorf("运行上限未记录: %+v", run.Limits)
	}

	// 同一教师当天再监考一场（班组、考场不在目录中，只触发教师检查）
	first := f.exams.exams[0]
	inject := func(n int) {
		for i := 0; i < n; i++ {
			e := *first
			e.ExamID = fmt.Sprintf("extra-%d-%d", len(f.exams.exams), i)
			e.GroupID = fmt.Sprintf("g-extra-%d", len(f.exams.exams))
			e.RoomID = "r-extra"
			f.exams.exams = append(f.exams.exams, &e)
		}
	}
	inject(1)

	// 运行后收紧配置不影响审计
	f.cfg.Planner.ExaminerDailyCap = 1
	f.cfg.Planner.HallCapacity = 1

	summary, err := f.svc.CheckConflicts(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Clean {
		t.Errorf("按运行时上限 3 应无冲突: %+v", summary)
	}

	// 当天至少 4 场，超出运行时上限
	inject(2)
	summary, err = f.svc.CheckConflicts(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.ExaminerConflicts) != 1 || summary.ExaminerConflicts[0] != first.ProfessorID {
		t.Errorf("期望教师 %s 超出上限, 实际 %+v", first.ProfessorID, summary)
	}
}
