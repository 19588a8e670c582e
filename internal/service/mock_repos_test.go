package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"exam-planner/internal/model"
	"exam-planner/internal/planner"
	pkgerrors "exam-planner/pkg/errors"
)

// ── Mock ExamRepository ──

type mockExamRepo struct {
	exams    []*model.Exam
	seq      int
	failNext int // 接下来 N 次 Create 返回 failErr
	failErr  error
	creates  int
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{}
}

func (m *mockExamRepo) Create(_ context.Context, exam *model.Exam) error {
	m.creates++
	if m.failNext > 0 {
		m.failNext--
		return m.failErr
	}
	for _, e := range m.exams {
		if e.RunID != exam.RunID || e.GroupID != exam.GroupID {
			continue
		}
		if e.ModuleID == exam.ModuleID || e.ExamDate.Equal(exam.ExamDate) {
			return pkgerrors.ErrDuplicateExam
		}
	}
	m.seq++
	exam.ExamID = fmt.Sprintf("exam-%03d", m.seq)
	m.exams = append(m.exams, exam)
	return nil
}

func (m *mockExamRepo) ListByRun(_ context.Context, runID string) ([]model.Exam, error) {
	var result []model.Exam
	for _, e := range m.exams {
		if e.RunID == runID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExamRepo) details(runID string) []model.ExamDetail {
	var result []model.ExamDetail
	for _, e := range m.exams {
		if e.RunID != runID {
			continue
		}
		result = append(result, model.ExamDetail{
			ExamID:         e.ExamID,
			RunID:          e.RunID,
			GroupID:        e.GroupID,
			GroupName:      "G-" + e.GroupID,
			DepartmentID:   "dept-1",
			DepartmentName: "Informatique",
			ModuleName:     "M-" + e.ModuleID,
			ProfessorID:    e.ProfessorID,
			ProfessorName:  "P-" + e.ProfessorID,
			RoomID:         e.RoomID,
			RoomName:       "R-" + e.RoomID,
			ExamDate:       e.ExamDate,
			SlotID:         e.SlotID,
			DurationMin:    e.DurationMin,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].ExamDate.Equal(result[j].ExamDate) {
			return result[i].ExamDate.Before(result[j].ExamDate)
		}
		return result[i].SlotID < result[j].SlotID
	})
	return result
}

func (m *mockExamRepo) ListDetails(_ context.Context, f model.ExamFilter) ([]model.ExamDetail, int64, error) {
	list := lo.Filter(m.details(f.RunID), func(d model.ExamDetail, _ int) bool {
		if f.GroupID != "" && d.GroupID != f.GroupID {
			return false
		}
		if f.ProfessorID != "" && d.ProfessorID != f.ProfessorID {
			return false
		}
		if f.Date != nil && !d.ExamDate.Equal(*f.Date) {
			return false
		}
		return true
	})
	total := int64(len(list))
	if f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start > len(list) {
			start = len(list)
		}
		end := start + f.PageSize
		if end > len(list) {
			end = len(list)
		}
		list = list[start:end]
	}
	return list, total, nil
}

func (m *mockExamRepo) countBy(runID string, key func(d model.ExamDetail) (string, string)) []model.CountByKey {
	counts := make(map[string]*model.CountByKey)
	var order []string
	for _, d := range m.details(runID) {
		k, label := key(d)
		if _, ok := counts[k]; !ok {
			counts[k] = &model.CountByKey{Key: k, Label: label}
			order = append(order, k)
		}
		counts[k].Count++
	}
	return lo.Map(order, func(k string, _ int) model.CountByKey { return *counts[k] })
}

func (m *mockExamRepo) CountByDepartment(_ context.Context, runID string) ([]model.CountByKey, error) {
	return m.countBy(runID, func(d model.ExamDetail) (string, string) { return d.DepartmentID, d.DepartmentName }), nil
}

func (m *mockExamRepo) CountByDate(_ context.Context, runID string) ([]model.CountByKey, error) {
	return m.countBy(runID, func(d model.ExamDetail) (string, string) {
		day := d.ExamDate.Format("2006-01-02")
		return day, day
	}), nil
}

func (m *mockExamRepo) CountByRoom(_ context.Context, runID string) ([]model.CountByKey, error) {
	return m.countBy(runID, func(d model.ExamDetail) (string, string) { return d.RoomID, d.RoomName }), nil
}

func (m *mockExamRepo) CountByProfessor(_ context.Context, runID string) ([]model.CountByKey, error) {
	return m.countBy(runID, func(d model.ExamDetail) (string, string) { return d.ProfessorID, d.ProfessorName }), nil
}

// ctxExamRepo 与数据库驱动一致：ctx 结束后写入返回 ctx 错误。
// afterFirst 在首次写入成功后调用；blockAt > 0 时第 blockAt 次写入阻塞到 ctx 结束。
type ctxExamRepo struct {
	*mockExamRepo
	afterFirst func()
	blockAt    int
	attempts   int
}

func (r *ctxExamRepo) Create(ctx context.Context, exam *model.Exam) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.attempts++
	if r.attempts == r.blockAt {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := r.mockExamRepo.Create(ctx, exam); err != nil {
		return err
	}
	if r.attempts == 1 && r.afterFirst != nil {
		r.afterFirst()
	}
	return nil
}

// ── Mock PlanningRunRepository ──

type mockPlanningRunRepo struct {
	runs        map[string]*model.PlanningRun
	seq         int
	failUpdates int // 接下来 N 次 Update 返回 updateErr
	updateErr   error
}

func newMockPlanningRunRepo() *mockPlanningRunRepo {
	return &mockPlanningRunRepo{runs: make(map[string]*model.PlanningRun)}
}

func (m *mockPlanningRunRepo) Create(_ context.Context, run *model.PlanningRun) error {
	m.seq++
	if run.RunID == "" {
		run.RunID = fmt.Sprintf("run-%d", m.seq)
	}
	run.Version = 1
	cp := *run
	m.runs[run.RunID] = &cp
	return nil
}

func (m *mockPlanningRunRepo) GetByID(_ context.Context, id string) (*model.PlanningRun, error) {
	if r, ok := m.runs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanningRunRepo) GetLatest(_ context.Context) (*model.PlanningRun, error) {
	var latest *model.PlanningRun
	for _, r := range m.runs {
		if latest == nil || r.StartedAt.After(latest.StartedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockPlanningRunRepo) Update(_ context.Context, run *model.PlanningRun) error {
	if m.failUpdates > 0 {
		m.failUpdates--
		return m.updateErr
	}
	stored, ok := m.runs[run.RunID]
	if !ok || stored.Version != run.Version {
		return pkgerrors.ErrOptimisticLock
	}
	run.Version++
	cp := *run
	m.runs[run.RunID] = &cp
	return nil
}

// ── Stub catalog.Loader ──

type stubLoader struct {
	catalog *planner.Catalog
	err     error
	calls   int
}

func (l *stubLoader) Load(_ context.Context) (*planner.Catalog, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	// 每次返回副本，模拟重新加载
	c := *l.catalog
	c.Rooms = append([]planner.Room(nil), l.catalog.Rooms...)
	c.Slots = append([]planner.Slot(nil), l.catalog.Slots...)
	return &c, nil
}

// ── Mock RunStore ──

type mockRunStore struct {
	mu       sync.Mutex
	held     bool
	lockErr  error
	latest   []byte
	released int
}

func (s *mockRunStore) AcquireRunLock(_ context.Context, _ time.Duration) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	s.held = true
	return func() {
		s.mu.Lock()
		s.held = false
		s.released++
		s.mu.Unlock()
	}, nil
}

func (s *mockRunStore) SetLatestRun(_ context.Context, payload []byte, _ time.Duration) error {
	s.latest = payload
	return nil
}

func (s *mockRunStore) GetLatestRun(_ context.Context) ([]byte, error) {
	return s.latest, nil
}
