package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"exam-planner/internal/model"
	pkgerrors "exam-planner/pkg/errors"
)

// ExamRepository 考试安排数据访问接口
type ExamRepository interface {
	// Create 插入一场考试；违反唯一约束时返回 pkgerrors.ErrDuplicateExam
	Create(ctx context.Context, exam *model.Exam) error
	ListByRun(ctx context.Context, runID string) ([]model.Exam, error)
	ListDetails(ctx context.Context, filter model.ExamFilter) ([]model.ExamDetail, int64, error)
	CountByDepartment(ctx context.Context, runID string) ([]model.CountByKey, error)
	CountByDate(ctx context.Context, runID string) ([]model.CountByKey, error)
	CountByRoom(ctx context.Context, runID string) ([]model.CountByKey, error)
	CountByProfessor(ctx context.Context, runID string) ([]model.CountByKey, error)
}

type examRepo struct {
	db *gorm.DB
}

// NewExamRepo 创建 ExamRepository 实例
func NewExamRepo(db *gorm.DB) ExamRepository {
	return &examRepo{db: db}
}

func (r *examRepo) Create(ctx context.Context, exam *model.Exam) error {
	err := r.db.WithContext(ctx).Create(exam).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrDuplicateExam
	}
	return err
}

func (r *examRepo) ListByRun(ctx context.Context, runID string) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("exam_date ASC, slot_id ASC").
		Find(&exams).Error
	return exams, err
}

// detailQuery 联表查询考试明细
func (r *examRepo) detailQuery(ctx context.Context, runID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("exams AS e").
		Joins("JOIN groups g ON g.group_id = e.group_id").
		Joins("JOIN formations f ON f.formation_id = g.formation_id").
		Joins("JOIN departments d ON d.department_id = f.department_id").
		Joins("JOIN modules m ON m.module_id = e.module_id").
		Joins("JOIN professors p ON p.professor_id = e.professor_id").
		Joins("JOIN exam_rooms r ON r.room_id = e.room_id").
		Joins("LEFT JOIN time_slots ts ON ts.slot_id = e.slot_id").
		Where("e.run_id = ?", runID)
}

func (r *examRepo) ListDetails(ctx context.Context, filter model.ExamFilter) ([]model.ExamDetail, int64, error) {
	query := r.detailQuery(ctx, filter.RunID)

	if filter.DepartmentID != "" {
		query = query.Where("d.department_id = ?", filter.DepartmentID)
	}
	if filter.FormationID != "" {
		query = query.Where("f.formation_id = ?", filter.FormationID)
	}
	if filter.GroupID != "" {
		query = query.Where("e.group_id = ?", filter.GroupID)
	}
	if filter.ProfessorID != "" {
		query = query.Where("e.professor_id = ?", filter.ProfessorID)
	}
	if filter.Date != nil {
		query = query.Where("e.exam_date = ?", filter.Date.Format("2006-01-02"))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Select(`e.exam_id, e.run_id, e.group_id, g.name AS group_name,
		f.name AS formation_name, d.department_id, d.name AS department_name,
		m.name AS module_name, e.professor_id, p.name AS professor_name,
		e.room_id, r.name AS room_name, r.kind AS room_kind, r.capacity AS room_capacity,
		e.exam_date, e.slot_id, COALESCE(ts.label, '') AS slot_label, e.duration_min`).
		Order("e.exam_date ASC, e.slot_id ASC, g.name ASC")

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var list []model.ExamDetail
	err := query.Scan(&list).Error
	return list, total, err
}

func (r *examRepo) countBy(ctx context.Context, runID, key, label, group string) ([]model.CountByKey, error) {
	var counts []model.CountByKey
	err := r.detailQuery(ctx, runID).
		Select(key + " AS key, " + label + " AS label, COUNT(*) AS count").
		Group(group).
		Order("count DESC, label ASC").
		Scan(&counts).Error
	return counts, err
}

func (r *examRepo) CountByDepartment(ctx context.Context, runID string) ([]model.CountByKey, error) {
	return r.countBy(ctx, runID, "d.department_id", "d.name", "d.department_id, d.name")
}

func (r *examRepo) CountByDate(ctx context.Context, runID string) ([]model.CountByKey, error) {
	day := "to_char(e.exam_date, 'YYYY-MM-DD')"
	return r.countBy(ctx, runID, day, day, "e.exam_date")
}

func (r *examRepo) CountByRoom(ctx context.Context, runID string) ([]model.CountByKey, error) {
	return r.countBy(ctx, runID, "r.room_id", "r.name", "r.room_id, r.name")
}

func (r *examRepo) CountByProfessor(ctx context.Context, runID string) ([]model.CountByKey, error) {
	return r.countBy(ctx, runID, "p.professor_id", "p.name", "p.professor_id, p.name")
}
