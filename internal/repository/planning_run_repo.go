package repository

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"exam-planner/internal/model"
	pkgerrors "exam-planner/pkg/errors"
)

// PlanningRunRepository 排考运行数据访问接口
type PlanningRunRepository interface {
	Create(ctx context.Context, run *model.PlanningRun) error
	GetByID(ctx context.Context, id string) (*model.PlanningRun, error)
	GetLatest(ctx context.Context) (*model.PlanningRun, error)
	// Update 乐观锁更新，版本不匹配时返回 pkgerrors.ErrOptimisticLock
	Update(ctx context.Context, run *model.PlanningRun) error
}

type planningRunRepo struct {
	db *gorm.DB
}

// NewPlanningRunRepo 创建 PlanningRunRepository 实例
func NewPlanningRunRepo(db *gorm.DB) PlanningRunRepository {
	return &planningRunRepo{db: db}
}

func (r *planningRunRepo) Create(ctx context.Context, run *model.PlanningRun) error {
	if run.Unplaced == nil {
		run.Unplaced = []model.UnplacedItem{}
	}
	if run.ExaminerConflicts == nil {
		run.ExaminerConflicts = []string{}
	}
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *planningRunRepo) GetByID(ctx context.Context, id string) (*model.PlanningRun, error) {
	var run model.PlanningRun
	err := r.db.WithContext(ctx).
		Where("run_id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *planningRunRepo) GetLatest(ctx context.Context) (*model.PlanningRun, error) {
	var run model.PlanningRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *planningRunRepo) Update(ctx context.Context, run *model.PlanningRun) error {
	oldVersion := run.Version
	result := r.db.WithContext(ctx).
		Model(&model.PlanningRun{}).
		Where("run_id = ? AND version = ?", run.RunID, oldVersion).
		Updates(map[string]interface{}{
			"status":              run.Status,
			"placed_count":        run.PlacedCount,
			"unplaced_count":      run.UnplacedCount,
			"commit_failures":     run.CommitFailures,
			"group_conflicts":     run.GroupConflicts,
			"examiner_conflicts":  jsonColumn(run.ExaminerConflicts),
			"room_conflicts":      run.RoomConflicts,
			"hall_conflicts":      run.HallConflicts,
			"capacity_violations": run.CapacityViolations,
			"unplaced":            jsonColumn(run.Unplaced),
			"error_message":       run.ErrorMessage,
			"finished_at":         run.FinishedAt,
			"version":             oldVersion + 1,
			"updated_at":          gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	run.Version = oldVersion + 1
	return nil
}

// jsonColumn map 形式的 Updates 不经过 serializer，jsonb 列需手动编码；nil 切片编码为 []
func jsonColumn[T any](items []T) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
