package repository

import (
	"context"

	"gorm.io/gorm"

	"exam-planner/internal/model"
)

// DepartmentRepository 院系数据访问接口
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

// ── Formation ──

// FormationRepository 专业数据访问接口
type FormationRepository interface {
	Create(ctx context.Context, f *model.Formation) error
}

type formationRepo struct {
	db *gorm.DB
}

// NewFormationRepo 创建 FormationRepository 实例
func NewFormationRepo(db *gorm.DB) FormationRepository {
	return &formationRepo{db: db}
}

func (r *formationRepo) Create(ctx context.Context, f *model.Formation) error {
	return r.db.WithContext(ctx).Create(f).Error
}

