package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exam-planner/internal/model"
)

// ── Group ──

// GroupRepository 班组数据访问接口
type GroupRepository interface {
	Create(ctx context.Context, g *model.Group) error
	List(ctx context.Context) ([]model.Group, error)
	AddMembers(ctx context.Context, members []model.StudentGroup) error
	// CountMembers 返回每个班组的归属人数；无成员的班组不出现在结果中
	CountMembers(ctx context.Context) ([]model.GroupSize, error)
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo 创建 GroupRepository 实例
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) Create(ctx context.Context, g *model.Group) error {
	return r.db.WithContext(ctx).Create(g).Error
}

// List 目录顺序：名称升序，ID 兜底保证稳定
func (r *groupRepo) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Order("name ASC, group_id ASC").
		Find(&groups).Error
	return groups, err
}

func (r *groupRepo) AddMembers(ctx context.Context, members []model.StudentGroup) error {
	if len(members) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(members, 500).Error
}

func (r *groupRepo) CountMembers(ctx context.Context) ([]model.GroupSize, error) {
	var sizes []model.GroupSize
	err := r.db.WithContext(ctx).
		Model(&model.StudentGroup{}).
		Select("group_id, COUNT(*) AS size").
		Group("group_id").
		Scan(&sizes).Error
	return sizes, err
}

// ── Module ──

// ModuleRepository 课程模块数据访问接口
type ModuleRepository interface {
	Create(ctx context.Context, m *model.Module) error
	List(ctx context.Context) ([]model.Module, error)
}

type moduleRepo struct {
	db *gorm.DB
}

// NewModuleRepo 创建 ModuleRepository 实例
func NewModuleRepo(db *gorm.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

func (r *moduleRepo) Create(ctx context.Context, m *model.Module) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *moduleRepo) List(ctx context.Context) ([]model.Module, error) {
	var modules []model.Module
	err := r.db.WithContext(ctx).
		Order("name ASC, module_id ASC").
		Find(&modules).Error
	return modules, err
}

// ── Professor ──

// ProfessorRepository 教师数据访问接口
type ProfessorRepository interface {
	Create(ctx context.Context, p *model.Professor) error
	List(ctx context.Context) ([]model.Professor, error)
}

type professorRepo struct {
	db *gorm.DB
}

// NewProfessorRepo 创建 ProfessorRepository 实例
func NewProfessorRepo(db *gorm.DB) ProfessorRepository {
	return &professorRepo{db: db}
}

func (r *professorRepo) Create(ctx context.Context, p *model.Professor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *professorRepo) List(ctx context.Context) ([]model.Professor, error) {
	var list []model.Professor
	err := r.db.WithContext(ctx).
		Order("name ASC, professor_id ASC").
		Find(&list).Error
	return list, err
}

// ── ExamRoom ──

// RoomRepository 考场数据访问接口
type RoomRepository interface {
	Create(ctx context.Context, room *model.ExamRoom) error
	// List 按容量降序
	List(ctx context.Context) ([]model.ExamRoom, error)
}

type roomRepo struct {
	db *gorm.DB
}

// NewRoomRepo 创建 RoomRepository 实例
func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *model.ExamRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepo) List(ctx context.Context) ([]model.ExamRoom, error) {
	var rooms []model.ExamRoom
	err := r.db.WithContext(ctx).
		Order("capacity DESC, name ASC").
		Find(&rooms).Error
	return rooms, err
}

// ── TimeSlot ──

// TimeSlotRepository 考试时段数据访问接口
type TimeSlotRepository interface {
	Create(ctx context.Context, slot *model.TimeSlot) error
	// List 按 slot_id 升序
	List(ctx context.Context) ([]model.TimeSlot, error)
}

type timeSlotRepo struct {
	db *gorm.DB
}

// NewTimeSlotRepo 创建 TimeSlotRepository 实例
func NewTimeSlotRepo(db *gorm.DB) TimeSlotRepository {
	return &timeSlotRepo{db: db}
}

func (r *timeSlotRepo) Create(ctx context.Context, slot *model.TimeSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *timeSlotRepo) List(ctx context.Context) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Order("slot_id ASC").
		Find(&slots).Error
	return slots, err
}
