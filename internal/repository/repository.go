package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Department  DepartmentRepository
	Formation   FormationRepository
	Group       GroupRepository
	Module      ModuleRepository
	Professor   ProfessorRepository
	Room        RoomRepository
	TimeSlot    TimeSlotRepository
	Exam        ExamRepository
	PlanningRun PlanningRunRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Department:  NewDepartmentRepo(db),
		Formation:   NewFormationRepo(db),
		Group:       NewGroupRepo(db),
		Module:      NewModuleRepo(db),
		Professor:   NewProfessorRepo(db),
		Room:        NewRoomRepo(db),
		TimeSlot:    NewTimeSlotRepo(db),
		Exam:        NewExamRepo(db),
		PlanningRun: NewPlanningRunRepo(db),
	}
}
