package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"exam-planner/internal/model"
	"exam-planner/internal/planner"
	"exam-planner/internal/repository"
)

type departmentRecord struct {
	ID   string `csv:"department_id"`
	Name string `csv:"name"`
}

type formationRecord struct {
	ID           string `csv:"formation_id"`
	DepartmentID string `csv:"department_id"`
	Name         string `csv:"name"`
}

// ImportStats 导入计数
type ImportStats struct {
	Departments int
	Formations  int
	Groups      int
	Members     int
	Modules     int
	Professors  int
	Rooms       int
	Slots       int
}

// Importer 将 CSV 目录写入数据库。
// CSV 中的 *_id 列只是文件内的引用键，入库后主键由数据库生成；slot_id 原样保留。
// 调用方负责包裹事务，任一行失败即整体回滚。
type Importer struct {
	repo   *repository.Repository
	files  *CSVLoader
	logger *zap.Logger
}

// NewImporter 创建 Importer
func NewImporter(repo *repository.Repository, dir string, delimiter rune, logger *zap.Logger) *Importer {
	return &Importer{repo: repo, files: NewCSVLoader(dir, delimiter, logger), logger: logger}
}

type catalogFiles struct {
	departments []*departmentRecord
	formations  []*formationRecord
	groups      []*groupRecord
	members     []*membershipRecord
	modules     []*moduleRecord
	professors  []*professorRecord
	rooms       []*roomRecord
	slots       []*slotRecord
}

// ════════════════════════════════════════════════════════════
// Import — 读取 → 校验引用 → 按依赖顺序写入
// ════════════════════════════════════════════════════════════

func (im *Importer) Import(ctx context.Context) (*ImportStats, error) {
	var f catalogFiles
	required := []struct {
		name string
		out  interface{}
	}{
		{DepartmentsFile, &f.departments},
		{FormationsFile, &f.formations},
		{GroupsFile, &f.groups},
		{ModulesFile, &f.modules},
		{ProfessorsFile, &f.professors},
		{RoomsFile, &f.rooms},
		{SlotsFile, &f.slots},
	}
	for _, r := range required {
		if err := im.files.read(r.name, r.out); err != nil {
			return nil, err
		}
	}
	if err := im.files.read(MembershipsFile, &f.members); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	if err := validateRefs(&f); err != nil {
		return nil, err
	}

	// 第二阶段：写入
	stats := &ImportStats{}

	deptIDs := make(map[string]string, len(f.departments))
	for _, d := range f.departments {
		dept := &model.Department{Name: d.Name}
		if err := im.repo.Department.Create(ctx, dept); err != nil {
			return nil, fmt.Errorf("写入院系 %s 失败: %w", d.Name, err)
		}
		deptIDs[d.ID] = dept.DepartmentID
		stats.Departments++
	}

	formationIDs := make(map[string]string, len(f.formations))
	for _, fr := range f.formations {
		formation := &model.Formation{DepartmentID: deptIDs[fr.DepartmentID], Name: fr.Name}
		if err := im.repo.Formation.Create(ctx, formation); err != nil {
			return nil, fmt.Errorf("写入专业 %s 失败: %w", fr.Name, err)
		}
		formationIDs[fr.ID] = formation.FormationID
		stats.Formations++
	}

	groupIDs := make(map[string]string, len(f.groups))
	for _, g := range f.groups {
		group := &model.Group{FormationID: formationIDs[g.FormationID], Name: g.Name}
		if err := im.repo.Group.Create(ctx, group); err != nil {
			return nil, fmt.Errorf("写入班组 %s 失败: %w", g.Name, err)
		}
		groupIDs[g.ID] = group.GroupID
		stats.Groups++
	}

	members := lo.Map(f.members, func(m *membershipRecord, _ int) model.StudentGroup {
		return model.StudentGroup{StudentID: m.StudentID, GroupID: groupIDs[m.GroupID]}
	})
	if err := im.repo.Group.AddMembers(ctx, members); err != nil {
		return nil, fmt.Errorf("写入班组成员失败: %w", err)
	}
	stats.Members = len(members)

	for _, m := range f.modules {
		module := &model.Module{FormationID: formationIDs[m.FormationID], Name: m.Name}
		if err := im.repo.Module.Create(ctx, module); err != nil {
			return nil, fmt.Errorf("写入模块 %s 失败: %w", m.Name, err)
		}
		stats.Modules++
	}

	for _, p := range f.professors {
		prof := &model.Professor{Name: p.Name}
		if p.DepartmentID != "" {
			id := deptIDs[p.DepartmentID]
			prof.DepartmentID = &id
		}
		if err := im.repo.Professor.Create(ctx, prof); err != nil {
			return nil, fmt.Errorf("写入教师 %s 失败: %w", p.Name, err)
		}
		stats.Professors++
	}

	for _, r := range f.rooms {
		kind, _ := parseRoomKind(r.Kind) // 已在预校验中检查
		room := &model.ExamRoom{Name: r.Name, Capacity: r.Capacity, Kind: modelRoomKind(kind)}
		if err := im.repo.Room.Create(ctx, room); err != nil {
			return nil, fmt.Errorf("写入考场 %s 失败: %w", r.Name, err)
		}
		stats.Rooms++
	}

	for _, s := range f.slots {
		slot := &model.TimeSlot{SlotID: s.ID, Label: s.Label}
		if err := im.repo.TimeSlot.Create(ctx, slot); err != nil {
			return nil, fmt.Errorf("写入时段 %d 失败: %w", s.ID, err)
		}
		stats.Slots++
	}

	im.logger.Info("目录导入完成",
		zap.Int("departments", stats.Departments),
		zap.Int("formations", stats.Formations),
		zap.Int("groups", stats.Groups),
		zap.Int("members", stats.Members),
		zap.Int("modules", stats.Modules),
		zap.Int("professors", stats.Professors),
		zap.Int("rooms", stats.Rooms),
		zap.Int("slots", stats.Slots),
	)
	return stats, nil
}

// validateRefs 检查文件间引用、考场类型与时段编号
func validateRefs(f *catalogFiles) error {
	depts := lo.SliceToMap(f.departments, func(d *departmentRecord) (string, bool) { return d.ID, true })
	formations := lo.SliceToMap(f.formations, func(fr *formationRecord) (string, bool) { return fr.ID, true })
	groups := lo.SliceToMap(f.groups, func(g *groupRecord) (string, bool) { return g.ID, true })

	for _, fr := range f.formations {
		if !depts[fr.DepartmentID] {
			return fmt.Errorf("%w: 专业 %s 引用了不存在的院系 %s", ErrInvalidRecord, fr.ID, fr.DepartmentID)
		}
	}
	for _, g := range f.groups {
		if !formations[g.FormationID] {
			return fmt.Errorf("%w: 班组 %s 引用了不存在的专业 %s", ErrInvalidRecord, g.ID, g.FormationID)
		}
	}
	for _, m := range f.members {
		if !groups[m.GroupID] {
			return fmt.Errorf("%w: 学生 %s 引用了不存在的班组 %s", ErrInvalidRecord, m.StudentID, m.GroupID)
		}
	}
	for _, m := range f.modules {
		if !formations[m.FormationID] {
			return fmt.Errorf("%w: 模块 %s 引用了不存在的专业 %s", ErrInvalidRecord, m.ID, m.FormationID)
		}
	}
	for _, p := range f.professors {
		if p.DepartmentID != "" && !depts[p.DepartmentID] {
			return fmt.Errorf("%w: 教师 %s 引用了不存在的院系 %s", ErrInvalidRecord, p.ID, p.DepartmentID)
		}
	}
	for _, r := range f.rooms {
		if _, err := parseRoomKind(r.Kind); err != nil {
			return fmt.Errorf("%s 考场 %s: %w", RoomsFile, r.ID, err)
		}
		if r.Capacity < 0 {
			return fmt.Errorf("%w: 考场 %s 容量为负", ErrInvalidRecord, r.ID)
		}
	}
	for _, s := range f.slots {
		if s.ID <= 0 {
			return fmt.Errorf("%w: 时段编号必须为正整数，实际 %d", ErrInvalidRecord, s.ID)
		}
	}
	return nil
}

func modelRoomKind(k planner.RoomKind) string {
	if k == planner.RoomSharedHall {
		return model.RoomKindHall
	}
	return model.RoomKindStandard
}
