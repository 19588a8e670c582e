package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"exam-planner/internal/planner"
)

// 目录 CSV 文件名
const (
	GroupsFile      = "groups.csv"
	MembershipsFile = "memberships.csv"
	ModulesFile     = "modules.csv"
	ProfessorsFile  = "professors.csv"
	RoomsFile       = "rooms.csv"
	SlotsFile       = "slots.csv"

	// 以下两个文件仅在导入数据库时需要
	DepartmentsFile = "departments.csv"
	FormationsFile  = "formations.csv"
)

type groupRecord struct {
	ID          string `csv:"group_id"`
	FormationID string `csv:"formation_id"`
	Name        string `csv:"name"`
	Size        int    `csv:"size"`
}

type membershipRecord struct {
	StudentID string `csv:"student_id"`
	GroupID   string `csv:"group_id"`
}

type moduleRecord struct {
	ID          string `csv:"module_id"`
	FormationID string `csv:"formation_id"`
	Name        string `csv:"name"`
}

type professorRecord struct {
	ID           string `csv:"professor_id"`
	Name         string `csv:"name"`
	DepartmentID string `csv:"department_id"` // 可选列，仅导入时使用
}

type roomRecord struct {
	ID       string `csv:"room_id"`
	Name     string `csv:"name"`
	Capacity int    `csv:"capacity"`
	Kind     string `csv:"kind"`
}

type slotRecord struct {
	ID    int    `csv:"slot_id"`
	Label string `csv:"label"`
}

// CSVLoader 从目录中的 CSV 文件加载目录（离线模式）。
// memberships.csv 可选：存在时班组人数按归属行数计算，否则取 groups.csv 的 size 列。
type CSVLoader struct {
	dir       string
	delimiter rune
	logger    *zap.Logger
}

// NewCSVLoader 创建 CSVLoader；delimiter 为 0 时使用逗号
func NewCSVLoader(dir string, delimiter rune, logger *zap.Logger) *CSVLoader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVLoader{dir: dir, delimiter: delimiter, logger: logger}
}

// Load 读取全部 CSV 文件
func (l *CSVLoader) Load(_ context.Context) (*planner.Catalog, error) {
	var (
		groups     []*groupRecord
		members    []*membershipRecord
		modules    []*moduleRecord
		professors []*professorRecord
		rooms      []*roomRecord
		slots      []*slotRecord
	)

	required := []struct {
		name string
		out  interface{}
	}{
		{GroupsFile, &groups},
		{ModulesFile, &modules},
		{ProfessorsFile, &professors},
		{RoomsFile, &rooms},
		{SlotsFile, &slots},
	}
	for _, f := range required {
		if err := l.read(f.name, f.out); err != nil {
			return nil, err
		}
	}

	hasMembers := true
	if err := l.read(MembershipsFile, &members); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		hasMembers = false
	}

	c := &planner.Catalog{
		Modules: lo.Map(modules, func(m *moduleRecord, _ int) planner.Module {
			return planner.Module{ID: m.ID, ProgramID: m.FormationID, Name: m.Name}
		}),
		Examiners: lo.Map(professors, func(p *professorRecord, _ int) planner.Examiner {
			return planner.Examiner{ID: p.ID, Name: p.Name}
		}),
		Slots: lo.Map(slots, func(s *slotRecord, _ int) planner.Slot {
			return planner.Slot{ID: s.ID, Label: s.Label}
		}),
	}

	sizes := lo.CountValuesBy(members, func(m *membershipRecord) string { return m.GroupID })
	for _, g := range groups {
		size := g.Size
		if hasMembers {
			size = sizes[g.ID]
		}
		if size < 0 {
			return nil, fmt.Errorf("%w: 班组 %s 人数为负", ErrInvalidRecord, g.ID)
		}
		c.Groups = append(c.Groups, planner.Group{ID: g.ID, ProgramID: g.FormationID, Name: g.Name, Size: size})
	}

	for _, r := range rooms {
		kind, err := parseRoomKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s 考场 %s: %w", RoomsFile, r.ID, err)
		}
		if r.Capacity < 0 {
			return nil, fmt.Errorf("%w: 考场 %s 容量为负", ErrInvalidRecord, r.ID)
		}
		c.Rooms = append(c.Rooms, planner.Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity, Kind: kind})
	}

	c.Normalize()

	l.logger.Info("CSV 目录加载完成",
		zap.String("dir", l.dir),
		zap.Int("groups", len(c.Groups)),
		zap.Int("modules", len(c.Modules)),
		zap.Int("rooms", len(c.Rooms)),
	)
	return c, nil
}

func (l *CSVLoader) read(name string, out interface{}) error {
	path := filepath.Join(l.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开 %s 失败: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = l.delimiter
	r.TrimLeadingSpace = true
	if err := gocsv.UnmarshalCSV(r, out); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", name, err)
	}
	return nil
}
