package catalog

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"exam-planner/internal/model"
	"exam-planner/internal/planner"
	"exam-planner/internal/repository"
)

// RepoLoader 从数据库加载目录
type RepoLoader struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRepoLoader 创建 RepoLoader
func NewRepoLoader(repo *repository.Repository, logger *zap.Logger) *RepoLoader {
	return &RepoLoader{repo: repo, logger: logger}
}

// Load 读取全部实体；班组人数为归属记录数
func (l *RepoLoader) Load(ctx context.Context) (*planner.Catalog, error) {
	groups, err := l.repo.Group.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询班组失败: %w", err)
	}
	sizes, err := l.repo.Group.CountMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计班组人数失败: %w", err)
	}
	modules, err := l.repo.Module.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询模块失败: %w", err)
	}
	professors, err := l.repo.Professor.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询教师失败: %w", err)
	}
	rooms, err := l.repo.Room.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询考场失败: %w", err)
	}
	slots, err := l.repo.TimeSlot.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询时段失败: %w", err)
	}

	sizeByGroup := lo.SliceToMap(sizes, func(s model.GroupSize) (string, int) {
		return s.GroupID, s.Size
	})

	c := &planner.Catalog{
		Groups: lo.Map(groups, func(g model.Group, _ int) planner.Group {
			return planner.Group{ID: g.GroupID, ProgramID: g.FormationID, Name: g.Name, Size: sizeByGroup[g.GroupID]}
		}),
		Modules: lo.Map(modules, func(m model.Module, _ int) planner.Module {
			return planner.Module{ID: m.ModuleID, ProgramID: m.FormationID, Name: m.Name}
		}),
		Examiners: lo.Map(professors, func(p model.Professor, _ int) planner.Examiner {
			return planner.Examiner{ID: p.ProfessorID, Name: p.Name}
		}),
		Slots: lo.Map(slots, func(s model.TimeSlot, _ int) planner.Slot {
			return planner.Slot{ID: s.SlotID, Label: s.Label}
		}),
	}

	for _, r := range rooms {
		kind, err := parseRoomKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("考场 %s: %w", r.Name, err)
		}
		c.Rooms = append(c.Rooms, planner.Room{ID: r.RoomID, Name: r.Name, Capacity: r.Capacity, Kind: kind})
	}

	c.Normalize()

	l.logger.Info("目录加载完成",
		zap.Int("groups", len(c.Groups)),
		zap.Int("modules", len(c.Modules)),
		zap.Int("examiners", len(c.Examiners)),
		zap.Int("rooms", len(c.Rooms)),
		zap.Int("slots", len(c.Slots)),
	)
	return c, nil
}
