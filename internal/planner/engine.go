package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Committer 持久化单场考试。返回错误视为可恢复：引擎跳到下一个时段继续尝试。
type Committer interface {
	Commit(ctx context.Context, a Assignment) error
}

// CommitFunc 函数适配器
type CommitFunc func(ctx context.Context, a Assignment) error

// Commit 实现 Committer
func (f CommitFunc) Commit(ctx context.Context, a Assignment) error { return f(ctx, a) }

// Result 单次运行的结果
type Result struct {
	Placed         []Assignment
	Unplaced       []Unplaced
	CommitFailures int
	Index          *Index
}

// Engine 贪心排考引擎。
// 班组外层、模块内层按目录顺序处理；每个 (班组, 模块) 提交第一个可行组合，
// 已提交的安排不会回溯调整。
type Engine struct {
	opts      Options
	committer Committer
	order     SlotOrder
	logger    *zap.Logger
}

// EngineOption 引擎可选项
type EngineOption func(*Engine)

// WithSlotOrder 注入时段顺序策略
func WithSlotOrder(order SlotOrder) EngineOption {
	return func(e *Engine) { e.order = order }
}

// WithLogger 注入日志
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine 创建引擎；默认时段顺序为基于时间种子的洗牌
func NewEngine(opts Options, committer Committer, options ...EngineOption) *Engine {
	e := &Engine{
		opts:      opts,
		committer: committer,
		order:     ShuffleOrder(0),
		logger:    zap.NewNop(),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Run 对目录中的全部 (班组, 模块) 执行一次排考。
// 单场落库失败不会中断运行。参数非法时返回错误；ctx 结束时停止，
// 返回已完成部分的结果与 ctx 错误，被中断的 (班组, 模块) 不计入未排。
func (e *Engine) Run(ctx context.Context, catalog *Catalog) (*Result, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, fmt.Errorf("排考参数无效: %w", err)
	}
	catalog.Normalize()

	index := NewIndex()
	selector := NewSelector(index, catalog.Examiners, catalog.Rooms, e.opts)
	slots := catalog.EligibleSlots(e.opts.SlotsPerDay)
	window := e.opts.Window()

	result := &Result{Index: index}

	for _, g := range catalog.Groups {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("排考中断: %w", err)
		}
		modules := catalog.ModulesOf(g)
		if len(modules) == 0 {
			result.Unplaced = append(result.Unplaced, Unplaced{GroupID: g.ID, Reason: ReasonNoModules})
			e.logger.Info("班组所属专业无模块", zap.String("group", g.Name))
			continue
		}

		for _, m := range modules {
			a, ok := e.place(ctx, selector, index, g, m, window, slots, result)
			if err := ctx.Err(); err != nil && !ok {
				return result, fmt.Errorf("排考中断: %w", err)
			}
			if !ok {
				result.Unplaced = append(result.Unplaced, Unplaced{GroupID: g.ID, ModuleID: m.ID, Reason: ReasonNoSlotFound})
				e.logger.Info("未能排入",
					zap.String("group", g.Name),
					zap.String("module", m.Name),
				)
				continue
			}
			result.Placed = append(result.Placed, a)
		}
	}

	return result, nil
}

// place 在窗口内为单个 (班组, 模块) 寻找并提交第一个可行组合
func (e *Engine) place(ctx context.Context, selector *Selector, index *Index, g Group, m Module,
	window []Day, slots []Slot, result *Result) (Assignment, bool) {
	for _, day := range window {
		// 同一班组每天至多一场
		if !index.IsGroupFree(g.ID, day) {
			continue
		}

		for _, slot := range e.order(slots) {
			if ctx.Err() != nil {
				return Assignment{}, false
			}
			rooms := selector.FeasibleRooms(g, day, slot.ID)
			if len(rooms) == 0 {
				continue
			}
			examiners := selector.FeasibleExaminers(day)
			if len(examiners) == 0 {
				continue
			}

			room, examiner := rooms[0], examiners[0]
			a := Assignment{
				ModuleID:   m.ID,
				GroupID:    g.ID,
				ExaminerID: examiner.ID,
				RoomID:     room.ID,
				Day:        day,
				SlotID:     slot.ID,
				Duration:   e.opts.DurationMinutes,
			}
			if err := e.committer.Commit(ctx, a); err != nil {
				result.CommitFailures++
				e.logger.Warn("考试落库失败，尝试下一时段",
					zap.String("group", g.Name),
					zap.String("module", m.Name),
					zap.String("day", day.String()),
					zap.Int("slot", slot.ID),
					zap.Error(err),
				)
				continue
			}

			index.Record(g.ID, examiner.ID, room, day, slot.ID)
			e.logger.Debug("已排考",
				zap.String("group", g.Name),
				zap.String("module", m.Name),
				zap.String("room", room.Name),
				zap.String("examiner", examiner.Name),
				zap.String("day", day.String()),
				zap.Int("slot", slot.ID),
			)
			return a, true
		}
	}
	return Assignment{}, false
}
