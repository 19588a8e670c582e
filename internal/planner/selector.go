package planner

import (
	"sort"

	"github.com/samber/lo"
)

// Selector 基于当前索引状态筛选候选考场与教师（纯查询，不修改索引）
type Selector struct {
	index     *Index
	examiners []Examiner
	rooms     []Room // 已按容量降序
	opts      Options
}

// NewSelector 创建候选筛选器；rooms 需已按容量降序排列
func NewSelector(index *Index, examiners []Examiner, rooms []Room, opts Options) *Selector {
	return &Selector{index: index, examiners: examiners, rooms: rooms, opts: opts}
}

// FeasibleExaminers 当天未达上限的教师，按累计场次升序（同分保持输入顺序）
func (s *Selector) FeasibleExaminers(day Day) []Examiner {
	ok := lo.Filter(s.examiners, func(e Examiner, _ int) bool {
		return s.index.ExaminerDailyLoad(e.ID, day) < s.opts.ExaminerDailyCap
	})
	sort.SliceStable(ok, func(i, j int) bool {
		return s.index.ExaminerTotalLoad(ok[i].ID) < s.index.ExaminerTotalLoad(ok[j].ID)
	})
	return ok
}

// FeasibleRooms 对 (group, day, slot) 可用的考场，保持容量降序
func (s *Selector) FeasibleRooms(group Group, day Day, slotID int) []Room {
	return lo.Filter(s.rooms, func(r Room, _ int) bool {
		if r.Capacity < group.Size {
			return false
		}
		if r.IsSharedHall() {
			// 容量按单个班组校验，不累加同场其他班组人数
			return s.index.HallOccupants(r.ID, day, slotID) < s.opts.HallCapacity
		}
		return !s.index.IsRoomTaken(r.ID, day, slotID)
	})
}
