package planner

import (
	"sort"

	"github.com/samber/lo"
)

// ConflictReport 事后审计结果。只报告，不修正。
type ConflictReport struct {
	// GroupConflicts 同一 (班组, 日) 第二场及以后的考试数
	GroupConflicts int
	// ExaminerConflicts 某天超过每日上限的教师（升序）
	ExaminerConflicts []string
	// RoomConflicts 普通教室同一 (日, 时段) 多出的考试数
	RoomConflicts int
	// HallConflicts 阶梯教室同一 (日, 时段) 超出共用上限的考试数
	HallConflicts int
	// CapacityViolations 容量小于班组人数的考试数
	CapacityViolations int
}

// Clean 无任何冲突
func (r ConflictReport) Clean() bool {
	return r.GroupConflicts == 0 && len(r.ExaminerConflicts) == 0 &&
		r.RoomConflicts == 0 && r.HallConflicts == 0 && r.CapacityViolations == 0
}

// DetectConflicts 审计已提交的安排。
// rooms / groupSizes 缺失的条目跳过对应检查。
func DetectConflicts(assignments []Assignment, rooms []Room, groupSizes map[string]int, opts Options) ConflictReport {
	var report ConflictReport

	groupDays := lo.CountValuesBy(assignments, func(a Assignment) groupDayKey {
		return groupDayKey{a.GroupID, a.Day}
	})
	for _, n := range groupDays {
		if n > 1 {
			report.GroupConflicts += n - 1
		}
	}

	examinerDays := lo.CountValuesBy(assignments, func(a Assignment) examinerDayKey {
		return examinerDayKey{a.ExaminerID, a.Day}
	})
	over := make(map[string]struct{})
	for k, n := range examinerDays {
		if n > opts.ExaminerDailyCap {
			over[k.examinerID] = struct{}{}
		}
	}
	report.ExaminerConflicts = lo.Keys(over)
	sort.Strings(report.ExaminerConflicts)

	roomByID := lo.KeyBy(rooms, func(r Room) string { return r.ID })
	roomSlots := lo.CountValuesBy(assignments, func(a Assignment) roomSlotKey {
		return roomSlotKey{a.RoomID, a.Day, a.SlotID}
	})
	for k, n := range roomSlots {
		room, ok := roomByID[k.roomID]
		if !ok {
			continue
		}
		limit := 1
		if room.IsSharedHall() {
			limit = opts.HallCapacity
		}
		if n <= limit {
			continue
		}
		if room.IsSharedHall() {
			report.HallConflicts += n - limit
		} else {
			report.RoomConflicts += n - limit
		}
	}

	for _, a := range assignments {
		room, ok := roomByID[a.RoomID]
		if !ok {
			continue
		}
		size, ok := groupSizes[a.GroupID]
		if ok && room.Capacity < size {
			report.CapacityViolations++
		}
	}

	return report
}
