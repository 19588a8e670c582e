package planner

import (
	"fmt"
	"time"
)

// 默认参数
const (
	DefaultDays             = 20
	DefaultDurationMinutes  = 90
	DefaultExaminerDailyCap = 3
	DefaultHallCapacity     = 2
	DefaultSlotsPerDay      = 4
)

// DefaultStartDate 默认考试周起始日
var DefaultStartDate = time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

// Options 排考窗口与容量上限
type Options struct {
	StartDate        time.Time
	Days             int
	DurationMinutes  int
	ExaminerDailyCap int
	HallCapacity     int
	SlotsPerDay      int
}

// DefaultOptions 返回默认参数
func DefaultOptions() Options {
	return Options{
		StartDate:        DefaultStartDate,
		Days:             DefaultDays,
		DurationMinutes:  DefaultDurationMinutes,
		ExaminerDailyCap: DefaultExaminerDailyCap,
		HallCapacity:     DefaultHallCapacity,
		SlotsPerDay:      DefaultSlotsPerDay,
	}
}

// Validate 校验参数
func (o Options) Validate() error {
	switch {
	case o.StartDate.IsZero():
		return fmt.Errorf("start date 不能为空")
	case o.Days <= 0:
		return fmt.Errorf("days 必须大于 0: %d", o.Days)
	case o.DurationMinutes <= 0:
		return fmt.Errorf("duration 必须大于 0: %d", o.DurationMinutes)
	case o.ExaminerDailyCap <= 0:
		return fmt.Errorf("examiner daily cap 必须大于 0: %d", o.ExaminerDailyCap)
	case o.HallCapacity <= 0:
		return fmt.Errorf("hall capacity 必须大于 0: %d", o.HallCapacity)
	case o.SlotsPerDay <= 0:
		return fmt.Errorf("slots per day 必须大于 0: %d", o.SlotsPerDay)
	}
	return nil
}

// Window 返回考试窗口内的全部日期（升序）
func (o Options) Window() []Day {
	days := make([]Day, 0, o.Days)
	start := DayOf(o.StartDate).Time()
	for d := 0; d < o.Days; d++ {
		days = append(days, DayOf(start.AddDate(0, 0, d)))
	}
	return days
}
