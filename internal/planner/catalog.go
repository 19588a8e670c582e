package planner

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// RoomKind 考场类型
type RoomKind string

const (
	// RoomStandard 普通教室：同一 (日, 时段) 只容纳一个班组
	RoomStandard RoomKind = "room"
	// RoomSharedHall 阶梯教室：同一 (日, 时段) 可容纳多个不同班组
	RoomSharedHall RoomKind = "hall"
)

// Group 学生班组
type Group struct {
	ID        string
	ProgramID string
	Name      string
	Size      int
}

// Module 课程模块（按专业归属）
type Module struct {
	ID        string
	ProgramID string
	Name      string
}

// Examiner 监考教师
type Examiner struct {
	ID   string
	Name string
}

// Room 考场
type Room struct {
	ID       string
	Name     string
	Capacity int
	Kind     RoomKind
}

// IsSharedHall 是否为可共用的阶梯教室
func (r Room) IsSharedHall() bool { return r.Kind == RoomSharedHall }

// Slot 考试时段（按 ID 顺序取前 N 个参与排考）
type Slot struct {
	ID    int
	Label string
}

// Day 考试日期，格式 2006-01-02
type Day string

const dayLayout = "2006-01-02"

// DayOf 将时间截断为考试日
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

// Time 解析为当天零点（UTC）
func (d Day) Time() time.Time {
	t, _ := time.Parse(dayLayout, string(d))
	return t
}

func (d Day) String() string { return string(d) }

// Catalog 单次排考运行的只读数据快照
type Catalog struct {
	Groups    []Group
	Modules   []Module
	Examiners []Examiner
	Rooms     []Room
	Slots     []Slot
}

// Normalize 考场按容量降序（稳定），时段按 ID 升序。
// 加载阶段调用一次，之后的候选查询不再排序。
func (c *Catalog) Normalize() {
	sort.SliceStable(c.Rooms, func(i, j int) bool {
		return c.Rooms[i].Capacity > c.Rooms[j].Capacity
	})
	sort.SliceStable(c.Slots, func(i, j int) bool {
		return c.Slots[i].ID < c.Slots[j].ID
	})
}

// ModulesOf 返回班组所属专业的全部模块（保持目录顺序）
func (c *Catalog) ModulesOf(g Group) []Module {
	return lo.Filter(c.Modules, func(m Module, _ int) bool {
		return m.ProgramID == g.ProgramID
	})
}

// EligibleSlots 返回前 n 个时段
func (c *Catalog) EligibleSlots(n int) []Slot {
	if n >= len(c.Slots) {
		return c.Slots
	}
	return c.Slots[:n]
}

// IsEmpty 目录中缺少任一必要实体
func (c *Catalog) IsEmpty() bool {
	return len(c.Groups) == 0 || len(c.Rooms) == 0 || len(c.Examiners) == 0 || len(c.Slots) == 0
}

// Assignment 一场已落库的考试安排
type Assignment struct {
	ModuleID   string
	GroupID    string
	ExaminerID string
	RoomID     string
	Day        Day
	SlotID     int
	Duration   int
}

// UnplacedReason 未排原因
type UnplacedReason string

const (
	ReasonNoModules   UnplacedReason = "no_modules"
	ReasonNoSlotFound UnplacedReason = "no_slot_found"
)

// Unplaced 未能排入的 (班组, 模块)；ReasonNoModules 时 ModuleID 为空
type Unplaced struct {
	GroupID  string
	ModuleID string
	Reason   UnplacedReason
}
