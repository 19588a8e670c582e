package planner

// ── 占用键：普通教室与阶梯教室分别建模 ──

// roomSlotKey 普通教室占用 (room, day, slot)，独占
type roomSlotKey struct {
	roomID string
	day    Day
	slotID int
}

// hallSeatKey 阶梯教室占用 (room, day, slot, group)，可叠加
type hallSeatKey struct {
	roomSlotKey
	groupID string
}

type groupDayKey struct {
	groupID string
	day     Day
}

type examinerDayKey struct {
	examinerID string
	day        Day
}

// Index 单次运行内的可用性索引。
// 只追加不回退：Record 是唯一的写入口，每次成功落库后调用一次。
// 非并发安全，并行排考时调用方需串行化 Record。
type Index struct {
	groupDays     map[groupDayKey]struct{}
	examinerDaily map[examinerDayKey]int
	examinerTotal map[string]int
	roomSlots     map[roomSlotKey]struct{}
	hallSeats     map[hallSeatKey]struct{}
	hallCount     map[roomSlotKey]int
}

// NewIndex 创建空索引（每次运行一个）
func NewIndex() *Index {
	return &Index{
		groupDays:     make(map[groupDayKey]struct{}),
		examinerDaily: make(map[examinerDayKey]int),
		examinerTotal: make(map[string]int),
		roomSlots:     make(map[roomSlotKey]struct{}),
		hallSeats:     make(map[hallSeatKey]struct{}),
		hallCount:     make(map[roomSlotKey]int),
	}
}

// IsGroupFree 班组当天尚无考试
func (x *Index) IsGroupFree(groupID string, day Day) bool {
	_, busy := x.groupDays[groupDayKey{groupID, day}]
	return !busy
}

// ExaminerDailyLoad 教师当天已排场次
func (x *Index) ExaminerDailyLoad(examinerID string, day Day) int {
	return x.examinerDaily[examinerDayKey{examinerID, day}]
}

// ExaminerTotalLoad 教师本次运行累计场次
func (x *Index) ExaminerTotalLoad(examinerID string) int {
	return x.examinerTotal[examinerID]
}

// IsRoomTaken 普通教室在 (day, slot) 是否已被占用
func (x *Index) IsRoomTaken(roomID string, day Day, slotID int) bool {
	_, taken := x.roomSlots[roomSlotKey{roomID, day, slotID}]
	return taken
}

// HallOccupants 阶梯教室在 (day, slot) 的已入座班组数
func (x *Index) HallOccupants(roomID string, day Day, slotID int) int {
	return x.hallCount[roomSlotKey{roomID, day, slotID}]
}

// Record 登记一次成功的安排
func (x *Index) Record(groupID, examinerID string, room Room, day Day, slotID int) {
	x.groupDays[groupDayKey{groupID, day}] = struct{}{}
	x.examinerDaily[examinerDayKey{examinerID, day}]++
	x.examinerTotal[examinerID]++

	rs := roomSlotKey{room.ID, day, slotID}
	if !room.IsSharedHall() {
		x.roomSlots[rs] = struct{}{}
		return
	}
	seat := hallSeatKey{roomSlotKey: rs, groupID: groupID}
	if _, ok := x.hallSeats[seat]; ok {
		return
	}
	x.hallSeats[seat] = struct{}{}
	x.hallCount[rs]++
}
