package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const day1 Day = "2025-01-10"

func TestIndex_RecordStandardRoom(t *testing.T) {
	x := NewIndex()
	room := Room{ID: "r1", Kind: RoomStandard}

	assert.True(t, x.IsGroupFree("g1", day1))
	x.Record("g1", "e1", room, day1, 2)

	assert.False(t, x.IsGroupFree("g1", day1))
	assert.True(t, x.IsGroupFree("g1", "2025-01-11"))
	assert.True(t, x.IsRoomTaken("r1", day1, 2))
	assert.False(t, x.IsRoomTaken("r1", day1, 1))
	assert.Zero(t, x.HallOccupants("r1", day1, 2))
	assert.Equal(t, 1, x.ExaminerDailyLoad("e1", day1))
	assert.Equal(t, 1, x.ExaminerTotalLoad("e1"))
}

func TestIndex_RecordSharedHall(t *testing.T) {
	x := NewIndex()
	hall := Room{ID: "amphi", Kind: RoomSharedHall}

	x.Record("g1", "e1", hall, day1, 1)
	x.Record("g2", "e2", hall, day1, 1)
	x.Record("g3", "e1", hall, "2025-01-11", 1)

	assert.Equal(t, 2, x.HallOccupants("amphi", day1, 1))
	assert.Equal(t, 1, x.HallOccupants("amphi", "2025-01-11", 1))
	// 阶梯教室不登记为独占
	assert.False(t, x.IsRoomTaken("amphi", day1, 1))
	assert.Equal(t, 1, x.ExaminerDailyLoad("e1", day1))
	assert.Equal(t, 2, x.ExaminerTotalLoad("e1"))
}

func TestSelector_FeasibleExaminers(t *testing.T) {
	x := NewIndex()
	examiners := []Examiner{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	s := NewSelector(x, examiners, nil, DefaultOptions())
	room := Room{ID: "r", Kind: RoomSharedHall}

	// a 当天 3 场，b 前一天 1 场
	for i := 0; i < 3; i++ {
		x.Record("ga", "a", room, day1, i)
	}
	x.Record("gb", "b", room, "2025-01-09", 1)

	got := s.FeasibleExaminers(day1)
	assert.Equal(t, []Examiner{{ID: "c"}, {ID: "b"}}, got)

	got = s.FeasibleExaminers("2025-01-11")
	assert.Equal(t, []Examiner{{ID: "c"}, {ID: "b"}, {ID: "a"}}, got)
}

func TestSelector_FeasibleExaminers_NoneLeft(t *testing.T) {
	x := NewIndex()
	opts := DefaultOptions()
	opts.ExaminerDailyCap = 1
	s := NewSelector(x, []Examiner{{ID: "a"}}, nil, opts)

	x.Record("g", "a", Room{ID: "r"}, day1, 1)

	assert.Empty(t, s.FeasibleExaminers(day1))
}

func TestSelector_FeasibleRooms(t *testing.T) {
	x := NewIndex()
	rooms := []Room{
		{ID: "amphi", Capacity: 200, Kind: RoomSharedHall},
		{ID: "s1", Capacity: 40, Kind: RoomStandard},
		{ID: "s2", Capacity: 20, Kind: RoomStandard},
	}
	s := NewSelector(x, nil, rooms, DefaultOptions())
	g := Group{ID: "g", Size: 30}

	got := s.FeasibleRooms(g, day1, 1)
	assert.Equal(t, []string{"amphi", "s1"}, roomIDs(got))

	x.Record("o1", "e", rooms[1], day1, 1)
	x.Record("o2", "e", rooms[0], day1, 1)
	got = s.FeasibleRooms(g, day1, 1)
	assert.Equal(t, []string{"amphi"}, roomIDs(got))

	x.Record("o3", "e", rooms[0], day1, 1)
	assert.Empty(t, s.FeasibleRooms(g, day1, 1))

	// 其他时段不受影响
	assert.Equal(t, []string{"amphi", "s1"}, roomIDs(s.FeasibleRooms(g, day1, 2)))
}

func TestSelector_HallCapacityCheckedPerGroup(t *testing.T) {
	x := NewIndex()
	hall := Room{ID: "amphi", Capacity: 100, Kind: RoomSharedHall}
	s := NewSelector(x, nil, []Room{hall}, DefaultOptions())

	x.Record("big1", "e", hall, day1, 1)

	// 已入座 90 人，新班组 90 人仍可入座
	got := s.FeasibleRooms(Group{ID: "big2", Size: 90}, day1, 1)
	assert.Len(t, got, 1)
}

func TestOptions_Window(t *testing.T) {
	opts := DefaultOptions()
	opts.Days = 3

	assert.Equal(t, []Day{"2025-01-10", "2025-01-11", "2025-01-12"}, opts.Window())
}

func TestShuffleOrder_Deterministic(t *testing.T) {
	slots := []Slot{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	a := ShuffleOrder(42)
	b := ShuffleOrder(42)

	for i := 0; i < 5; i++ {
		assert.Equal(t, a(slots), b(slots))
	}
	assert.Equal(t, []Slot{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}, slots)
	assert.ElementsMatch(t, slots, a(slots))
}

func roomIDs(rooms []Room) []string {
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids
}
