package planner

import (
	"math/rand"
	"sync"
	"time"
)

// SlotOrder 决定某班组某天尝试时段的顺序。
// 返回值不得修改入参切片。
type SlotOrder func(slots []Slot) []Slot

// IdentityOrder 按 ID 顺序尝试（测试中用于复现结果）
func IdentityOrder(slots []Slot) []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// ShuffleOrder 每次调用重新洗牌；seed 为 0 时使用当前时间
func ShuffleOrder(seed int64) SlotOrder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(slots []Slot) []Slot {
		out := IdentityOrder(slots)
		mu.Lock()
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		mu.Unlock()
		return out
	}
}
