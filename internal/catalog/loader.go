// Package catalog 为排考引擎加载只读数据快照（班组、模块、教师、考场、时段）。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"exam-planner/internal/planner"
)

// ErrInvalidRecord 数据源中存在无法识别的记录
var ErrInvalidRecord = errors.New("目录数据无效")

// Loader 目录加载器
type Loader interface {
	Load(ctx context.Context) (*planner.Catalog, error)
}

// parseRoomKind hall / amphi 视为阶梯教室，空值与 room / salle 视为普通教室
func parseRoomKind(s string) (planner.RoomKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "room", "salle":
		return planner.RoomStandard, nil
	case "hall", "amphi":
		return planner.RoomSharedHall, nil
	default:
		return "", fmt.Errorf("%w: 未知考场类型 %q", ErrInvalidRecord, s)
	}
}
