package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicateExam 考试安排违反唯一约束（同一运行内班组重复排考）
var ErrDuplicateExam = errors.New("考试安排重复")
