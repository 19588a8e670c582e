package main

import (
	"fmt"
	"io"
	"strings"

	"exam-planner/internal/dto"
)

// printSummary 输出运行摘要：已排、未排及原因、冲突、耗时
func printSummary(w io.Writer, r *dto.PlanningRunResponse) {
	fmt.Fprintf(w, "运行 %s（起始 %s，%d 天，seed=%d）\n", r.ID, r.StartDate, r.Days, r.Seed)
	fmt.Fprintf(w, "  已排考试:   %d\n", r.Placed)
	fmt.Fprintf(w, "  未排:       %d\n", r.UnplacedCount)
	for _, u := range r.Unplaced {
		if u.ModuleID == "" {
			fmt.Fprintf(w, "    - 班组 %s: %s\n", u.GroupID, u.Reason)
			continue
		}
		fmt.Fprintf(w, "    - 班组 %s / 模块 %s: %s\n", u.GroupID, u.ModuleID, u.Reason)
	}
	if r.CommitFailures > 0 {
		fmt.Fprintf(w, "  落库失败:   %d\n", r.CommitFailures)
	}
	printConflicts(w, &r.Conflicts)
	fmt.Fprintf(w, "  耗时:       %dms\n", r.ElapsedMs)
}

func printConflicts(w io.Writer, c *dto.ConflictSummary) {
	if c.Clean {
		fmt.Fprintln(w, "  冲突:       无")
		return
	}
	fmt.Fprintln(w, "  冲突:")
	fmt.Fprintf(w, "    班组同日多场:   %d\n", c.GroupConflicts)
	fmt.Fprintf(w, "    教师超出日上限: %d [%s]\n", len(c.ExaminerConflicts), strings.Join(c.ExaminerConflicts, ", "))
	fmt.Fprintf(w, "    普通教室重复:   %d\n", c.RoomConflicts)
	fmt.Fprintf(w, "    阶梯教室超额:   %d\n", c.HallConflicts)
	fmt.Fprintf(w, "    容量不足:       %d\n", c.CapacityViolations)
}
