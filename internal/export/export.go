// Package export 将考试安排编码为 CSV / XLSX。只读输入，不依赖可用性索引。
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"exam-planner/internal/planner"
)

// DefaultCSVName 默认导出文件名
const DefaultCSVName = "planning_examens.csv"

// Row 一场考试的导出行，列顺序固定
type Row struct {
	ExamID    string `csv:"Exam ID"`
	Group     string `csv:"Group"`
	Module    string `csv:"Module"`
	Professor string `csv:"Professor"`
	Room      string `csv:"Room"`
	Date      string `csv:"Date"`
	Slot      int    `csv:"Slot"`
}

// Headers 列标题（与 csv 标签一致）
var Headers = []string{"Exam ID", "Group", "Module", "Professor", "Room", "Date", "Slot"}

// RowsFromAssignments 以目录中的名称展开安排；离线模式下 ExamID 为从 1 开始的序号
func RowsFromAssignments(assignments []planner.Assignment, c *planner.Catalog) []Row {
	groups := lo.SliceToMap(c.Groups, func(g planner.Group) (string, string) { return g.ID, g.Name })
	modules := lo.SliceToMap(c.Modules, func(m planner.Module) (string, string) { return m.ID, m.Name })
	examiners := lo.SliceToMap(c.Examiners, func(e planner.Examiner) (string, string) { return e.ID, e.Name })
	rooms := lo.SliceToMap(c.Rooms, func(r planner.Room) (string, string) { return r.ID, r.Name })

	return lo.Map(assignments, func(a planner.Assignment, i int) Row {
		return Row{
			ExamID:    strconv.Itoa(i + 1),
			Group:     nameOr(groups, a.GroupID),
			Module:    nameOr(modules, a.ModuleID),
			Professor: nameOr(examiners, a.ExaminerID),
			Room:      nameOr(rooms, a.RoomID),
			Date:      a.Day.String(),
			Slot:      a.SlotID,
		}
	})
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

// WriteCSV 写出带表头的 CSV；delimiter 为 0 时使用逗号
func WriteCSV(w io.Writer, rows []Row, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}
	if len(rows) == 0 {
		// 空结果也输出表头
		if err := cw.Write(Headers); err != nil {
			return fmt.Errorf("写入 CSV 表头失败: %w", err)
		}
		cw.Flush()
		return cw.Error()
	}
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("写入 CSV 失败: %w", err)
	}
	return nil
}

// WriteXLSX 写出单 Sheet 工作簿：标题行、表头、每场考试一行
func WriteXLSX(w io.Writer, title string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考试安排"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("创建 Sheet 失败: %w", err)
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("删除默认 Sheet 失败: %w", err)
	}

	widths := []float64{10, 18, 28, 20, 16, 12, 8}
	for i, wd := range widths {
		col := colName(i)
		if err := f.SetColWidth(sheetName, col, col, wd); err != nil {
			return fmt.Errorf("设置列宽失败: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("创建表头样式失败: %w", err)
	}

	lastCol := colName(len(Headers) - 1)

	// 标题行
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return fmt.Errorf("写入标题失败: %w", err)
	}
	if err := f.MergeCell(sheetName, "A1", cell(lastCol, 1)); err != nil {
		return fmt.Errorf("合并标题单元格失败: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", headerStyle); err != nil {
		return fmt.Errorf("设置标题样式失败: %w", err)
	}

	// 表头
	if err := f.SetSheetRow(sheetName, "A2", &Headers); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A2", cell(lastCol, 2), headerStyle); err != nil {
		return fmt.Errorf("设置表头样式失败: %w", err)
	}

	// 数据行
	for i, r := range rows {
		row := 3 + i
		values := []interface{}{r.ExamID, r.Group, r.Module, r.Professor, r.Room, r.Date, r.Slot}
		if err := f.SetSheetRow(sheetName, cell("A", row), &values); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", row, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写入 Excel 失败: %w", err)
	}
	return nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
