package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"exam-planner/internal/planner"
)

func sampleCatalog() *planner.Catalog {
	return &planner.Catalog{
		Groups:    []planner.Group{{ID: "g1", Name: "Info-A"}},
		Modules:   []planner.Module{{ID: "m1", Name: "Algo"}, {ID: "m2", Name: "BD"}},
		Examiners: []planner.Examiner{{ID: "e1", Name: "Martin"}},
		Rooms:     []planner.Room{{ID: "r1", Name: "S101"}},
	}
}

func sampleRows() []Row {
	assignments := []planner.Assignment{
		{GroupID: "g1", ModuleID: "m1", ExaminerID: "e1", RoomID: "r1", Day: "2025-01-10", SlotID: 2},
		{GroupID: "g1", ModuleID: "m2", ExaminerID: "e1", RoomID: "r9", Day: "2025-01-11", SlotID: 1},
	}
	return RowsFromAssignments(assignments, sampleCatalog())
}

func TestRowsFromAssignments(t *testing.T) {
	rows := sampleRows()

	require.Len(t, rows, 2)
	assert.Equal(t, Row{ExamID: "1", Group: "Info-A", Module: "Algo", Professor: "Martin", Room: "S101", Date: "2025-01-10", Slot: 2}, rows[0])
	// 目录中找不到名称时回退为 ID
	assert.Equal(t, "r9", rows[1].Room)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows(), 0))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Exam ID,Group,Module,Professor,Room,Date,Slot", lines[0])
	assert.Equal(t, "1,Info-A,Algo,Martin,S101,2025-01-10,2", lines[1])
}

func TestWriteCSV_Semicolon(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows(), ';'))

	assert.True(t, strings.HasPrefix(buf.String(), "Exam ID;Group;Module;"))
}

func TestWriteCSV_EmptyKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, 0))

	assert.Equal(t, "Exam ID,Group,Module,Professor,Room,Date,Slot\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Session janvier", sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("考试安排")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Session janvier", rows[0][0])
	assert.Equal(t, Headers, rows[1])
	assert.Equal(t, []string{"1", "Info-A", "Algo", "Martin", "S101", "2025-01-10", "2"}, rows[2])

	// 标题与表头带粗体样式，数据行不带
	for _, ref := range []string{"A1", "A2", "G2"} {
		styleID, err := f.GetCellStyle("考试安排", ref)
		require.NoError(t, err)
		require.NotZero(t, styleID, ref)
		style, err := f.GetStyle(styleID)
		require.NoError(t, err)
		require.NotNil(t, style.Font, ref)
		assert.True(t, style.Font.Bold, ref)
	}
	dataStyle, err := f.GetCellStyle("考试安排", "A3")
	require.NoError(t, err)
	assert.Zero(t, dataStyle)

	merged, err := f.GetMergeCells("考试安排")
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
	assert.Equal(t, "G1", merged[0].GetEndAxis())
}
