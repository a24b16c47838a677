package ttparser

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func newWorkbook(t *testing.T, cells map[string]string, merges [][2]string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for axis, text := range cells {
		if err := f.SetCellValue(sheet, axis, text); err != nil {
			t.Fatalf("SetCellValue %s: %v", axis, err)
		}
	}
	for _, m := range merges {
		if err := f.MergeCell(sheet, m[0], m[1]); err != nil {
			t.Fatalf("MergeCell %v: %v", m, err)
		}
	}
	return f
}

func writeWorkbook(t *testing.T, path string, cells map[string]string, merges [][2]string) {
	t.Helper()
	f := newWorkbook(t, cells, merges)
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}

func TestOpenXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.xlsx")
	writeWorkbook(t, path, map[string]string{
		"E2": "1 курс",
		"E3": "ПМ",
		"E4": "11",
		"E5": "11а",
		"F5": "11б",
		"B7": "пн",
		"C7": "15.01.2024",
		"D7": "1",
		"E7": "Алгебра",
		"E8": "Иванов",
		"E9": "101",
	}, [][2]string{{"E2", "F2"}, {"E7", "F7"}, {"E8", "F8"}, {"E9", "F9"}})

	sheet, err := OpenSheet(path)
	if err != nil {
		t.Fatalf("OpenSheet: %v", err)
	}
	if got := sheet.Cell(2, 5); got != "1 курс" {
		t.Errorf("E2 = %q", got)
	}
	r, ok := sheet.Merges().Find(2, 6)
	if !ok || r != (MergedRange{MinRow: 2, MaxRow: 2, MinCol: 5, MaxCol: 6}) {
		t.Errorf("F2 merge = %+v, %v", r, ok)
	}

	res, kind, err := ParseSheet(sheet, "ФМиИТ", "до")
	if err != nil {
		t.Fatalf("ParseSheet: %v", err)
	}
	if kind != Weekly || len(res.Groups) != 1 {
		t.Fatalf("unexpected layout %v %+v", kind, res.Groups)
	}
	if len(res.Pairs) != 2 {
		t.Fatalf("expected the merged lecture for both subgroups, got %+v", res.Pairs)
	}
	for i, sub := range []string{"11а", "11б"} {
		p := res.Pairs[i]
		if p.Subgroup != sub || p.Name != "Алгебра" || p.Teacher != "Иванов" || p.Auditorium != "101" {
			t.Errorf("pair %d: %+v", i, p)
		}
	}
}

func TestOpenXLSX_Broken(t *testing.T) {
	if _, err := OpenXLSX(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestReadXLSX(t *testing.T) {
	f := newWorkbook(t, map[string]string{
		"A1": "зачет",
		"C3": "2 курс",
	}, [][2]string{{"C3", "E3"}})
	buf, err := f.WriteToBuffer()
	f.Close()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	grid, err := ReadXLSX(buf)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if got := grid.Cell(3, 3); got != "2 курс" {
		t.Errorf("C3 = %q", got)
	}
	if got := grid.Cell(1, 1); got != "зачет" {
		t.Errorf("A1 = %q", got)
	}
	want := []MergedRange{{MinRow: 3, MaxRow: 3, MinCol: 3, MaxCol: 5}}
	if got := grid.Merges().Ranges(); len(got) != 1 || got[0] != want[0] {
		t.Errorf("merges = %+v, want %+v", got, want)
	}
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	if _, err := ReadXLSX(strings.NewReader("plain text")); err == nil {
		t.Fatal("expected an error")
	}
}
