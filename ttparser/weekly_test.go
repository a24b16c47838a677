package ttparser

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// twoSubgroupSheet has one group over columns 5-6 with weekday, date and slot
// number in columns 2, 3 and 4. Data starts at row 6.
func twoSubgroupSheet() *Grid {
	cells := header(1, 5, "1 курс", "ПОИТ", "ПИ-11", "ПИ-11 (1)", "ПИ-11 (2)")
	cells = append(cells,
		cell{6, 2, "Понедельник"}, cell{6, 3, "15 января 2024 г."}, cell{6, 4, "1"},
		cell{6, 5, "Математика"}, cell{6, 6, "Физика"},
		cell{7, 5, "Иванов И.И."}, cell{7, 6, "Петров П.П."},
		cell{8, 5, "101"}, cell{8, 6, "102"},

		// Both subgroups share the lecture: merged across the group.
		cell{9, 4, "2"},
		cell{9, 5, "История"},
		cell{10, 5, "Сидоров С.С."},
		cell{11, 5, "201"},

		// Spacer row 12, then the next day.
		cell{13, 2, "Вторник"}, cell{13, 3, "16 января 2024 г."}, cell{13, 4, "1"},
		cell{13, 5, "Химия"}, cell{13, 6, "Биология"},
		cell{14, 5, "Козлов К.К."}, cell{14, 6, "Орлова О.О."},
		cell{15, 5, "301"}, cell{15, 6, "302"},
	)
	return makeGrid(cells,
		MergedRange{MinRow: 1, MaxRow: 1, MinCol: 5, MaxCol: 6},
		MergedRange{MinRow: 9, MaxRow: 9, MinCol: 5, MaxCol: 6},
	)
}

func TestExtractPairs(t *testing.T) {
	g := twoSubgroupSheet()
	layout := DetectLayout(g, "ФМиИТ", "до")
	if layout.Origin != (Origin{Row: 6, Column: 5}) {
		t.Fatalf("unexpected origin %+v", layout.Origin)
	}

	pairs, err := ExtractPairs(g, layout)
	if err != nil {
		t.Fatalf("ExtractPairs: %v", err)
	}

	want := []Pair{
		{"Понедельник", day(2024, 1, 15), 1, "ПИ-11 (1)", "ПОИТ", "Иванов И.И.", "101", "Математика"},
		{"Понедельник", day(2024, 1, 15), 2, "ПИ-11 (1)", "ПОИТ", "Сидоров С.С.", "201", "История"},
		{"Вторник", day(2024, 1, 16), 1, "ПИ-11 (1)", "ПОИТ", "Козлов К.К.", "301", "Химия"},
		{"Понедельник", day(2024, 1, 15), 1, "ПИ-11 (2)", "ПОИТ", "Петров П.П.", "102", "Физика"},
		{"Понедельник", day(2024, 1, 15), 2, "ПИ-11 (2)", "ПОИТ", "Сидоров С.С.", "201", "История"},
		{"Вторник", day(2024, 1, 16), 1, "ПИ-11 (2)", "ПОИТ", "Орлова О.О.", "302", "Биология"},
	}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %d: %+v", len(want), len(pairs), pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pair %d: got %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func TestExtractPairs_NumberFromRowAbove(t *testing.T) {
	cells := header(1, 5, "1 курс", "ПОИТ", "ПИ-11", "ПИ-11")
	cells = append(cells,
		cell{5, 4, "3"},
		cell{6, 2, "Среда"}, cell{6, 3, "17.01.2024"}, cell{6, 4, "пара"},
		cell{6, 5, "Алгебра"}, cell{7, 5, "Иванов"}, cell{8, 5, "105"},
	)
	g := makeGrid(cells)
	pairs, err := ExtractPairs(g, DetectLayout(g, "ФМиИТ", "до"))
	if err != nil {
		t.Fatalf("ExtractPairs: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Number != 3 {
		t.Fatalf("expected slot 3 read from the row above, got %+v", pairs)
	}
}

func TestExtractPairs_BadSlotNumber(t *testing.T) {
	cells := header(1, 5, "1 курс", "ПОИТ", "ПИ-11", "ПИ-11")
	cells = append(cells,
		cell{6, 2, "Среда"}, cell{6, 3, "17.01.2024"}, cell{6, 4, "пара"},
		cell{6, 5, "Алгебра"},
	)
	g := makeGrid(cells)
	_, err := ExtractPairs(g, DetectLayout(g, "ФМиИТ", "до"))
	if errors.Cause(err) != ErrSlotNumber {
		t.Fatalf("expected ErrSlotNumber, got %v", err)
	}
}

func TestExtractPairs_BadDate(t *testing.T) {
	cells := header(1, 5, "1 курс", "ПОИТ", "ПИ-11", "ПИ-11")
	cells = append(cells,
		cell{6, 2, "Среда"}, cell{6, 3, "когда-нибудь"}, cell{6, 4, "1"},
		cell{6, 5, "Алгебра"},
	)
	g := makeGrid(cells)
	pairs, err := ExtractPairs(g, DetectLayout(g, "ФМиИТ", "до"))
	if errors.Cause(err) != ErrDateFormat {
		t.Fatalf("expected ErrDateFormat, got %v", err)
	}
	if pairs != nil {
		t.Errorf("partial pairs must be dropped, got %+v", pairs)
	}
}

func TestExtractPairs_SkipsMismatchedGroup(t *testing.T) {
	cells := header(1, 5, "1 курс", "ПОИТ", "ПИ-11", "ПИ-11 а", "декор")
	cells = append(cells,
		cell{6, 2, "Среда"}, cell{6, 3, "17.01.2024"}, cell{6, 4, "1"},
		cell{6, 5, "Алгебра"}, cell{6, 6, "Геометрия"},
	)
	g := makeGrid(cells, MergedRange{MinRow: 1, MaxRow: 1, MinCol: 5, MaxCol: 6})
	layout := DetectLayout(g, "ФМиИТ", "до")
	if len(layout.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(layout.Groups))
	}

	pairs, err := ExtractPairs(g, layout)
	if err != nil {
		t.Fatalf("ExtractPairs: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("expected the group to be skipped, got %+v", pairs)
	}
}

// Groups with headers lower than the first one still read their data from the
// shared origin row. This documents the current behaviour for staggered
// headers; such sheets are not known to exist.
func TestExtractPairs_StaggeredHeadersShareOrigin(t *testing.T) {
	cells := append(
		header(1, 5, "1 курс", "ПОИТ", "ПИ-11", "ПИ-11"),
		header(2, 6, "2 курс", "ПОИТ", "ПИ-21", "ПИ-21")...,
	)
	cells = append(cells,
		cell{6, 2, "Среда"}, cell{6, 3, "17.01.2024"}, cell{6, 4, "1"},
		cell{6, 5, "Алгебра"}, cell{6, 6, "ПИ-21"},
		cell{7, 6, "Анализ"},
	)
	g := makeGrid(cells)
	layout := DetectLayout(g, "ФМиИТ", "до")
	pairs, err := ExtractPairs(g, layout)
	if err != nil {
		t.Fatalf("ExtractPairs: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[1].Subgroup != "ПИ-21" || pairs[1].Name != "ПИ-21" || pairs[1].Teacher != "Анализ" {
		t.Errorf("second group is read from the shared origin row, got %+v", pairs[1])
	}
}
