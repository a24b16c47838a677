package ttparser

import (
	"regexp"
	"strings"
)

var (
	headerRegex = regexp.MustCompile(`^\d (курс|year)`)

	creditMarkers = []string{"зачет", "зачёт", "test"}
	examMarkers   = []string{"экзамен", "exam"}
)

// Origin is the first data cell of a sheet. Slot numbers, dates and weekdays
// live in the three columns to the left of Column.
type Origin struct {
	Row, Column int
}

func (o Origin) IsZero() bool {
	return o.Row == 0 && o.Column == 0
}

func (o Origin) numberCol() int  { return o.Column - 1 }
func (o Origin) dateCol() int    { return o.Column - 2 }
func (o Origin) weekDayCol() int { return o.Column - 3 }

type Layout struct {
	Groups []Group
	Kind   SheetKind
	Origin Origin
}

// DetectLayout scans the sheet once in row-major order looking for group
// header blocks:
//
//	N курс          <- header, possibly merged across the group's columns
//	specialty
//	group name
//	subgroup labels <- one per column, each containing the group name
//	(ignored)
//	first data row  <- origin
//
// The origin is taken from the first recognised header and shared by every
// group of the sheet.
func DetectLayout(sheet Sheet, faculty, form string) Layout {
	l := Layout{Kind: Weekly}
	rows, cols := sheet.Size()
	for row := 1; row <= rows; row++ {
		for col := 1; col <= cols; col++ {
			text := strings.ToLower(sheet.Cell(row, col))
			l.Kind = classify(l.Kind, text)

			if !headerRegex.MatchString(text) {
				continue
			}
			group, ok := readGroup(sheet, row, col, int(text[0]-'0'))
			if !ok {
				continue
			}
			group.Faculty = faculty
			group.Form = form
			l.Groups = append(l.Groups, group)

			if l.Origin.IsZero() {
				l.Origin = Origin{Row: row + 5, Column: group.Columns.First}
			}
		}
	}
	return l
}

// classify never goes back to Weekly once a credit or exam marker was seen.
func classify(kind SheetKind, text string) SheetKind {
	switch {
	case containsAny(text, creditMarkers):
		return Credit
	case containsAny(text, examMarkers):
		return Exam
	}
	return kind
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func readGroup(sheet Sheet, row, col, course int) (Group, bool) {
	specialty := strings.TrimSpace(sheet.Cell(row+1, col))
	name := strings.TrimSpace(sheet.Cell(row+2, col))
	if course == 0 || specialty == "" || name == "" {
		return Group{}, false
	}

	span := ColumnRange{First: col, Last: col}
	if r, ok := sheet.Merges().Find(row, col); ok {
		span = ColumnRange{First: r.MinCol, Last: r.MaxCol}
	}

	subgroupRow := row + 3
	var subgroups []string
	for c := span.First; c <= span.Last; c++ {
		label := strings.TrimSpace(sheet.Cell(subgroupRow, c))
		if strings.Contains(label, name) {
			subgroups = append(subgroups, label)
		}
	}
	if len(subgroups) == 0 {
		return Group{}, false
	}

	return Group{
		Name:      name,
		Course:    course,
		Specialty: specialty,
		Columns:   span,
		Subgroups: subgroups,
	}, true
}
