package ttparser

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ExtractExamCredits reads one exam or credit per row. The slot-number column
// of such sheets holds "<date> <weekday>", and the subgroup cell holds
//
//	name
//	teacher
//	auditorium, time
func ExtractExamCredits(sheet Sheet, layout Layout) ([]ExamCredit, error) {
	var exams []ExamCredit
	origin := layout.Origin
	for _, group := range layout.Groups {
		if !usable(group) {
			continue
		}
		for i, subgroup := range group.Subgroups {
			column := group.Columns.Column(i)
			for row := origin.Row; !blank(sheet.Cell(row, origin.numberCol())); row++ {
				dateToken, weekDay := splitDateCell(sheet.Cell(row, origin.numberCol()))
				day, err := ParseDate(dateToken)
				if err != nil {
					return nil, errors.Wrapf(err, "row %d", row)
				}

				exam := ExamCredit{
					WeekDay:   weekDay,
					Date:      day,
					Subgroup:  subgroup,
					Specialty: group.Specialty,
				}
				exam.Name, exam.Teacher, exam.Auditorium, exam.Time, _ =
					splitCombined(sheet.Cell(row, mergedSource(sheet, row, column)))
				exams = append(exams, exam)
			}
		}
	}
	return exams, nil
}

// splitDateCell splits "<date> <weekday>" at the first space. A cell holding
// only a date gives an empty weekday rather than failing the sheet.
func splitDateCell(text string) (date, weekDay string) {
	text = strings.TrimSpace(text)
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

// splitCombined splits from the right. Fewer than two newlines or no comma on
// the last line leaves every field empty.
func splitCombined(text string) (name, teacher, auditorium, time string, ok bool) {
	nl := strings.LastIndex(text, "\n")
	if nl < 0 {
		return "", "", "", "", false
	}
	rest, last := text[:nl], text[nl+1:]

	nl = strings.LastIndex(rest, "\n")
	if nl < 0 {
		return "", "", "", "", false
	}
	comma := strings.LastIndex(last, ",")
	if comma < 0 {
		return "", "", "", "", false
	}
	return rest[:nl], rest[nl+1:], last[:comma], strings.TrimSpace(last[comma+1:]), true
}
