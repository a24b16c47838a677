package ttparser

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
)

// slotHeight is the number of rows a class slot takes: subject, teacher, room.
const slotHeight = 3

var ErrSlotNumber = errors.New("invalid slot number")

// usable reports whether the extractors can map the group's columns to its
// subgroups one to one.
func usable(g Group) bool {
	if len(g.Subgroups) != g.Columns.Width() {
		log.Warnf("Skipping group %s (%s): %d subgroups for %d columns",
			g.Name, g.Specialty, len(g.Subgroups), g.Columns.Width())
		return false
	}
	return true
}

// carry keeps a value written once per block: a blank cell keeps the previous
// value, anything else replaces it.
func carry(prev, cell string) string {
	if blank(cell) {
		return prev
	}
	return strings.TrimSpace(cell)
}

// ExtractPairs reads weekly class slots for every group of the layout.
func ExtractPairs(sheet Sheet, layout Layout) ([]Pair, error) {
	var pairs []Pair
	origin := layout.Origin
	for _, group := range layout.Groups {
		if !usable(group) {
			continue
		}
		for i, subgroup := range group.Subgroups {
			column := group.Columns.Column(i)
			weekDay, date := "", ""
			row := origin.Row
			for !blank(sheet.Cell(row, origin.numberCol())) {
				number, err := slotNumber(sheet, row, origin.numberCol())
				if err != nil {
					return nil, err
				}
				weekDay = carry(weekDay, sheet.Cell(row, origin.weekDayCol()))
				date = carry(date, sheet.Cell(row, origin.dateCol()))
				day, err := ParseDate(date)
				if err != nil {
					return nil, errors.Wrapf(err, "row %d", row)
				}

				src := mergedSource(sheet, row, column)
				pairs = append(pairs, Pair{
					WeekDay:    weekDay,
					Date:       day,
					Number:     number,
					Subgroup:   subgroup,
					Specialty:  group.Specialty,
					Name:       strings.TrimSpace(sheet.Cell(row, src)),
					Teacher:    strings.TrimSpace(sheet.Cell(row+1, src)),
					Auditorium: strings.TrimSpace(sheet.Cell(row+2, src)),
				})

				row += slotHeight
				if blank(sheet.Cell(row, origin.numberCol())) {
					row++
				}
			}
		}
	}
	return pairs, nil
}

// slotNumber falls back to the row above when a multi-row label puts the
// number there.
func slotNumber(sheet Sheet, row, col int) (int, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(sheet.Cell(row, col))); err == nil {
		return n, nil
	}
	above := strings.TrimSpace(sheet.Cell(row-1, col))
	n, err := strconv.Atoi(above)
	if err != nil {
		return 0, errors.Wrapf(ErrSlotNumber, "row %d: %q", row, above)
	}
	return n, nil
}
