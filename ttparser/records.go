package ttparser

import (
	"strconv"
	"strings"
	"time"
)

type SheetKind int

const (
	Weekly SheetKind = iota
	Credit
	Exam
)

var kindStr = map[SheetKind]string{
	Weekly: "обыч",
	Credit: "зач",
	Exam:   "экз",
}

func (k SheetKind) String() string {
	return kindStr[k]
}

// ColumnRange is an inclusive span of worksheet columns.
type ColumnRange struct {
	First, Last int
}

func (r ColumnRange) Width() int {
	return r.Last - r.First + 1
}

// Column returns the i-th column of the span.
func (r ColumnRange) Column(i int) int {
	return r.First + i
}

type Group struct {
	Faculty   string `json:"faculty"`
	Name      string `json:"name"`
	Course    int    `json:"course"`
	Specialty string `json:"specialty"`
	Form      string `json:"form"`

	Columns   ColumnRange `json:"-"`
	Subgroups []string    `json:"subgroups"`
}

// GroupKey identifies a group regardless of where it sits on the sheet.
type GroupKey string

func (g Group) Key() GroupKey {
	return GroupKey(strings.Join([]string{
		g.Faculty, g.Name, strconv.Itoa(g.Course), g.Specialty, g.Form,
		strings.Join(g.Subgroups, "\x1f"),
	}, "\x1e"))
}

type Pair struct {
	WeekDay    string    `json:"week_day"`
	Date       time.Time `json:"date"`
	Number     int       `json:"number"`
	Subgroup   string    `json:"subgroup"`
	Specialty  string    `json:"specialty"`
	Teacher    string    `json:"teacher"`
	Auditorium string    `json:"auditorium"`
	Name       string    `json:"name"`
}

type ExamCredit struct {
	WeekDay    string    `json:"week_day"`
	Date       time.Time `json:"date"`
	Subgroup   string    `json:"subgroup"`
	Specialty  string    `json:"specialty"`
	Name       string    `json:"name"`
	Teacher    string    `json:"teacher"`
	Auditorium string    `json:"auditorium"`
	Time       string    `json:"time"`
}
