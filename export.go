package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"

	"github.com/foxcpp/vsu_timetable/ttparser"
)

type groupRow struct {
	Faculty   string `csv:"faculty_name"`
	Name      string `csv:"group_name"`
	Course    int    `csv:"course"`
	Specialty string `csv:"specialty"`
	Form      string `csv:"form"`
	Subgroup  string `csv:"subgroup_name"`
}

type pairRow struct {
	WeekDay    string `csv:"week_day"`
	Date       string `csv:"date"`
	Number     int    `csv:"number"`
	Teacher    string `csv:"teacher"`
	Auditorium string `csv:"auditorium"`
	Name       string `csv:"name"`
	Subgroup   string `csv:"subgroup_name"`
	Specialty  string `csv:"specialty"`
}

type examRow struct {
	WeekDay    string `csv:"week_day"`
	Date       string `csv:"date"`
	Teacher    string `csv:"teacher"`
	Auditorium string `csv:"auditorium"`
	Name       string `csv:"name"`
	Time       string `csv:"time"`
	Subgroup   string `csv:"subgroup_name"`
	Specialty  string `csv:"specialty"`
}

// exportRows flattens records into the shape of the database tables, one
// group row per subgroup.
func exportRows(res ttparser.Result) ([]groupRow, []pairRow, []examRow) {
	groups := []groupRow{}
	for _, g := range res.Groups {
		for _, sub := range g.Subgroups {
			groups = append(groups, groupRow{g.Faculty, g.Name, g.Course, g.Specialty, g.Form, sub})
		}
	}
	pairs := make([]pairRow, len(res.Pairs))
	for i, p := range res.Pairs {
		pairs[i] = pairRow{p.WeekDay, p.Date.Format(dbDateLayout), p.Number,
			oneLine(p.Teacher), oneLine(p.Auditorium), oneLine(p.Name), p.Subgroup, p.Specialty}
	}
	exams := make([]examRow, len(res.Exams))
	for i, e := range res.Exams {
		exams[i] = examRow{e.WeekDay, e.Date.Format(dbDateLayout),
			oneLine(e.Teacher), oneLine(e.Auditorium), oneLine(e.Name), e.Time, e.Subgroup, e.Specialty}
	}
	return groups, pairs, exams
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func writeCSV(dir string, res ttparser.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "mkdir")
	}
	groups, pairs, exams := exportRows(res)

	if err := marshalFile(filepath.Join(dir, "groups.csv"), &groups); err != nil {
		return err
	}
	if err := marshalFile(filepath.Join(dir, "pairs.csv"), &pairs); err != nil {
		return err
	}
	if err := marshalFile(filepath.Join(dir, "exams_credits.csv"), &exams); err != nil {
		return err
	}
	log.Infof("Exported %d group rows, %d pairs, %d exams/credits to %s",
		len(groups), len(pairs), len(exams), dir)
	return nil
}

func marshalFile(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return errors.Wrapf(err, "marshal %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
