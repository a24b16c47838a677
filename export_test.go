package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/foxcpp/vsu_timetable/ttparser"
)

func TestWriteCSV(t *testing.T) {
	res := ttparser.Result{
		Groups: []ttparser.Group{
			{Faculty: "ФМиИТ", Name: "11", Course: 1, Specialty: "ПМ", Form: "до", Subgroups: []string{"11а", "11б"}},
		},
		Pairs: []ttparser.Pair{
			pair(day(2024, 1, 15), 1, "11а", "Алгебра\nлекция"),
		},
	}
	dir := filepath.Join(t.TempDir(), "out")
	if err := writeCSV(dir, res); err != nil {
		t.Fatalf("writeCSV: %v", err)
	}

	read := func(name string) []string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	groups := read("groups.csv")
	want := []string{
		"faculty_name,group_name,course,specialty,form,subgroup_name",
		"ФМиИТ,11,1,ПМ,до,11а",
		"ФМиИТ,11,1,ПМ,до,11б",
	}
	if strings.Join(groups, "\n") != strings.Join(want, "\n") {
		t.Errorf("groups.csv:\n%s", strings.Join(groups, "\n"))
	}

	pairs := read("pairs.csv")
	if len(pairs) != 2 || pairs[1] != "пн,2024-01-15,1,Иванов И.И.,101,Алгебра лекция,11а,ПМ" {
		t.Errorf("pairs.csv:\n%s", strings.Join(pairs, "\n"))
	}

	exams := read("exams_credits.csv")
	if len(exams) != 1 || exams[0] != "week_day,date,teacher,auditorium,name,time,subgroup_name,specialty" {
		t.Errorf("exams_credits.csv must hold only the header, got:\n%s", strings.Join(exams, "\n"))
	}
}
