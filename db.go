package main

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/foxcpp/vsu_timetable/ttparser"
)

var schema = []string{`
	CREATE TABLE IF NOT EXISTS subgroups (
		faculty_name TEXT NOT NULL,
		group_name TEXT NOT NULL,
		course INTEGER NOT NULL,
		specialty TEXT NOT NULL,
		form TEXT NOT NULL,
		subgroup_name TEXT NOT NULL,

		UNIQUE (faculty_name, group_name, course, specialty, form, subgroup_name)
	)`, `
	CREATE TABLE IF NOT EXISTS pairs (
		week_day TEXT NOT NULL,
		date TEXT NOT NULL,
		number INTEGER NOT NULL,
		teacher TEXT NOT NULL,
		auditorium TEXT NOT NULL,
		name TEXT NOT NULL,
		subgroup_name TEXT NOT NULL,
		specialty TEXT NOT NULL
	)`, `
	CREATE INDEX IF NOT EXISTS pairs_day ON pairs (date, subgroup_name)`, `
	CREATE TABLE IF NOT EXISTS exams_credits (
		week_day TEXT NOT NULL,
		date TEXT NOT NULL,
		teacher TEXT NOT NULL,
		auditorium TEXT NOT NULL,
		name TEXT NOT NULL,
		time TEXT NOT NULL,
		subgroup_name TEXT NOT NULL,
		specialty TEXT NOT NULL
	)`, `
	CREATE INDEX IF NOT EXISTS exams_credits_day ON exams_credits (date, subgroup_name)`, `
	CREATE TABLE IF NOT EXISTS loads (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		files INTEGER NOT NULL,
		failed_files INTEGER NOT NULL,
		groups_found INTEGER NOT NULL,
		pairs_found INTEGER NOT NULL,
		exams_found INTEGER NOT NULL
	)`,
}

// Load is one parse-and-upload run.
type Load struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Files       int       `json:"files"`
	FailedFiles int       `json:"failed_files"`
	Groups      int       `json:"groups"`
	Pairs       int       `json:"pairs"`
	Exams       int       `json:"exams"`
}

type DB struct {
	d      *sql.DB
	driver string

	addSubgroup *sql.Stmt
	clearPairs  *sql.Stmt
	addPair     *sql.Stmt
	clearExams  *sql.Stmt
	addExam     *sql.Stmt
	addLoad     *sql.Stmt
	subgroups   *sql.Stmt
	pairsOnDay  *sql.Stmt
	examsOf     *sql.Stmt
	lastLoads   *sql.Stmt
}

// NewDB opens the store. driver is "sqlite3" (dsn is a file path) or
// "postgres" (dsn is a connection string).
func NewDB(driver, dsn string) (*DB, error) {
	db := &DB{driver: driver}
	var err error
	switch driver {
	case "sqlite3":
		db.d, err = sql.Open("sqlite3", dsn+"?_journal=WAL&cache=shared")
	case "postgres":
		db.d, err = sql.Open("postgres", dsn)
	default:
		return nil, errors.Errorf("unknown db driver %q", driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	if driver == "sqlite3" {
		if _, err := db.d.Exec(`PRAGMA journal_mode = WAL`); err != nil {
			return nil, errors.Wrap(err, "set pragma journal mode")
		}
		if _, err := db.d.Exec(`PRAGMA synchronous = NORMAL`); err != nil {
			return nil, errors.Wrap(err, "set pragma synchronous")
		}
	}
	for _, stmt := range schema {
		if _, err := db.d.Exec(stmt); err != nil {
			return nil, errors.Wrap(err, "create schema")
		}
	}

	stmts := []struct {
		dst   **sql.Stmt
		name  string
		query string
	}{
		{&db.addSubgroup, "addSubgroup", `
			INSERT INTO subgroups (faculty_name, group_name, course, specialty, form, subgroup_name)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`},
		{&db.clearPairs, "clearPairs", `
			DELETE FROM pairs
			WHERE date = ? AND subgroup_name = ?`},
		{&db.addPair, "addPair", `
			INSERT INTO pairs (week_day, date, number, teacher, auditorium, name, subgroup_name, specialty)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`},
		{&db.clearExams, "clearExams", `
			DELETE FROM exams_credits
			WHERE date = ? AND subgroup_name = ?`},
		{&db.addExam, "addExam", `
			INSERT INTO exams_credits (week_day, date, teacher, auditorium, name, time, subgroup_name, specialty)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`},
		{&db.addLoad, "addLoad", `
			INSERT INTO loads VALUES (?, ?, ?, ?, ?, ?, ?, ?)`},
		{&db.subgroups, "subgroups", `
			SELECT faculty_name, group_name, course, specialty, form, subgroup_name
			FROM subgroups
			ORDER BY faculty_name, form, course, group_name, specialty, subgroup_name`},
		{&db.pairsOnDay, "pairsOnDay", `
			SELECT week_day, date, number, teacher, auditorium, name, subgroup_name, specialty
			FROM pairs
			WHERE date = ? AND subgroup_name = ?
			ORDER BY number`},
		{&db.examsOf, "examsOf", `
			SELECT week_day, date, teacher, auditorium, name, time, subgroup_name, specialty
			FROM exams_credits
			WHERE subgroup_name = ?
			ORDER BY date`},
		{&db.lastLoads, "lastLoads", `
			SELECT id, started_at, finished_at, files, failed_files, groups_found, pairs_found, exams_found
			FROM loads
			ORDER BY started_at DESC
			LIMIT ?`},
	}
	for _, s := range stmts {
		*s.dst, err = db.d.Prepare(db.rebind(s.query))
		if err != nil {
			return nil, errors.Wrapf(err, "prepare %s", s.name)
		}
	}
	return db, nil
}

// rebind turns ? placeholders into $N for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) Close() error {
	for _, s := range []*sql.Stmt{
		db.addSubgroup, db.clearPairs, db.addPair, db.clearExams, db.addExam,
		db.addLoad, db.subgroups, db.pairsOnDay, db.examsOf, db.lastLoads,
	} {
		s.Close()
	}
	return db.d.Close()
}

// InsertGroups adds one row per subgroup; rows that already exist are kept.
func (db *DB) InsertGroups(groups []ttparser.Group) error {
	tx, err := db.d.Begin()
	if err != nil {
		return errors.Wrap(err, "tx begin")
	}
	defer tx.Rollback()

	add := tx.Stmt(db.addSubgroup)
	for _, g := range groups {
		for _, sub := range g.Subgroups {
			if _, err := add.Exec(g.Faculty, g.Name, g.Course, g.Specialty, g.Form, sub); err != nil {
				return errors.Wrapf(err, "addSubgroup %s", sub)
			}
		}
	}
	return errors.Wrap(tx.Commit(), "tx commit")
}

type dayKey struct {
	date     string
	subgroup string
}

// byDay groups records by (date, subgroup) in order of first appearance, so
// each day of a subgroup is cleared exactly once.
func byDay[T any](items []T, key func(T) dayKey) *orderedmap.OrderedMap[dayKey, []T] {
	days := orderedmap.NewOrderedMap[dayKey, []T]()
	for _, item := range items {
		k := key(item)
		list, _ := days.Get(k)
		days.Set(k, append(list, item))
	}
	return days
}

// ReplacePairs replaces, for every (date, subgroup) present in pairs, all
// stored pairs of that day with the new ones.
func (db *DB) ReplacePairs(pairs []ttparser.Pair) error {
	tx, err := db.d.Begin()
	if err != nil {
		return errors.Wrap(err, "tx begin")
	}
	defer tx.Rollback()

	del, add := tx.Stmt(db.clearPairs), tx.Stmt(db.addPair)
	days := byDay(pairs, func(p ttparser.Pair) dayKey {
		return dayKey{p.Date.Format(dbDateLayout), p.Subgroup}
	})
	for el := days.Front(); el != nil; el = el.Next() {
		if _, err := del.Exec(el.Key.date, el.Key.subgroup); err != nil {
			return errors.Wrapf(err, "clearPairs %v", el.Key)
		}
		for _, p := range el.Value {
			if _, err := add.Exec(
				p.WeekDay, el.Key.date, p.Number, p.Teacher,
				p.Auditorium, p.Name, p.Subgroup, p.Specialty); err != nil {
				return errors.Wrapf(err, "addPair %v", p)
			}
		}
	}
	return errors.Wrap(tx.Commit(), "tx commit")
}

// ReplaceExams is ReplacePairs for exams and credits.
func (db *DB) ReplaceExams(exams []ttparser.ExamCredit) error {
	tx, err := db.d.Begin()
	if err != nil {
		return errors.Wrap(err, "tx begin")
	}
	defer tx.Rollback()

	del, add := tx.Stmt(db.clearExams), tx.Stmt(db.addExam)
	days := byDay(exams, func(e ttparser.ExamCredit) dayKey {
		return dayKey{e.Date.Format(dbDateLayout), e.Subgroup}
	})
	for el := days.Front(); el != nil; el = el.Next() {
		if _, err := del.Exec(el.Key.date, el.Key.subgroup); err != nil {
			return errors.Wrapf(err, "clearExams %v", el.Key)
		}
		for _, e := range el.Value {
			if _, err := add.Exec(
				e.WeekDay, el.Key.date, e.Teacher, e.Auditorium,
				e.Name, e.Time, e.Subgroup, e.Specialty); err != nil {
				return errors.Wrapf(err, "addExam %v", e)
			}
		}
	}
	return errors.Wrap(tx.Commit(), "tx commit")
}

func (db *DB) AddLoad(l Load) error {
	_, err := db.addLoad.Exec(l.ID,
		l.StartedAt.Format(time.RFC3339), l.FinishedAt.Format(time.RFC3339),
		l.Files, l.FailedFiles, l.Groups, l.Pairs, l.Exams)
	return errors.Wrap(err, "addLoad")
}

// Groups rebuilds groups from their subgroup rows.
func (db *DB) Groups() ([]ttparser.Group, error) {
	rows, err := db.subgroups.Query()
	if err != nil {
		return nil, errors.Wrap(err, "query subgroups")
	}
	defer rows.Close()

	groups := orderedmap.NewOrderedMap[string, ttparser.Group]()
	for rows.Next() {
		g, sub := ttparser.Group{}, ""
		if err := rows.Scan(&g.Faculty, &g.Name, &g.Course, &g.Specialty, &g.Form, &sub); err != nil {
			return nil, errors.Wrap(err, "scan subgroup")
		}
		k := strings.Join([]string{g.Faculty, g.Name, strconv.Itoa(g.Course), g.Specialty, g.Form}, "\x1e")
		if existing, ok := groups.Get(k); ok {
			g = existing
		}
		g.Subgroups = append(g.Subgroups, sub)
		groups.Set(k, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "query subgroups")
	}

	res := make([]ttparser.Group, 0, groups.Len())
	for el := groups.Front(); el != nil; el = el.Next() {
		res = append(res, el.Value)
	}
	return res, nil
}

func parseDBDate(s string) (time.Time, error) {
	t, err := time.Parse(dbDateLayout, s)
	return t, errors.Wrapf(err, "stored date %q", s)
}

func (db *DB) OnDay(subgroup string, day time.Time) ([]ttparser.Pair, error) {
	rows, err := db.pairsOnDay.Query(day.Format(dbDateLayout), subgroup)
	if err != nil {
		return nil, errors.Wrap(err, "query pairs")
	}
	defer rows.Close()

	var res []ttparser.Pair
	for rows.Next() {
		p, date := ttparser.Pair{}, ""
		if err := rows.Scan(&p.WeekDay, &date, &p.Number, &p.Teacher,
			&p.Auditorium, &p.Name, &p.Subgroup, &p.Specialty); err != nil {
			return nil, errors.Wrap(err, "scan pair")
		}
		if p.Date, err = parseDBDate(date); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, errors.Wrap(rows.Err(), "query pairs")
}

func (db *DB) Exams(subgroup string) ([]ttparser.ExamCredit, error) {
	rows, err := db.examsOf.Query(subgroup)
	if err != nil {
		return nil, errors.Wrap(err, "query exams")
	}
	defer rows.Close()

	var res []ttparser.ExamCredit
	for rows.Next() {
		e, date := ttparser.ExamCredit{}, ""
		if err := rows.Scan(&e.WeekDay, &date, &e.Teacher, &e.Auditorium,
			&e.Name, &e.Time, &e.Subgroup, &e.Specialty); err != nil {
			return nil, errors.Wrap(err, "scan exam")
		}
		if e.Date, err = parseDBDate(date); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, errors.Wrap(rows.Err(), "query exams")
}

func (db *DB) Loads(limit int) ([]Load, error) {
	rows, err := db.lastLoads.Query(limit)
	if err != nil {
		return nil, errors.Wrap(err, "query loads")
	}
	defer rows.Close()

	var res []Load
	for rows.Next() {
		l, started, finished := Load{}, "", ""
		if err := rows.Scan(&l.ID, &started, &finished, &l.Files, &l.FailedFiles,
			&l.Groups, &l.Pairs, &l.Exams); err != nil {
			return nil, errors.Wrap(err, "scan load")
		}
		if l.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, errors.Wrap(err, "load start time")
		}
		if l.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, errors.Wrap(err, "load finish time")
		}
		res = append(res, l)
	}
	return res, errors.Wrap(rows.Err(), "query loads")
}
