package ttparser

import "strings"

// Sheet is a read-only worksheet. Rows and columns are 1-based, like the
// spreadsheet itself.
type Sheet interface {
	// Cell returns the text of the cell or "" if it is empty or out of range.
	Cell(row, col int) string
	// Size returns the used range; every cell is within [1, rows]x[1, cols].
	Size() (rows, cols int)
	Merges() *Merges
}

type MergedRange struct {
	MinRow, MaxRow int
	MinCol, MaxCol int
}

func (r MergedRange) Contains(row, col int) bool {
	return row >= r.MinRow && row <= r.MaxRow && col >= r.MinCol && col <= r.MaxCol
}

type cellPos struct {
	row, col int
}

// Merges indexes merged ranges by every cell they cover.
type Merges struct {
	ranges []MergedRange
	index  map[cellPos]int
}

func NewMerges(ranges ...MergedRange) *Merges {
	m := &Merges{index: make(map[cellPos]int)}
	for _, r := range ranges {
		m.Add(r)
	}
	return m
}

func (m *Merges) Add(r MergedRange) {
	m.ranges = append(m.ranges, r)
	for row := r.MinRow; row <= r.MaxRow; row++ {
		for col := r.MinCol; col <= r.MaxCol; col++ {
			m.index[cellPos{row, col}] = len(m.ranges) - 1
		}
	}
}

// Find returns the merged range covering the cell, if any.
func (m *Merges) Find(row, col int) (MergedRange, bool) {
	if m == nil {
		return MergedRange{}, false
	}
	i, ok := m.index[cellPos{row, col}]
	if !ok {
		return MergedRange{}, false
	}
	return m.ranges[i], true
}

func (m *Merges) Ranges() []MergedRange {
	if m == nil {
		return nil
	}
	return m.ranges
}

// Grid is an in-memory Sheet built from a jagged row slice.
type Grid struct {
	rows   [][]string
	cols   int
	merges *Merges
}

// NewGrid takes rows in sheet order; rows[0] is spreadsheet row 1.
func NewGrid(rows [][]string, merges ...MergedRange) *Grid {
	g := &Grid{rows: rows, merges: NewMerges(merges...)}
	for _, r := range rows {
		if len(r) > g.cols {
			g.cols = len(r)
		}
	}
	return g
}

func (g *Grid) Cell(row, col int) string {
	if row < 1 || row > len(g.rows) {
		return ""
	}
	r := g.rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}

func (g *Grid) Size() (int, int) {
	return len(g.rows), g.cols
}

func (g *Grid) Merges() *Merges {
	return g.merges
}

// blank reports whether the cell holds nothing but whitespace.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// mergedSource returns the column that holds the value shown in (row, col):
// the leftmost column of a covering merged range, or col itself.
func mergedSource(sheet Sheet, row, col int) int {
	if r, ok := sheet.Merges().Find(row, col); ok {
		return r.MinCol
	}
	return col
}
