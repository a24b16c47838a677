package ttparser

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/pkg/errors"
)

// OpenXLS reads the first worksheet of a legacy .xls workbook. The reader does
// not expose merge records, so the resulting grid has no merged ranges and
// every header spans a single column.
func OpenXLS(in io.ReadSeeker) (*Grid, error) {
	book, err := xls.OpenReader(in, "utf-8")
	if err != nil {
		return nil, errors.Wrap(err, "xls open")
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoSheets
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cols := make([]string, row.LastCol())
		for j := range cols {
			cols[j] = row.Col(j)
		}
		rows = append(rows, cols)
	}
	return NewGrid(rows), nil
}

// OpenSheet picks the reader by file extension.
func OpenSheet(path string) (Sheet, error) {
	var (
		grid *Grid
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		grid, err = OpenXLSX(path)
	case ".xls":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, errors.Wrap(openErr, "open")
		}
		defer f.Close()
		grid, err = OpenXLS(f)
	default:
		return nil, errors.Wrap(ErrUnsupportedFile, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return grid, nil
}
