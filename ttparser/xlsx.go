package ttparser

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheets        = errors.New("workbook has no sheets")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// OpenXLSX reads the active worksheet of an .xlsx workbook.
func OpenXLSX(path string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "xlsx open")
	}
	defer closeWorkbook(f, path)

	return activeGrid(f)
}

func ReadXLSX(in io.Reader) (*Grid, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, errors.Wrap(err, "xlsx open")
	}
	defer closeWorkbook(f, "<reader>")

	return activeGrid(f)
}

func closeWorkbook(f *excelize.File, path string) {
	if err := f.Close(); err != nil {
		log.Warnf("Failed to close workbook %s: %v", path, err)
	}
}

func activeGrid(f *excelize.File) (*Grid, error) {
	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheets
		}
		name = sheets[0]
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, errors.Wrapf(err, "read rows of %s", name)
	}
	mergeCells, err := f.GetMergeCells(name)
	if err != nil {
		return nil, errors.Wrapf(err, "read merged cells of %s", name)
	}

	ranges := make([]MergedRange, 0, len(mergeCells))
	for _, mc := range mergeCells {
		r, err := mergedRange(mc.GetStartAxis(), mc.GetEndAxis())
		if err != nil {
			return nil, errors.Wrapf(err, "merged range %s", strings.Join(mc, " "))
		}
		ranges = append(ranges, r)
	}
	return NewGrid(rows, ranges...), nil
}

func mergedRange(start, end string) (MergedRange, error) {
	minCol, minRow, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return MergedRange{}, err
	}
	maxCol, maxRow, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return MergedRange{}, err
	}
	return MergedRange{MinRow: minRow, MaxRow: maxRow, MinCol: minCol, MaxCol: maxCol}, nil
}
