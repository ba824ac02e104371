package fileread

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first worksheet of a workbook. The first non-empty
// row is the header.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	t := &Table{}
	for _, cells := range rows {
		if t.Headers == nil {
			if len(cells) == 0 {
				continue
			}
			t.Headers = trimHeaders(cells)
			continue
		}
		if row := rowFrom(t.Headers, cells); row != nil {
			t.Rows = append(t.Rows, row)
		}
	}
	if t.Headers == nil {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	return t, nil
}
