// Package fileread loads tabular reference files (CSV, XLSX, Parquet) as
// raw rows keyed by header.
package fileread

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Table is the content of one file.
type Table struct {
	Headers []string
	Rows    []map[string]any
}

// Read loads the file at path, choosing the reader by extension.
func Read(path string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return ReadCSV(path)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	case ".parquet":
		return ReadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv, .xlsx or .parquet)", ext)
	}
}

// rowFrom zips headers and cells. Blank headers and cells are skipped; it
// returns nil when the row has no values.
func rowFrom(headers, cells []string) map[string]any {
	var row map[string]any
	for i, h := range headers {
		if h == "" || i >= len(cells) {
			continue
		}
		v := strings.TrimSpace(cells[i])
		if v == "" {
			continue
		}
		if row == nil {
			row = make(map[string]any, len(headers))
		}
		if _, dup := row[h]; !dup {
			row[h] = v
		}
	}
	return row
}

func trimHeaders(in []string) []string {
	out := make([]string, len(in))
	for i, h := range in {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}
