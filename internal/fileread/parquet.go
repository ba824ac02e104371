package fileread

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/refload/internal/model"
)

// ParquetReader streams rows of a flat Parquet file as raw maps.
type ParquetReader struct {
	file    *os.File
	pf      *parquet.File
	reader  *parquet.Reader
	columns []string // leaf column names, by column index
}

// OpenParquet opens a Parquet file and returns a streaming reader.
func OpenParquet(path string) (*ParquetReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	var columns []string
	for _, path := range pf.Schema().Columns() {
		columns = append(columns, strings.Join(path, "."))
	}

	return &ParquetReader{
		file:    f,
		pf:      pf,
		reader:  parquet.NewReader(pf),
		columns: columns,
	}, nil
}

// NumRows returns the total number of rows in the Parquet file.
func (r *ParquetReader) NumRows() int64 {
	return r.pf.NumRows()
}

// Columns returns the leaf column names.
func (r *ParquetReader) Columns() []string {
	return r.columns
}

// Read reads up to n rows. It returns io.EOF once the file is exhausted.
func (r *ParquetReader) Read(n int) ([]map[string]any, error) {
	buf := make([]parquet.Row, n)
	got, err := r.reader.ReadRows(buf)
	out := make([]map[string]any, 0, got)
	for _, row := range buf[:got] {
		if m := r.toMap(row); m != nil {
			out = append(out, m)
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return out, fmt.Errorf("read parquet rows: %w", err)
	}
	return out, err
}

func (r *ParquetReader) toMap(row parquet.Row) map[string]any {
	var m map[string]any
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		col := v.Column()
		if col < 0 || col >= len(r.columns) {
			continue
		}
		val := valueOf(v)
		if val == nil {
			continue
		}
		if m == nil {
			m = make(map[string]any, len(r.columns))
		}
		m[r.columns[col]] = val
	}
	return m
}

func valueOf(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}
	return nil
}

// Close releases all resources.
func (r *ParquetReader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// ReadParquet reads every row of a Parquet file.
func ReadParquet(path string) (*Table, error) {
	r, err := OpenParquet(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t := &Table{Headers: r.Columns()}
	for {
		rows, err := r.Read(1024)
		t.Rows = append(t.Rows, rows...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteParquet writes recs to path in the flat export schema and returns the
// number of rows written.
func WriteParquet(path string, recs []model.Record) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[model.ExportRow](f)
	rows := make([]model.ExportRow, len(recs))
	for i, rec := range recs {
		rows[i] = model.ToExportRow(rec)
	}
	n, err := w.Write(rows)
	if err != nil {
		return n, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("close parquet writer: %w", err)
	}
	return n, f.Close()
}
