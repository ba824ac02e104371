package fileread

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const sniffSize = 64 * 1024

// ReadCSV reads a delimited file with a header row. The delimiter (',' or
// ';') is sniffed from the header line, and files that are not valid UTF-8
// are decoded as Windows-1252, the encoding of most MinSalud exports.
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	buf := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	if bom, err := buf.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		buf.Discard(3)
	}

	head, err := buf.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var src io.Reader = buf
	if !utf8.Valid(trimPartialRune(head)) {
		src = charmap.Windows1252.NewDecoder().Reader(buf)
	}

	reader := csv.NewReader(src)
	reader.Comma = sniffDelimiter(head)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	t := &Table{Headers: trimHeaders(header)}

	for line := 2; ; line++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if row := rowFrom(t.Headers, cells); row != nil {
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// trimPartialRune drops a multi-byte sequence cut by the peek window.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}
