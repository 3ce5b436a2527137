// Package spreadsheet reads taxpayer import files and converts their rows
// into typed records.
package spreadsheet

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Import file errors. These are fatal to the whole import.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")
	ErrEmptyFile         = errors.New("file is empty")
	ErrMissingHeader     = errors.New("header row is missing")
	ErrNoDataRows        = errors.New("file has no data rows")
	ErrInvalidEncoding   = errors.New("file is not valid UTF-8")
)

// RawRow is one spreadsheet row keyed by upper-cased column name.
// Line is the 1-based row number as shown by spreadsheet programs,
// so the first data row below the header is line 2.
type RawRow struct {
	Cells map[string]string
	Line  int
}

// Get returns the trimmed cell value for column.
func (r RawRow) Get(column string) string {
	return strings.TrimSpace(r.Cells[column])
}

// Read parses an import file, choosing the reader by filename extension.
func Read(filename string, r io.Reader) ([]RawRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadXLSX reads the first worksheet of an Excel workbook.
func ReadXLSX(r io.Reader) ([]RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return buildRows(records)
}

// ReadCSV reads a comma separated file with a header row.
// A leading UTF-8 byte order mark is discarded.
func ReadCSV(r io.Reader) ([]RawRow, error) {
	br := bufio.NewReader(r)

	bom, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	content, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return buildRows(records)
}

// buildRows maps records to RawRows using the first record as header.
// Blank rows are dropped; line numbers still count them.
func buildRows(records [][]string) ([]RawRow, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(records[0]))
	hasHeader := false
	for i, h := range records[0] {
		header[i] = strings.ToUpper(strings.TrimSpace(h))
		if header[i] != "" {
			hasHeader = true
		}
	}
	if !hasHeader {
		return nil, ErrMissingHeader
	}

	rows := make([]RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		cells := make(map[string]string, len(header))
		for j, value := range record {
			if j >= len(header) || header[j] == "" {
				continue
			}
			cells[header[j]] = value
		}
		rows = append(rows, RawRow{Cells: cells, Line: i + 2})
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
