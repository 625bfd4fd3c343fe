package services

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	gerrors "github.com/go-faster/errors"

	"github.com/munigov/munigov-sdk/pkg/excel"
)

// Format declares how an uploaded roster file is encoded.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a declared content type or filename to a Format.
func DetectFormat(contentType, filename string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "text/csv", "application/csv", "csv":
		return FormatCSV, true
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx":
		return FormatXLSX, true
	}
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV, true
	case strings.HasSuffix(name, ".xlsx"):
		return FormatXLSX, true
	}
	return "", false
}

var (
	ErrMalformedInput = gerrors.New("file cannot be decoded as the declared type")
	ErrSchemaMismatch = gerrors.New("required columns are absent from the header")
	ErrTooManyRows    = gerrors.New("file exceeds the row limit")
)

const (
	colFirstName  = "first_name"
	colLastName   = "last_name"
	colMiddleName = "middle_name"
	colSuffix     = "suffix"
	colPosition   = "position"
	colUnit       = "unit"
	colEmail      = "email"
)

func requiredColumns() []string {
	return []string{colFirstName, colLastName, colPosition, colUnit}
}

func knownColumns() []string {
	return []string{colFirstName, colLastName, colMiddleName, colSuffix, colPosition, colUnit, colEmail}
}

// rawRow is one decoded record before normalization. Row numbers start at 2:
// row 1 is the header, and numbers are never reused across calls.
type rawRow struct {
	number int
	fields map[string]string
}

// parseRecords decodes the whole file into memory. Batches are bounded
// (maxRows), so no streaming is needed.
func parseRecords(r io.Reader, format Format, maxRows int) ([]rawRow, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = excel.ReadRows(r)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrMalformedInput, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedInput)
	}

	header, err := canonicalHeader(records[0])
	if err != nil {
		return nil, err
	}

	data := records[1:]
	if len(data) > maxRows {
		return nil, fmt.Errorf("%w: %d rows (limit %d)", ErrTooManyRows, len(data), maxRows)
	}

	rows := make([]rawRow, 0, len(data))
	for i, record := range data {
		fields := make(map[string]string, len(header))
		for j, col := range header {
			if col == "" {
				continue
			}
			if j < len(record) {
				fields[col] = record[j]
			} else {
				fields[col] = ""
			}
		}
		rows = append(rows, rawRow{number: i + 2, fields: fields})
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	br := stripUTF8BOM(bufio.NewReader(r))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

// canonicalHeader lowercases and underscores header cells, keeps known
// columns, and verifies all required columns are present. Unknown columns are
// preserved blank-named so positional mapping stays aligned.
func canonicalHeader(cells []string) ([]string, error) {
	known := make(map[string]struct{}, len(knownColumns()))
	for _, c := range knownColumns() {
		known[c] = struct{}{}
	}

	header := make([]string, len(cells))
	seen := make(map[string]struct{}, len(cells))
	for i, cell := range cells {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(cell)), " ", "_")
		if _, ok := known[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrSchemaMismatch, name)
		}
		seen[name] = struct{}{}
		header[i] = name
	}

	for _, req := range requiredColumns() {
		if _, ok := seen[req]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, req)
		}
	}
	return header, nil
}
