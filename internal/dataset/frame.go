// Package dataset provides the tabular snapshot type, CSV ingest, schema
// extraction and the in-memory dataset store backing executions.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Frame is an immutable-by-convention tabular snapshot. Cells are kept as
// the strings they were ingested as; typing happens in schema inference and
// inside the analysis script itself.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// ReadCSV parses a CSV document with a header row into a Frame
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	columns := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		// Ragged rows are padded so every row matches the header width
		row := make([]string, len(columns))
		copy(row, rec)
		rows = append(rows, row)
	}

	return &Frame{Columns: columns, Rows: rows}, nil
}

// Copy returns a private snapshot of the frame. Each execution works on its
// own copy so no two executions share mutable data.
func (f *Frame) Copy() *Frame {
	columns := make([]string, len(f.Columns))
	copy(columns, f.Columns)

	rows := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		rows[i] = make([]string, len(row))
		copy(rows[i], row)
	}
	return &Frame{Columns: columns, Rows: rows}
}

// WriteCSV writes the frame back out as CSV with a header row
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	for _, row := range f.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// dtypeOf infers a column type from its cells: int64 if every non-empty
// cell parses as an integer, float64 if every non-empty cell parses as a
// number, object otherwise.
func dtypeOf(cells []string) string {
	allInt, allFloat, seen := true, true, false
	for _, c := range cells {
		if c == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(c, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			allFloat = false
		}
	}
	switch {
	case !seen:
		return "object"
	case allInt:
		return "int64"
	case allFloat:
		return "float64"
	default:
		return "object"
	}
}
