package dataset

import (
	"strconv"

	"github.com/datenai/datalab/internal/domain"
)

// sampleRowLimit caps how many rows travel in the schema sent to the oracle
const sampleRowLimit = 10

// Schema extracts the structural summary of a frame: column names, inferred
// dtypes, shape, null counts and a handful of sample rows. The oracle uses
// this to generate code that matches the actual data.
func (f *Frame) Schema() domain.DatasetSchema {
	columnCells := make([][]string, len(f.Columns))
	for _, row := range f.Rows {
		for i := range f.Columns {
			columnCells[i] = append(columnCells[i], row[i])
		}
	}

	dtypes := make(map[string]string, len(f.Columns))
	nullCounts := make(map[string]int, len(f.Columns))
	for i, col := range f.Columns {
		dtypes[col] = dtypeOf(columnCells[i])
		nulls := 0
		for _, c := range columnCells[i] {
			if c == "" {
				nulls++
			}
		}
		nullCounts[col] = nulls
	}

	limit := sampleRowLimit
	if len(f.Rows) < limit {
		limit = len(f.Rows)
	}
	samples := make([]map[string]any, 0, limit)
	for _, row := range f.Rows[:limit] {
		sample := make(map[string]any, len(f.Columns))
		for i, col := range f.Columns {
			sample[col] = typedCell(row[i], dtypes[col])
		}
		samples = append(samples, sample)
	}

	return domain.DatasetSchema{
		Columns:    f.Columns,
		Dtypes:     dtypes,
		Shape:      []int{len(f.Rows), len(f.Columns)},
		SampleRows: samples,
		NullCounts: nullCounts,
	}
}

// typedCell converts a cell to its inferred type for sample rows
func typedCell(cell, dtype string) any {
	if cell == "" {
		return nil
	}
	switch dtype {
	case "int64":
		if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return v
		}
	case "float64":
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			return v
		}
	}
	return cell
}
