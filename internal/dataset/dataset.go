package dataset

import "strings"

// Dataset is an ordered collection of named columns over a set of rows.
// Cell values are kept as text exactly as found in the source artifact;
// numeric or date interpretation is up to the consumer. A Dataset is
// immutable once constructed - transforms return a new Dataset.
type Dataset struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New creates a dataset from a header and data rows.
func New(columns []string, rows [][]string) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Empty reports whether the dataset is absent or has no data rows.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Rows) == 0
}

// ColumnIndex returns the position of the named column, matching
// case-insensitively with surrounding whitespace ignored.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	if d == nil {
		return 0, false
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i, c := range d.Columns {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return i, true
		}
	}
	return 0, false
}

// Cell returns the value at (row, col), or the empty string when the row is
// shorter than the header. Ragged rows are common in hand-maintained CSVs.
func (d *Dataset) Cell(row, col int) string {
	if d == nil || row < 0 || row >= len(d.Rows) {
		return ""
	}
	r := d.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Column returns all values of the column at the given index, padding
// ragged rows with empty strings.
func (d *Dataset) Column(col int) []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.Rows))
	for i := range d.Rows {
		out[i] = d.Cell(i, col)
	}
	return out
}
