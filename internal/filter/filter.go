// Package filter applies a conjunction of predicates over a dataset for
// interactive exploration. Predicates combine by logical AND over row
// membership, so applying them in any order yields the same result set.
// A predicate naming a column the dataset does not have is a no-op rather
// than an error; column lookup uses the same normalization as schema
// resolution.
package filter

import (
	"strings"

	"chainsight/internal/analytics"
	"chainsight/internal/dataset"
)

// Op discriminates the predicate variants.
type Op string

const (
	OpEquals   Op = "equals"
	OpRange    Op = "range"
	OpContains Op = "contains"
)

// Predicate is a single filter condition on one column.
type Predicate struct {
	Op     Op
	Column string

	// Equals
	Value string

	// Range (inclusive on both bounds)
	Min float64
	Max float64

	// Contains (case-insensitive, unanchored)
	Substring string
}

// Equals keeps rows whose column value equals the given value after
// whitespace trimming on both sides.
func Equals(column, value string) Predicate {
	return Predicate{Op: OpEquals, Column: column, Value: value}
}

// Range keeps rows whose column parses to a number within [min, max].
// Rows with a missing or non-numeric value are excluded.
func Range(column string, min, max float64) Predicate {
	return Predicate{Op: OpRange, Column: column, Min: min, Max: max}
}

// Contains keeps rows whose column contains the substring, ignoring case.
// An empty substring matches everything.
func Contains(column, substring string) Predicate {
	return Predicate{Op: OpContains, Column: column, Substring: substring}
}

// Apply filters the dataset through every predicate and returns a new
// dataset with the surviving rows in their original order. The input is
// never mutated. A nil dataset stays nil.
func Apply(ds *dataset.Dataset, preds []Predicate) *dataset.Dataset {
	if ds == nil {
		return nil
	}

	matchers := make([]func(row int) bool, 0, len(preds))
	for _, p := range preds {
		if m := p.matcher(ds); m != nil {
			matchers = append(matchers, m)
		}
	}

	rows := make([][]string, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		keep := true
		for _, m := range matchers {
			if !m(i) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, ds.Rows[i])
		}
	}
	return dataset.New(ds.Columns, rows)
}

// matcher compiles the predicate against a concrete dataset. A nil return
// means the predicate is a no-op for this dataset.
func (p Predicate) matcher(ds *dataset.Dataset) func(row int) bool {
	col, ok := ds.ColumnIndex(p.Column)
	if !ok {
		return nil
	}

	switch p.Op {
	case OpEquals:
		want := strings.TrimSpace(p.Value)
		return func(row int) bool {
			return strings.TrimSpace(ds.Cell(row, col)) == want
		}

	case OpRange:
		return func(row int) bool {
			v, ok := analytics.ParseAmount(ds.Cell(row, col))
			return ok && v >= p.Min && v <= p.Max
		}

	case OpContains:
		if p.Substring == "" {
			return nil
		}
		want := strings.ToLower(p.Substring)
		return func(row int) bool {
			return strings.Contains(strings.ToLower(ds.Cell(row, col)), want)
		}
	}
	return nil
}
