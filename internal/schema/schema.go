// Package schema maps abstract domain concepts (date, amount, segment, ...)
// to concrete column names inside a dataset, using a fixed, versioned alias
// table. Resolution depends only on column names, never on cell values, so
// it is deterministic for a given dataset shape.
package schema

import (
	"strings"

	"chainsight/internal/dataset"
)

// Concept is an abstract domain field independent of its literal column name.
type Concept string

const (
	ConceptDate       Concept = "date"
	ConceptAmount     Concept = "amount"
	ConceptCategory   Concept = "category"
	ConceptRegion     Concept = "region"
	ConceptSegment    Concept = "segment"
	ConceptCustomerID Concept = "customer_id"
	ConceptRecency    Concept = "recency"

	// Aggregate and overview concepts.
	ConceptPeriod     Concept = "period"
	ConceptTotalSales Concept = "total_sales"
	ConceptOrderCount Concept = "order_count"

	// External forecast schema concepts.
	ConceptEstimate Concept = "point_estimate"
	ConceptLower    Concept = "lower_bound"
	ConceptUpper    Concept = "upper_bound"
)

// AliasTableVersion identifies the current alias table revision. Bump it
// whenever an alias set changes so downstream consumers can detect drift.
const AliasTableVersion = 1

// aliasTable maps each concept to the ordered set of literal column names
// accepted as that concept. Names are compared lowercased and trimmed.
var aliasTable = map[Concept][]string{
	ConceptDate:       {"order date", "order_date", "date"},
	ConceptAmount:     {"sales", "revenue", "amount"},
	ConceptCategory:   {"category"},
	ConceptRegion:     {"region"},
	ConceptSegment:    {"segment", "label"},
	ConceptCustomerID: {"customer_id", "customer id", "id"},
	ConceptRecency:    {"recency_days", "recency", "days_since"},
	ConceptPeriod:     {"ds", "period", "month", "date"},
	ConceptTotalSales: {"total_sales", "sales", "revenue"},
	ConceptOrderCount: {"order_count", "orders"},
	ConceptEstimate:   {"yhat", "point_estimate"},
	ConceptLower:      {"yhat_lower", "lower_bound"},
	ConceptUpper:      {"yhat_upper", "upper_bound"},
}

// Normalize lowercases a column name and strips surrounding whitespace.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Aliases returns a copy of the alias set for a concept, in match order.
func Aliases(c Concept) []string {
	src := aliasTable[c]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Resolve locates the column realizing a concept within the dataset. It
// walks the columns in their original order and returns the first whose
// normalized name is a member of the concept's alias set. No match returns
// ("", false) - resolution never fails hard.
func Resolve(ds *dataset.Dataset, c Concept) (string, bool) {
	if ds == nil {
		return "", false
	}
	allowed := aliasTable[c]
	if len(allowed) == 0 {
		return "", false
	}
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	for _, col := range ds.Columns {
		if set[Normalize(col)] {
			return col, true
		}
	}
	return "", false
}

// ResolveIndex is Resolve returning the column position instead of its name.
func ResolveIndex(ds *dataset.Dataset, c Concept) (int, bool) {
	name, ok := Resolve(ds, c)
	if !ok {
		return 0, false
	}
	return ds.ColumnIndex(name)
}
