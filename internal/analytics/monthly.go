package analytics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"chainsight/internal/dataset"
	apperrors "chainsight/internal/errors"
	"chainsight/internal/schema"
)

// Point is one monthly bucket of the canonical series. Period is always the
// first day of the month in UTC; across a series periods are unique and
// strictly ascending.
type Point struct {
	Period time.Time `json:"period"`
	Value  float64   `json:"value"`
}

// GroupTotal is one bucket of a dimension rollup (category, region).
type GroupTotal struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Aggregator builds monthly series and rollups from loaded artifacts.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With(slog.String("component", "aggregator"))}
}

// MonthlySeries produces the canonical monthly (period, value) series.
// A present precomputed aggregate wins: its two leading columns are taken as
// period and value, re-floored and re-summed for safety, which is a no-op on
// input that is already monthly. Otherwise the series is derived from raw
// transactional records via schema resolution. A nil return means no series
// could be produced.
func (a *Aggregator) MonthlySeries(ctx context.Context, precomputed, raw *dataset.Dataset) []Point {
	if !precomputed.Empty() {
		series := a.seriesFromColumns(precomputed, 0, 1)
		if series == nil {
			a.logger.WarnContext(ctx, "monthly aggregate present but yielded no parsable rows")
		}
		return series
	}

	if raw.Empty() {
		return nil
	}

	dateIdx, ok := schema.ResolveIndex(raw, schema.ConceptDate)
	if !ok {
		a.logger.WarnContext(ctx, "schema mismatch deriving monthly series",
			slog.String("error", apperrors.NewSchemaMismatchError(string(schema.ConceptDate), "raw orders").Error()))
		return nil
	}
	amountIdx, ok := schema.ResolveIndex(raw, schema.ConceptAmount)
	if !ok {
		a.logger.WarnContext(ctx, "schema mismatch deriving monthly series",
			slog.String("error", apperrors.NewSchemaMismatchError(string(schema.ConceptAmount), "raw orders").Error()))
		return nil
	}

	return a.seriesFromColumns(raw, dateIdx, amountIdx)
}

// seriesFromColumns groups rows by floored month and sums the value column.
// Rows with an unparsable date or value are dropped rather than failing the
// whole series.
func (a *Aggregator) seriesFromColumns(ds *dataset.Dataset, dateIdx, valueIdx int) []Point {
	buckets := make(map[time.Time]float64)
	for i := 0; i < ds.Len(); i++ {
		t, ok := ParseDate(ds.Cell(i, dateIdx))
		if !ok {
			continue
		}
		v, ok := ParseAmount(ds.Cell(i, valueIdx))
		if !ok {
			continue
		}
		buckets[FloorMonth(t)] += v
	}
	if len(buckets) == 0 {
		return nil
	}

	series := make([]Point, 0, len(buckets))
	for period, value := range buckets {
		series = append(series, Point{Period: period, Value: value})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Period.Before(series[j].Period)
	})
	return series
}

// GroupTotals produces a (key, total) rollup over the given dimension. A
// present precomputed aggregate wins; otherwise the rollup is derived from
// raw records by resolving the dimension and amount concepts. Keys come out
// sorted for deterministic output.
func (a *Aggregator) GroupTotals(ctx context.Context, precomputed, raw *dataset.Dataset, dim schema.Concept) []GroupTotal {
	if !precomputed.Empty() {
		keyIdx, ok := schema.ResolveIndex(precomputed, dim)
		if !ok {
			keyIdx = 0
		}
		valueIdx, ok := schema.ResolveIndex(precomputed, schema.ConceptTotalSales)
		if !ok {
			valueIdx = 1
		}
		return a.totalsFromColumns(precomputed, keyIdx, valueIdx)
	}

	if raw.Empty() {
		return nil
	}

	keyIdx, ok := schema.ResolveIndex(raw, dim)
	if !ok {
		a.logger.WarnContext(ctx, "schema mismatch deriving rollup",
			slog.String("error", apperrors.NewSchemaMismatchError(string(dim), "raw orders").Error()))
		return nil
	}
	valueIdx, ok := schema.ResolveIndex(raw, schema.ConceptAmount)
	if !ok {
		a.logger.WarnContext(ctx, "schema mismatch deriving rollup",
			slog.String("error", apperrors.NewSchemaMismatchError(string(schema.ConceptAmount), "raw orders").Error()))
		return nil
	}
	return a.totalsFromColumns(raw, keyIdx, valueIdx)
}

func (a *Aggregator) totalsFromColumns(ds *dataset.Dataset, keyIdx, valueIdx int) []GroupTotal {
	buckets := make(map[string]float64)
	for i := 0; i < ds.Len(); i++ {
		key := ds.Cell(i, keyIdx)
		if key == "" {
			continue
		}
		v, ok := ParseAmount(ds.Cell(i, valueIdx))
		if !ok {
			continue
		}
		buckets[key] += v
	}
	if len(buckets) == 0 {
		return nil
	}

	totals := make([]GroupTotal, 0, len(buckets))
	for key, value := range buckets {
		totals = append(totals, GroupTotal{Key: key, Value: value})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Key < totals[j].Key })
	return totals
}

// ClipSeries returns the points falling inside the inclusive [from, to]
// range. A zero bound leaves that side open. Order is preserved.
func ClipSeries(series []Point, from, to time.Time) []Point {
	if len(series) == 0 {
		return nil
	}
	out := make([]Point, 0, len(series))
	for _, p := range series {
		if !from.IsZero() && p.Period.Before(from) {
			continue
		}
		if !to.IsZero() && p.Period.After(to) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
