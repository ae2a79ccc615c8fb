package services

import (
	"context"
	"log/slog"
	"math"
	"os"
	"sort"
	"time"

	"chainsight/internal/analytics"
	"chainsight/internal/config"
	"chainsight/internal/dataset"
	"chainsight/internal/filter"
	"chainsight/internal/forecast"
	"chainsight/internal/infrastructure"
	"chainsight/internal/schema"
)

// mtimeFormat matches the file tile timestamps of the reporting surface.
const mtimeFormat = "Mon Jan 02 15:04:05 2006"

// Overview summarizes the customer segments artifact. Metrics that cannot
// be located in the artifact are omitted rather than zeroed.
type Overview struct {
	Customers    *int           `json:"customers,omitempty"`
	TotalSales   *float64       `json:"total_sales,omitempty"`
	TotalOrders  *int           `json:"total_orders,omitempty"`
	SegmentShare []SegmentShare `json:"segment_share,omitempty"`
}

// SegmentShare is the customer count of one segment.
type SegmentShare struct {
	Segment   string `json:"segment"`
	Customers int    `json:"customers"`
}

// CustomerFilter carries the interactive exploration filters. Zero-valued
// fields are not applied; filters naming a column the dataset lacks are
// silently skipped.
type CustomerFilter struct {
	Segment    string
	CustomerID string
	RecencyMin *float64
	RecencyMax *float64
	SalesMin   *float64
	SalesMax   *float64
}

// ArtifactStatus describes one configured artifact on disk.
type ArtifactStatus struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	Size       int64  `json:"size,omitempty"`
	ModifiedAt string `json:"modified_at"`
}

// ForecastResult is the reconciled forecast together with the actuals it
// was built against.
type ForecastResult struct {
	Source   forecast.Source   `json:"source"`
	Horizon  int               `json:"horizon"`
	Actuals  []analytics.Point `json:"actuals,omitempty"`
	Forecast []forecast.Point  `json:"forecast,omitempty"`
}

// InsightsService exposes the insights core to the reporting surface.
type InsightsService struct {
	artifacts  config.ArtifactsConfig
	cache      *dataset.Cache
	loader     *dataset.Loader
	aggregator *analytics.Aggregator
	reconciler *forecast.Reconciler
	metrics    *infrastructure.Metrics
	logger     *slog.Logger
}

// NewInsightsService wires the core components around the configured
// artifact set. metrics may be nil.
func NewInsightsService(artifacts config.ArtifactsConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *InsightsService {
	if logger == nil {
		logger = slog.Default()
	}
	cache := dataset.NewCache()
	return &InsightsService{
		artifacts:  artifacts,
		cache:      cache,
		loader:     dataset.NewLoader(logger, cache, metrics),
		aggregator: analytics.NewAggregator(logger),
		reconciler: forecast.NewReconciler(logger),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "insights_service")),
	}
}

// Overview builds the headline metrics from the customer segments artifact.
func (s *InsightsService) Overview(ctx context.Context) (*Overview, error) {
	cust := s.loader.Load(ctx, s.artifacts.SegmentsPath())
	if cust.Empty() {
		return nil, ErrNoDataAvailable
	}

	n := cust.Len()
	out := &Overview{Customers: &n}

	if idx, ok := schema.ResolveIndex(cust, schema.ConceptTotalSales); ok {
		total := 0.0
		for i := 0; i < cust.Len(); i++ {
			if v, ok := analytics.ParseAmount(cust.Cell(i, idx)); ok {
				total += v
			}
		}
		out.TotalSales = &total
	}

	if idx, ok := schema.ResolveIndex(cust, schema.ConceptOrderCount); ok {
		orders := 0.0
		for i := 0; i < cust.Len(); i++ {
			if v, ok := analytics.ParseAmount(cust.Cell(i, idx)); ok {
				orders += v
			}
		}
		total := int(orders)
		out.TotalOrders = &total
	}

	if idx, ok := schema.ResolveIndex(cust, schema.ConceptSegment); ok {
		counts := make(map[string]int)
		for i := 0; i < cust.Len(); i++ {
			if seg := cust.Cell(i, idx); seg != "" {
				counts[seg]++
			}
		}
		for seg, c := range counts {
			out.SegmentShare = append(out.SegmentShare, SegmentShare{Segment: seg, Customers: c})
		}
		sort.Slice(out.SegmentShare, func(i, j int) bool {
			return out.SegmentShare[i].Segment < out.SegmentShare[j].Segment
		})
	} else {
		s.logger.WarnContext(ctx, "segment column not resolvable in segments artifact")
	}

	return out, nil
}

// Customers returns the segments dataset filtered for exploration.
func (s *InsightsService) Customers(ctx context.Context, f CustomerFilter) (*dataset.Dataset, error) {
	cust := s.loader.Load(ctx, s.artifacts.SegmentsPath())
	if cust.Empty() {
		return nil, ErrNoDataAvailable
	}
	return filter.Apply(cust, s.buildPredicates(cust, f)), nil
}

// buildPredicates translates the filter DTO into engine predicates, using
// schema resolution to locate each filterable column. Concepts that do not
// resolve contribute nothing, matching the no-op contract.
func (s *InsightsService) buildPredicates(ds *dataset.Dataset, f CustomerFilter) []filter.Predicate {
	var preds []filter.Predicate

	if f.Segment != "" {
		if col, ok := schema.Resolve(ds, schema.ConceptSegment); ok {
			preds = append(preds, filter.Equals(col, f.Segment))
		}
	}
	if f.RecencyMin != nil || f.RecencyMax != nil {
		if col, ok := schema.Resolve(ds, schema.ConceptRecency); ok {
			preds = append(preds, filter.Range(col, rangeBound(f.RecencyMin, false), rangeBound(f.RecencyMax, true)))
		}
	}
	if f.SalesMin != nil || f.SalesMax != nil {
		if col, ok := schema.Resolve(ds, schema.ConceptTotalSales); ok {
			preds = append(preds, filter.Range(col, rangeBound(f.SalesMin, false), rangeBound(f.SalesMax, true)))
		}
	}
	if f.CustomerID != "" {
		if col, ok := schema.Resolve(ds, schema.ConceptCustomerID); ok {
			preds = append(preds, filter.Contains(col, f.CustomerID))
		}
	}
	return preds
}

// Profiles returns the segment profile artifact unmodified.
func (s *InsightsService) Profiles(ctx context.Context) (*dataset.Dataset, error) {
	profile := s.loader.Load(ctx, s.artifacts.ProfilesPath())
	if profile.Empty() {
		return nil, ErrNoDataAvailable
	}
	return profile, nil
}

// SalesByCategory returns the category rollup, preferring the precomputed
// aggregate and deriving from raw orders otherwise.
func (s *InsightsService) SalesByCategory(ctx context.Context) ([]analytics.GroupTotal, error) {
	agg := s.loader.Load(ctx, s.artifacts.CategoryAggregatePath())
	raw := s.loader.Load(ctx, s.artifacts.OrdersPath())
	totals := s.aggregator.GroupTotals(ctx, agg, raw, schema.ConceptCategory)
	if totals == nil {
		return nil, ErrNoDataAvailable
	}
	return totals, nil
}

// SalesByRegion returns the region rollup with the same precedence.
func (s *InsightsService) SalesByRegion(ctx context.Context) ([]analytics.GroupTotal, error) {
	agg := s.loader.Load(ctx, s.artifacts.RegionAggregatePath())
	raw := s.loader.Load(ctx, s.artifacts.OrdersPath())
	totals := s.aggregator.GroupTotals(ctx, agg, raw, schema.ConceptRegion)
	if totals == nil {
		return nil, ErrNoDataAvailable
	}
	return totals, nil
}

// MonthlyActuals returns the canonical monthly series, optionally clipped
// to an inclusive [from, to] range.
func (s *InsightsService) MonthlyActuals(ctx context.Context, from, to time.Time) ([]analytics.Point, error) {
	series := s.monthlySeries(ctx)
	if series == nil {
		return nil, ErrNoDataAvailable
	}
	series = analytics.ClipSeries(series, from, to)
	if series == nil {
		return nil, ErrNoDataAvailable
	}
	return series, nil
}

func (s *InsightsService) monthlySeries(ctx context.Context) []analytics.Point {
	agg := s.loader.Load(ctx, s.artifacts.MonthlyAggregatePath())
	raw := s.loader.Load(ctx, s.artifacts.OrdersPath())
	return s.aggregator.MonthlySeries(ctx, agg, raw)
}

// Forecast reconciles the external forecast artifact with the fallback.
// A zero horizon selects the default; out-of-range horizons are rejected.
func (s *InsightsService) Forecast(ctx context.Context, horizon int) (*ForecastResult, error) {
	if horizon == 0 {
		horizon = forecast.DefaultHorizon
	}
	if horizon < 1 || horizon > forecast.MaxHorizon {
		return nil, ErrInvalidHorizon
	}

	external := s.loader.Load(ctx, s.artifacts.ForecastPath())
	actuals := s.monthlySeries(ctx)

	points, source, err := s.reconciler.Reconcile(ctx, external, actuals, horizon)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordForecast(ctx, string(source))

	if source == forecast.SourceNone && actuals == nil {
		return nil, ErrNoDataAvailable
	}
	return &ForecastResult{
		Source:   source,
		Horizon:  horizon,
		Actuals:  actuals,
		Forecast: points,
	}, nil
}

// Artifacts reports the on-disk status of every configured artifact, in
// display order.
func (s *InsightsService) Artifacts(ctx context.Context) []ArtifactStatus {
	names := s.artifacts.Names()
	statuses := make([]ArtifactStatus, 0, len(names))
	for _, name := range names {
		path, _ := s.artifacts.Path(name)
		status := ArtifactStatus{Name: name, Path: path, ModifiedAt: "missing"}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			status.Exists = true
			status.Size = info.Size()
			status.ModifiedAt = info.ModTime().Format(mtimeFormat)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// ArtifactPath resolves a named artifact for download. The name must be
// part of the configured set and the file must exist.
func (s *InsightsService) ArtifactPath(ctx context.Context, name string) (string, error) {
	path, ok := s.artifacts.Path(name)
	if !ok {
		return "", ErrArtifactNotFound
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrArtifactNotFound
	}
	return path, nil
}

// Reload atomically drops every cached artifact. The next access of each
// artifact re-reads it from disk.
func (s *InsightsService) Reload(ctx context.Context) int {
	dropped := s.cache.InvalidateAll()
	s.metrics.RecordReload(ctx, dropped)
	s.logger.InfoContext(ctx, "artifact cache invalidated",
		slog.Int("entries_dropped", dropped))
	return dropped
}

// rangeBound turns an optional bound into a concrete one, using infinities
// for open sides.
func rangeBound(v *float64, upper bool) float64 {
	if v != nil {
		return *v
	}
	if upper {
		return math.MaxFloat64
	}
	return -math.MaxFloat64
}
