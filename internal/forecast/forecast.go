// Package forecast reconciles an externally supplied forecast artifact with
// a deterministic fallback. The external forecast is preferred whenever its
// schema validates; otherwise a flat rolling-baseline extrapolation with a
// fixed symmetric band is produced from the actuals. The fallback is
// documented as exactly that - a fallback, not a forecasting model.
package forecast

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"chainsight/internal/analytics"
	"chainsight/internal/dataset"
	apperrors "chainsight/internal/errors"
	"chainsight/internal/schema"
)

// ErrInsufficientData is returned when a fallback forecast is requested but
// the actuals series contains no usable numeric history, so no baseline can
// be computed. This is the one degradation surfaced as a real failure. It is
// a typed application error so HTTP handlers can map it to a problem response.
var ErrInsufficientData error = apperrors.NewInsufficientDataError(
	"insufficient history to compute forecast baseline", nil)

const (
	// DefaultHorizon is the number of months emitted when none is requested.
	DefaultHorizon = 3
	// MaxHorizon bounds user-supplied horizons.
	MaxHorizon = 12

	// baselineWindow is the number of trailing months averaged into the
	// fallback baseline.
	baselineWindow = 6
	// bandRatio is the symmetric uncertainty band around the baseline.
	bandRatio = 0.05
)

// Source identifies where a reconciled forecast came from.
type Source string

const (
	SourceExternal Source = "external"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// Point is one forecast month. Lower <= Estimate <= Upper holds for every
// point produced by this package.
type Point struct {
	Period   time.Time `json:"period"`
	Estimate float64   `json:"estimate"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// Reconciler validates external forecasts and computes fallbacks.
type Reconciler struct {
	logger *slog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger.With(slog.String("component", "forecast_reconciler"))}
}

// ValidateExternal checks an external forecast artifact against the expected
// four-column schema: period, point estimate, lower bound, upper bound. Any
// missing concept returns nil so the caller silently falls back. Rows with
// an unparsable period or inverted bounds are dropped; the remainder is
// sorted by period.
func (r *Reconciler) ValidateExternal(ctx context.Context, ds *dataset.Dataset) []Point {
	if ds.Empty() {
		return nil
	}

	idx := make(map[schema.Concept]int, 4)
	for _, c := range []schema.Concept{
		schema.ConceptPeriod,
		schema.ConceptEstimate,
		schema.ConceptLower,
		schema.ConceptUpper,
	} {
		i, ok := schema.ResolveIndex(ds, c)
		if !ok {
			r.logger.InfoContext(ctx, "external forecast rejected",
				slog.String("error", apperrors.NewSchemaMismatchError(string(c), "external forecast").Error()))
			return nil
		}
		idx[c] = i
	}

	points := make([]Point, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		period, ok := analytics.ParseDate(ds.Cell(i, idx[schema.ConceptPeriod]))
		if !ok {
			continue
		}
		est, okE := analytics.ParseAmount(ds.Cell(i, idx[schema.ConceptEstimate]))
		lo, okL := analytics.ParseAmount(ds.Cell(i, idx[schema.ConceptLower]))
		hi, okU := analytics.ParseAmount(ds.Cell(i, idx[schema.ConceptUpper]))
		if !okE || !okL || !okU {
			continue
		}
		if lo > est || est > hi {
			r.logger.WarnContext(ctx, "external forecast row dropped: inverted bounds",
				slog.Time("period", period))
			continue
		}
		points = append(points, Point{Period: period, Estimate: est, Lower: lo, Upper: hi})
	}
	if len(points) == 0 {
		return nil
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period.Before(points[j].Period)
	})
	return points
}

// Fallback produces a flat extrapolation from the actuals: the baseline is
// the mean of the trailing six usable values (or of the whole series when
// that window is empty), each emitted month carries the baseline with a
// fixed +/-5% band, and exactly horizon consecutive months are emitted
// starting the month after the last actual.
func (r *Reconciler) Fallback(ctx context.Context, series []analytics.Point, horizon int) ([]Point, error) {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	baseline, ok := baselineOf(series)
	if !ok {
		return nil, ErrInsufficientData
	}

	start := analytics.FloorMonth(series[len(series)-1].Period).AddDate(0, 1, 0)
	points := make([]Point, horizon)
	for i := range points {
		points[i] = Point{
			Period:   start.AddDate(0, i, 0),
			Estimate: baseline,
			Lower:    baseline * (1 - bandRatio),
			Upper:    baseline * (1 + bandRatio),
		}
	}

	r.logger.InfoContext(ctx, "fallback forecast produced",
		slog.Float64("baseline", baseline),
		slog.Int("horizon", horizon),
		slog.Time("start", start))
	return points, nil
}

// baselineOf computes the rolling-window mean, skipping NaN values. The
// second return is false when the series holds no usable numbers at all.
func baselineOf(series []analytics.Point) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}

	window := make([]float64, 0, baselineWindow)
	for i := len(series) - 1; i >= 0 && len(window) < baselineWindow; i-- {
		if !math.IsNaN(series[i].Value) {
			window = append(window, series[i].Value)
		}
	}
	if len(window) == 0 {
		// Window empty: fall back to the mean over everything usable.
		for _, p := range series {
			if !math.IsNaN(p.Value) {
				window = append(window, p.Value)
			}
		}
	}
	if len(window) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window)), true
}

// Reconcile applies the overall preference order: a valid external forecast
// wins; otherwise the fallback runs over the actuals; if neither is
// available the caller gets no forecast at all (SourceNone, nil error).
func (r *Reconciler) Reconcile(ctx context.Context, external *dataset.Dataset, actuals []analytics.Point, horizon int) ([]Point, Source, error) {
	if points := r.ValidateExternal(ctx, external); points != nil {
		return points, SourceExternal, nil
	}

	if len(actuals) == 0 {
		return nil, SourceNone, nil
	}

	points, err := r.Fallback(ctx, actuals, horizon)
	if err != nil {
		return nil, SourceNone, err
	}
	return points, SourceFallback, nil
}
