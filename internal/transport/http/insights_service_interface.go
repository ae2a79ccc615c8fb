package http

import (
	"context"
	"time"

	"chainsight/internal/analytics"
	"chainsight/internal/dataset"
	"chainsight/internal/services"
)

// InsightsServiceInterface is the service contract the insights handler
// depends on. Defined here so handler tests can substitute a stub.
type InsightsServiceInterface interface {
	Overview(ctx context.Context) (*services.Overview, error)
	Customers(ctx context.Context, f services.CustomerFilter) (*dataset.Dataset, error)
	Profiles(ctx context.Context) (*dataset.Dataset, error)
	SalesByCategory(ctx context.Context) ([]analytics.GroupTotal, error)
	SalesByRegion(ctx context.Context) ([]analytics.GroupTotal, error)
	MonthlyActuals(ctx context.Context, from, to time.Time) ([]analytics.Point, error)
	Forecast(ctx context.Context, horizon int) (*services.ForecastResult, error)
	Artifacts(ctx context.Context) []services.ArtifactStatus
	ArtifactPath(ctx context.Context, name string) (string, error)
	Reload(ctx context.Context) int
}
