package http

import (
	"net/http"

	"chainsight/internal/infrastructure"
)

// MetricsHandler serves the Prometheus scrape endpoint backed by the OTel
// meter provider.
func MetricsHandler(metrics *infrastructure.Metrics) http.Handler {
	if metrics == nil || metrics.Handler == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusNotFound)
		})
	}
	return metrics.Handler
}
