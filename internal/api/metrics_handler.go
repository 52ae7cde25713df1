package api

import (
	"net/http"

	"vfswatch/internal/metrics"
)

// MetricsHandler serves the counter registry in Prometheus text format.
type MetricsHandler struct {
	Registry *metrics.Registry
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	registry := h.Registry
	if registry == nil {
		registry = metrics.Default
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = registry.WritePrometheus(w)
}
