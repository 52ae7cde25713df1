package api

import (
	"net/http"

	"vfswatch/internal/event"
	"vfswatch/internal/metrics"
)

// RegisterRoutes attaches the daemon's HTTP surface to the mux.
func RegisterRoutes(
	mux *http.ServeMux,
	bus *event.Bus[event.Notification],
	registry *metrics.Registry,
	authToken string,
	allowedOrigins []string,
) {
	mux.Handle("/api/events", &EventsHandler{
		Bus:            bus,
		AuthToken:      authToken,
		AllowedOrigins: allowedOrigins,
	})
	mux.Handle("/metrics", &MetricsHandler{Registry: registry})
}
