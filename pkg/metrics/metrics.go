package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gauges and counters fed by the websocket hub.
var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codesync_active_connections",
		Help: "Live websocket connections across all rooms.",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codesync_active_rooms",
		Help: "Rooms with at least one live connection.",
	})

	EventsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codesync_events_relayed_total",
		Help: "Events relayed by the coordinator, by event name.",
	}, []string{"event"})

	JoinsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codesync_joins_rejected_total",
		Help: "Join requests rejected for a duplicate username.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
