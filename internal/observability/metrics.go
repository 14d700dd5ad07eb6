// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealbridge_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ActiveWebSockets is the gauge of active WebSocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mealbridge_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealbridge_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealbridge_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// PostTransitions counts post lifecycle transitions by outcome.
	PostTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mealbridge_post_transitions_total",
		Help: "Total post lifecycle transitions by event and outcome",
	}, []string{"event", "outcome"})

	// ExpiredPostsSwept counts posts retired by the expiry sweep.
	ExpiredPostsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mealbridge_expired_posts_swept_total",
		Help: "Total number of posts marked expired by the periodic sweep",
	})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}
