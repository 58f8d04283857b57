// Package metrics exposes Prometheus instrumentation for the RTMP client
// session lifecycle: connection state, command round trips, and chunk
// stream throughput.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsActive tracks connections whose connect command succeeded and
	// that have not yet closed.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rtmpclient_sessions_active",
		Help: "Number of RTMP client sessions currently connected",
	})

	// SessionsTotal counts session outcomes.
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmpclient_sessions_total",
		Help: "Total RTMP client sessions by outcome",
	}, []string{"outcome"})

	// CommandsSent counts outbound commands by name.
	CommandsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmpclient_commands_sent_total",
		Help: "Total commands sent, by command name",
	}, []string{"name"})

	// CommandErrors counts _error/status-error responses, by command name.
	CommandErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmpclient_command_errors_total",
		Help: "Total command responses that resolved as errors, by command name",
	}, []string{"name"})

	// CommandLatency observes the round trip from send_command to a
	// resolved waiter.
	CommandLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtmpclient_command_latency_seconds",
		Help:    "Command round-trip latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// HandshakeDuration observes time spent in the C0/C1/C2 handshake.
	HandshakeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtmpclient_handshake_duration_seconds",
		Help:    "Handshake duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	// BytesTransferred counts AMF0 command message payload bytes by
	// direction; chunk headers, control signals and handshake bytes are not
	// counted.
	BytesTransferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmpclient_bytes_total",
		Help: "Total AMF0 command payload bytes transferred, by direction",
	}, []string{"direction"})

	// ChunkEventsUnimplemented counts inbound message types the framer
	// declined to decode.
	ChunkEventsUnimplemented = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmpclient_chunk_unimplemented_total",
		Help: "Total inbound chunk messages of an unimplemented type",
	}, []string{"type_id"})

	// StreamStatusReceived counts onStatus notifications by code.
	StreamStatusReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmpclient_stream_status_total",
		Help: "Total onStatus notifications received, by status code",
	}, []string{"code"})

	// DroppedRoutes counts inbound responses/status messages that had no
	// registered waiter or stream route.
	DroppedRoutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmpclient_dropped_routes_total",
		Help: "Total inbound messages dropped for lack of a matching waiter or stream route",
	}, []string{"kind"})
)

// RecordSessionStart marks a session as connected.
func RecordSessionStart() {
	SessionsActive.Inc()
}

// RecordSessionEnd marks a session closed with the given outcome
// ("closed", "error").
func RecordSessionEnd(outcome string) {
	SessionsActive.Dec()
	SessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCommandSent records an outbound command by name.
func RecordCommandSent(name string) {
	CommandsSent.WithLabelValues(name).Inc()
}

// RecordCommandError records a command that resolved as an error.
func RecordCommandError(name string) {
	CommandErrors.WithLabelValues(name).Inc()
}

// RecordBytes records command payload bytes transferred in a direction
// ("read", "write").
func RecordBytes(direction string, n int64) {
	BytesTransferred.WithLabelValues(direction).Add(float64(n))
}

// RecordUnimplementedChunk records an unimplemented inbound message type.
func RecordUnimplementedChunk(typeID string) {
	ChunkEventsUnimplemented.WithLabelValues(typeID).Inc()
}

// RecordStreamStatus records an onStatus notification by code.
func RecordStreamStatus(code string) {
	StreamStatusReceived.WithLabelValues(code).Inc()
}

// RecordDroppedRoute records an inbound message with no matching waiter or
// stream route ("response" or "status").
func RecordDroppedRoute(kind string) {
	DroppedRoutes.WithLabelValues(kind).Inc()
}
