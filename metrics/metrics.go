// Package metrics registers the Prometheus collectors this module exposes.
// Registration always happens at package init, matching the teacher's
// pattern of collectors as package-level vars created once; whether they
// are updated is gated process-wide by Enable, which every netconn
// constructor calls, so the most recently constructed Connection's setting
// applies to all of them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var enabled bool

var (
	connectedPlayers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "netlobby_connected_players",
		Help: "Current number of active slots in a lobby, labeled by room id.",
	}, []string{"room_id"})

	reconnectAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netlobby_reconnect_attempts_total",
		Help: "Total reconnect attempts made by client Connections.",
	})

	handshakeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netlobby_handshake_failures_total",
		Help: "Total handshakes that ended in a terminal failure status, labeled by status.",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(connectedPlayers, reconnectAttempts, handshakeFailures)
}

// Enable turns metric recording on or off process-wide. Connections with
// config.Metrics.Enabled = false call this with false so a consumer who
// never scrapes /metrics pays no bookkeeping cost.
func Enable(on bool) {
	enabled = on
}

// SetConnectedPlayers records the current active-slot count for roomID.
func SetConnectedPlayers(roomID string, n int) {
	if !enabled {
		return
	}
	connectedPlayers.WithLabelValues(roomID).Set(float64(n))
}

// IncReconnectAttempt records one client reconnect attempt.
func IncReconnectAttempt() {
	if !enabled {
		return
	}
	reconnectAttempts.Inc()
}

// IncHandshakeFailure records the handshake state machine reaching the
// terminal status named by status (its String() form).
func IncHandshakeFailure(status string) {
	if !enabled {
		return
	}
	handshakeFailures.WithLabelValues(status).Inc()
}
