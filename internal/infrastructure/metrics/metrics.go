package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics tracks the signaling relay's live state and traffic.
type RelayMetrics struct {
	ActiveConnections prometheus.Gauge
	ActiveRooms       prometheus.Gauge
	RelayedTotal      *prometheus.CounterVec
	DroppedTotal      *prometheus.CounterVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "signaling",
			Name:      "active_connections",
			Help:      "Number of websocket connections currently attached to the relay.",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "signaling",
			Name:      "active_rooms",
			Help:      "Number of rooms with at least one member.",
		}),
		RelayedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signaling",
			Name:      "messages_relayed_total",
			Help:      "Signaling messages forwarded to a peer, by event.",
		}, []string{"event"}),
		DroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signaling",
			Name:      "messages_dropped_total",
			Help:      "Inbound messages dropped without delivery, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.ActiveConnections, m.ActiveRooms, m.RelayedTotal, m.DroppedTotal)
	return m
}

const (
	DropReasonMalformed     = "malformed"
	DropReasonNotJoined     = "not_joined"
	DropReasonUnknownTarget = "unknown_target"
	DropReasonSlowReceiver  = "slow_receiver"
)
