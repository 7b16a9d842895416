package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voicepair"

// Metrics contains all Prometheus metrics of the relay.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Connection metrics
	Handshakes        *prometheus.CounterVec
	ActiveConnections prometheus.Gauge
	Superseded        prometheus.Counter

	// Room metrics
	ActiveRooms prometheus.Gauge
	Pairings    prometheus.Counter

	// Message metrics
	MessagesIn      *prometheus.CounterVec
	MessagesRelayed *prometheus.CounterVec
	MessagesDropped *prometheus.CounterVec
	BinaryFrames    prometheus.Counter
	BinaryBytes     prometheus.Counter
	Recovered       prometheus.Counter
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Handshakes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_total",
			Help:      "Connection handshakes by outcome",
		}, []string{"outcome"}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Connections currently registered",
		}),
		Superseded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_total",
			Help:      "Connections closed because the same user reconnected",
		}),
		ActiveRooms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Rooms with at least one occupant",
		}),
		Pairings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairings_total",
			Help:      "Rooms that reached two occupants",
		}),
		MessagesIn: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound text messages by kind",
		}, []string{"kind"}),
		MessagesRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_relayed_total",
			Help:      "Signaling messages delivered to the peer",
		}, []string{"kind"}),
		MessagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Inbound messages not delivered, by reason",
		}, []string{"reason"}),
		BinaryFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "binary_frames_total",
			Help:      "Binary frames received from clients",
		}),
		BinaryBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "binary_bytes_total",
			Help:      "Bytes of binary frames received from clients",
		}),
		Recovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Panics recovered at the per-message boundary",
		}),
	}
}

func (m *Metrics) Handshake(outcome string) {
	if m == nil {
		return
	}
	m.Handshakes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ActiveConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

func (m *Metrics) SupersededConn() {
	if m == nil {
		return
	}
	m.Superseded.Inc()
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.ActiveRooms.Set(float64(n))
}

func (m *Metrics) Paired() {
	if m == nil {
		return
	}
	m.Pairings.Inc()
}

func (m *Metrics) Received(kind string) {
	if m == nil {
		return
	}
	m.MessagesIn.WithLabelValues(kind).Inc()
}

func (m *Metrics) Relayed(kind string) {
	if m == nil {
		return
	}
	m.MessagesRelayed.WithLabelValues(kind).Inc()
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.MessagesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Binary(size int) {
	if m == nil {
		return
	}
	m.BinaryFrames.Inc()
	m.BinaryBytes.Add(float64(size))
}

func (m *Metrics) Panicked() {
	if m == nil {
		return
	}
	m.Recovered.Inc()
}
