package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for slot lifecycle transitions.
type BookingMetrics struct {
	claimsTotal    *prometheus.CounterVec
	approvalsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		claimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "claims_total",
			Help:      "Slot claim attempts by outcome",
		}, []string{"outcome"}),
		approvalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "approvals_total",
			Help:      "Slot approval attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.claimsTotal, m.approvalsTotal)
	return m
}

func (m *BookingMetrics) ObserveClaim(outcome string) {
	if m == nil {
		return
	}
	m.claimsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveApproval(outcome string) {
	if m == nil {
		return
	}
	m.approvalsTotal.WithLabelValues(outcome).Inc()
}

// ChatMetrics exposes gauges/counters for the live messaging channel.
type ChatMetrics struct {
	connections    prometheus.Gauge
	broadcastTotal *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "connections",
			Help:      "Currently open WebSocket connections",
		}),
		broadcastTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "chat",
			Name:      "broadcast_total",
			Help:      "Messages broadcast to channels by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.connections, m.broadcastTotal)
	return m
}

func (m *ChatMetrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *ChatMetrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *ChatMetrics) ObserveBroadcast(result string) {
	if m == nil {
		return
	}
	m.broadcastTotal.WithLabelValues(result).Inc()
}
