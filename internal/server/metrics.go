package server

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the gateway's Prometheus instruments. Each server carries
// its own registry so tests can run servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	Connections      prometheus.Gauge
	SessionsOpen     prometheus.Gauge
	MessagesReceived prometheus.Counter
	GamesCreated     prometheus.Counter
	ActionsApplied   prometheus.Counter
	Broadcasts       prometheus.Counter
}

// NewMetrics creates and registers the gateway metric set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cardroom",
			Name:      "connections",
			Help:      "Number of live WebSocket connections",
		}),
		SessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cardroom",
			Name:      "sessions_open",
			Help:      "Number of sessions in the lobby registry",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardroom",
			Name:      "messages_received_total",
			Help:      "Total inbound WebSocket messages",
		}),
		GamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardroom",
			Name:      "games_created_total",
			Help:      "Total game engines created",
		}),
		ActionsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardroom",
			Name:      "actions_applied_total",
			Help:      "Total game actions run through the engine",
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardroom",
			Name:      "broadcasts_total",
			Help:      "Total game-state broadcasts to session groups",
		}),
	}

	m.registry.MustRegister(
		m.Connections,
		m.SessionsOpen,
		m.MessagesReceived,
		m.GamesCreated,
		m.ActionsApplied,
		m.Broadcasts,
	)

	return m
}
