package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "brawlbracket"

type Metrics struct {
	CommandsApplied   *prometheus.CounterVec
	CommandsRejected  *prometheus.CounterVec
	BroadcastsDropped prometheus.Counter
	PersistFailures   prometheus.Counter
	LobbiesOpen       prometheus.Gauge
	ClientsConnected  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Tests pass a fresh registry so
// repeated construction does not panic on duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommandsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_applied_total",
			Help:      "Lobby commands applied, by command type.",
		}, []string{"command"}),
		CommandsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_rejected_total",
			Help:      "Lobby commands rejected, by command type and reason.",
		}, []string{"command", "reason"}),
		BroadcastsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clients_dropped_total",
			Help:      "Clients dropped because their outbox was full.",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed writes to the persistence sink.",
		}),
		LobbiesOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tournament_lobbies_open",
			Help:      "Tournament lobbies currently running.",
		}),
		ClientsConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients_connected",
			Help:      "Live websocket clients across all lobbies.",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
