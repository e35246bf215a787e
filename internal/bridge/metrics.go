package bridge

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seantiz/spotipi/internal/model"
)

// Metric label values for outcomes.
const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotipi_events_total",
			Help: "Total number of events handled by the bridge, by type.",
		},
		[]string{"type"},
	)

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotipi_commands_total",
			Help: "Total number of playback commands sent to the player.",
		},
		[]string{"command", "result"},
	)

	displayUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotipi_display_updates_total",
			Help: "Total number of display redraws.",
		},
		[]string{"result"},
	)

	playerAttached = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotipi_player_attached",
			Help: "1 while a media player is attached, 0 otherwise.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal)
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(displayUpdatesTotal)
	prometheus.MustRegister(playerAttached)

	// Pre-initialize label combinations so they appear in /metrics with
	// value 0 from startup.
	for _, c := range model.Commands {
		commandsTotal.WithLabelValues(c.String(), resultOK)
		commandsTotal.WithLabelValues(c.String(), resultError)
	}
	displayUpdatesTotal.WithLabelValues(resultOK)
	displayUpdatesTotal.WithLabelValues(resultError)
}
