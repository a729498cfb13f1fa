package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var wsClientsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "chatmarks",
	Subsystem: "server",
	Name:      "ws_clients_active",
	Help:      "Number of connected change-stream WebSocket clients.",
})
