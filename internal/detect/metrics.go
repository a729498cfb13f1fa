package detect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatmarks",
		Subsystem: "detect",
		Name:      "signals_total",
		Help:      "Change signals fired, by source.",
	}, []string{"source"})

	conversationChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatmarks",
		Subsystem: "detect",
		Name:      "conversation_changes_total",
		Help:      "Distinct conversation changes accepted by the monitor.",
	})

	duplicateSignalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatmarks",
		Subsystem: "detect",
		Name:      "duplicate_signals_total",
		Help:      "Signals suppressed because the conversation id was unchanged.",
	})
)
