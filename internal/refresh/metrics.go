package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatmarks",
		Subsystem: "refresh",
		Name:      "requests_total",
		Help:      "Calls to RequestRefresh, before debouncing.",
	})

	rendersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatmarks",
		Subsystem: "refresh",
		Name:      "renders_total",
		Help:      "Render passes delivered to sinks.",
	})

	renderRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatmarks",
		Subsystem: "refresh",
		Name:      "render_retries_total",
		Help:      "Render attempts repeated because the transcript had not materialized.",
	})

	renderGiveUpsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatmarks",
		Subsystem: "refresh",
		Name:      "render_giveups_total",
		Help:      "Render passes that exhausted their retries and rendered without messages.",
	})

	storageFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatmarks",
		Subsystem: "refresh",
		Name:      "storage_failures_total",
		Help:      "Refresh cycles skipped because a storage read failed.",
	})
)
