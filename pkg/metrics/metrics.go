package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import-pipeline collectors. Registered on the default registry so the
// /debug/prometheus endpoint picks them up without extra wiring.
var (
	ImportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petroflow",
		Subsystem: "import",
		Name:      "runs_total",
		Help:      "Completed import runs by feed kind and outcome.",
	}, []string{"feed_kind", "outcome"})

	RecordsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petroflow",
		Subsystem: "import",
		Name:      "records_created_total",
		Help:      "Price records created by import runs.",
	})

	RecordsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petroflow",
		Subsystem: "import",
		Name:      "records_updated_total",
		Help:      "Price records updated by import runs.",
	})

	RecordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petroflow",
		Subsystem: "import",
		Name:      "records_skipped_total",
		Help:      "Observations skipped by import runs.",
	})

	FlushRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petroflow",
		Subsystem: "import",
		Name:      "flush_retries_total",
		Help:      "Batch commit attempts that had to be retried.",
	})
)
