package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Turn outcomes used as the "outcome" label of TurnsTotal.
const (
	OutcomeOK                = "ok"
	OutcomeBadRequest        = "bad_request"
	OutcomeNotFound          = "not_found"
	OutcomeGenerationFailed  = "generation_failed"
	OutcomePersistenceFailed = "persistence_failed"
)

var (
	// TurnsTotal counts completed chat turns by outcome.
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Chat turns processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// GenerationDuration observes model call latency by operation
	// ("generate" or "title").
	GenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_generation_duration_seconds",
			Help:    "Latency of generative model calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(TurnsTotal, GenerationDuration)
}
