// Package metrics exposes Prometheus collectors for the epoch
// pipeline, registered via promauto in the style of the teacher's own
// per-stage counters and histograms.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EpochsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geohgc",
		Subsystem: "epoch",
		Name:      "processed_total",
		Help:      "Total epochs successfully compressed and persisted",
	})

	EpochErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geohgc",
		Subsystem: "epoch",
		Name:      "errors_total",
		Help:      "Total epoch run failures by error kind",
	}, []string{"kind"})

	EpochDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geohgc",
		Subsystem: "epoch",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of one epoch run",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})

	BatchesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geohgc",
		Subsystem: "compress",
		Name:      "batches_emitted_total",
		Help:      "Total batches emitted by the top-down compressor",
	})

	InvalidSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geohgc",
		Subsystem: "validate",
		Name:      "invalid_samples_total",
		Help:      "Total samples rejected by validation, by field",
	}, []string{"field"})

	SinkCircuitOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "geohgc",
		Subsystem: "sink",
		Name:      "circuit_open",
		Help:      "1 if the named sink's circuit breaker is open, else 0",
	}, []string{"sink"})
)
