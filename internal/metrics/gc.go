// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "stategc"
	subsystem = "gc"
)

// Round outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeDryRun  = "dry_run"
	OutcomeFailure = "failure"
)

// GCMetrics are the metrics of the garbage collection rounds.
type GCMetrics struct {
	Rounds            *prometheus.CounterVec
	PhaseDuration     *prometheus.HistogramVec
	MarkedNodes       prometheus.Gauge
	FalsePositiveRate prometheus.Gauge
	KeptNodes         prometheus.Counter
	DeletedNodes      prometheus.Counter
	RecycledNodes     prometheus.Counter
	ReclaimedBytes    prometheus.Counter
	LastRoundTime     prometheus.Gauge
}

// NewGCMetrics creates the garbage collection metrics and
// registers them with the registerer.
func NewGCMetrics(registerer prometheus.Registerer) *GCMetrics {
	factory := promauto.With(registerer)
	return &GCMetrics{
		Rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rounds_total",
			Help:      "Number of garbage collection rounds by outcome.",
		}, []string{"outcome"}),
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "phase_duration_seconds",
			Help:      "Duration of the garbage collection phases.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"phase"}),
		MarkedNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "marked_nodes",
			Help:      "Number of nodes marked reachable by the last round.",
		}),
		FalsePositiveRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "marker_false_positive_rate",
			Help:      "Estimated false positive rate of the marker of the last round.",
		}),
		KeptNodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "kept_nodes_total",
			Help:      "Number of stale nodes kept since they are still referenced.",
		}),
		DeletedNodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "deleted_nodes_total",
			Help:      "Number of unreachable nodes removed from the node store.",
		}),
		RecycledNodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "recycled_nodes_total",
			Help:      "Number of removed nodes moved to the recycle bin.",
		}),
		ReclaimedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reclaimed_bytes_total",
			Help:      "Encoded size of the nodes removed from the node store.",
		}),
		LastRoundTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_round_timestamp_seconds",
			Help:      "Unix time at which the last round finished.",
		}),
	}
}

// ObservePhase records the duration of a phase.
func (m *GCMetrics) ObservePhase(phase string, duration time.Duration) {
	m.PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// ObserveMark records the outcome of a mark phase.
func (m *GCMetrics) ObserveMark(marked uint64, falsePositiveRate float64) {
	m.MarkedNodes.Set(float64(marked))
	m.FalsePositiveRate.Set(falsePositiveRate)
}

// ObserveSweep records the outcome of a sweep which was written.
func (m *GCMetrics) ObserveSweep(kept, deleted, recycled, bytes uint64) {
	m.KeptNodes.Add(float64(kept))
	m.DeletedNodes.Add(float64(deleted))
	m.RecycledNodes.Add(float64(recycled))
	m.ReclaimedBytes.Add(float64(bytes))
}

// ObserveRound records the end of a round.
func (m *GCMetrics) ObserveRound(outcome string, finishedAt time.Time) {
	m.Rounds.WithLabelValues(outcome).Inc()
	m.LastRoundTime.Set(float64(finishedAt.Unix()))
}
