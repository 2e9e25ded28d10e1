// Package metrics provides Prometheus metrics for the player agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveRooms tracks the number of live room records.
	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_active_rooms",
			Help: "Number of currently live room records",
		},
	)

	// RunsSubmitted tracks the total number of runs submitted.
	RunsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_runs_submitted_total",
			Help: "Total number of runs submitted to the remote service",
		},
	)

	// EventsReceived tracks push events read from the shared stream.
	EventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_stream_events_received_total",
			Help: "Total number of push events received on the shared stream",
		},
	)

	// EventsDropped tracks events rejected by room validation.
	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_stream_events_dropped_total",
			Help: "Total number of stale or mismatched events dropped",
		},
	)

	// EventsDispatched tracks accepted events by status.
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_stream_events_dispatched_total",
			Help: "Total number of validated events dispatched, by status",
		},
		[]string{"status"},
	)

	// ArtifactsRelayed tracks output files delivered back to conversations.
	ArtifactsRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_artifacts_relayed_total",
			Help: "Total number of output files relayed to conversations",
		},
	)

	// ReconcileErrors tracks failures during the periodic progress sweep.
	ReconcileErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_reconcile_errors_total",
			Help: "Total number of errors during room reconciliation",
		},
	)
)
