// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the engine.
//
// # Description
//
// Metrics cover the three board operations (get, assign, reset),
// puzzle generation latency, propagation effects (forced collapses per
// assignment), and the live session gauge. Exposed via /metrics for
// Prometheus scraping.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace and subsystem for all engine metrics.
const (
	metricsNamespace = "qsudoku"
	engineSubsystem  = "engine"
)

// EngineMetrics holds all Prometheus metrics for the sudoku engine.
//
// Initialize once at startup via InitMetrics().
type EngineMetrics struct {
	// RequestsTotal counts board operations by endpoint and status.
	// Labels: endpoint (board, assign, reset), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// AssignmentsTotal counts assignments by kind and outcome.
	// Labels: kind (collapse, partial), status (success, invalid,
	// already_fixed, conflict)
	AssignmentsTotal *prometheus.CounterVec

	// ForcedCollapses measures cells auto-collapsed per successful
	// assignment, the target excluded.
	ForcedCollapses prometheus.Histogram

	// GenerationSeconds measures puzzle generation latency.
	// Labels: difficulty
	GenerationSeconds *prometheus.HistogramVec

	// BoardsGeneratedTotal counts generated puzzles by difficulty.
	BoardsGeneratedTotal *prometheus.CounterVec

	// ActiveSessions tracks live game sessions.
	ActiveSessions prometheus.Gauge
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *EngineMetrics

var initOnce sync.Once

// InitMetrics initializes and registers the default metrics instance.
// Safe to call more than once; registration happens on the first call.
func InitMetrics() *EngineMetrics {
	initOnce.Do(func() {
		DefaultMetrics = &EngineMetrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: engineSubsystem,
					Name:      "requests_total",
					Help:      "Total board operations by endpoint and status",
				},
				[]string{"endpoint", "status"},
			),

			AssignmentsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: engineSubsystem,
					Name:      "assignments_total",
					Help:      "Total cell assignments by kind and outcome",
				},
				[]string{"kind", "status"},
			),

			ForcedCollapses: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: engineSubsystem,
					Name:      "forced_collapses",
					Help:      "Cells auto-collapsed by propagation per successful assignment",
					Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
				},
			),

			GenerationSeconds: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: engineSubsystem,
					Name:      "generation_seconds",
					Help:      "Puzzle generation latency in seconds",
					Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
				},
				[]string{"difficulty"},
			),

			BoardsGeneratedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: engineSubsystem,
					Name:      "boards_generated_total",
					Help:      "Total puzzles generated by difficulty",
				},
				[]string{"difficulty"},
			),

			ActiveSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: engineSubsystem,
					Name:      "active_sessions",
					Help:      "Number of live game sessions",
				},
			),
		}
	})
	return DefaultMetrics
}

// AssignmentKind labels an assignment for metrics.
type AssignmentKind string

const (
	// KindCollapse is a single-candidate assignment.
	KindCollapse AssignmentKind = "collapse"

	// KindPartial is a multi-candidate restriction.
	KindPartial AssignmentKind = "partial"
)

// RecordRequest records a completed board operation.
func (m *EngineMetrics) RecordRequest(endpoint string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// RecordAssignment records an assignment outcome.
func (m *EngineMetrics) RecordAssignment(kind AssignmentKind, status string) {
	m.AssignmentsTotal.WithLabelValues(string(kind), status).Inc()
}

// RecordForcedCollapses records how many peers propagation collapsed.
func (m *EngineMetrics) RecordForcedCollapses(count int) {
	m.ForcedCollapses.Observe(float64(count))
}

// RecordGeneration records a puzzle generation.
func (m *EngineMetrics) RecordGeneration(difficulty string, seconds float64) {
	m.GenerationSeconds.WithLabelValues(difficulty).Observe(seconds)
	m.BoardsGeneratedTotal.WithLabelValues(difficulty).Inc()
}

// SetActiveSessions updates the live session gauge.
func (m *EngineMetrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}
