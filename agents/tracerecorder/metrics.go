/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracerecorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipetrace_records_total",
			Help: "Total number of trace records appended",
		},
		[]string{"type"},
	)

	trackingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipetrace_tracking_failures_total",
			Help: "Total number of tracking client calls that failed",
		},
		[]string{"operation"},
	)

	runsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipetrace_runs_total",
			Help: "Total number of runs started",
		},
		[]string{"outcome"},
	)
)
