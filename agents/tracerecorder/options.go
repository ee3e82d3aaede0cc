/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracerecorder

import (
	"time"

	"chainguard.dev/pipetrace/agents/metrics"
	"chainguard.dev/pipetrace/agents/tracerecorder/dumpsink"
)

// DefaultParamLimit is the longest value mirrored for inputs and exceptions.
const DefaultParamLimit = 500

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the clock used for timestamps and default names.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSink sets where Persist writes dumps. The default writes local files.
func WithSink(sink dumpsink.Sink) Option {
	return func(r *Recorder) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithGenAIMetrics sets the OpenTelemetry counters events are reported to.
func WithGenAIMetrics(m *metrics.GenAI) Option {
	return func(r *Recorder) {
		if m != nil {
			r.genai = m
		}
	}
}

// WithParamLimit sets the truncation length for mirrored inputs and exceptions.
func WithParamLimit(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.paramLimit = n
		}
	}
}
