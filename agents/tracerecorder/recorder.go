/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracerecorder

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"chainguard.dev/pipetrace/agents/metrics"
	"chainguard.dev/pipetrace/agents/pipeline"
	"chainguard.dev/pipetrace/agents/tracerecorder/dumpsink"
	"chainguard.dev/pipetrace/agents/tracking"
	"github.com/chainguard-dev/clog"
)

const (
	// DefaultExperiment is the experiment used when Configure is given none.
	DefaultExperiment = "G-Buddy-DSPy"
	// DefaultTrackingURI is the tracking server used when Configure is given none.
	DefaultTrackingURI = "http://127.0.0.1:8080"

	timestampLayout = "2006-01-02T15:04:05.000000"
	nameLayout      = "20060102_150405"
)

// Recorder buffers pipeline lifecycle events and mirrors them to a tracking client.
// The in-memory records are authoritative; tracking failures are logged and never returned.
type Recorder struct {
	client     tracking.Client
	now        func() time.Time
	sink       dumpsink.Sink
	genai      *metrics.GenAI
	paramLimit int

	mu      sync.Mutex
	records []Record
	starts  map[correlationKey]int
	models  map[string]string
	runID   string
	runName string
}

var _ pipeline.Callback = (*Recorder)(nil)

// New creates a recorder with an empty trace and no active run.
// A nil client records in memory only.
func New(client tracking.Client, opts ...Option) *Recorder {
	if client == nil {
		client = tracking.Multi()
	}
	r := &Recorder{
		client:     client,
		now:        time.Now,
		sink:       dumpsink.File{},
		genai:      metrics.NewGenAI(metrics.DefaultMeterName),
		paramLimit: DefaultParamLimit,
		starts:     make(map[correlationKey]int),
		models:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configure points the tracking client at a server and experiment and enables autologging.
// Failures are logged as warnings; the recorder keeps buffering in memory.
func (r *Recorder) Configure(ctx context.Context, experimentName, trackingURI string) {
	if experimentName == "" {
		experimentName = DefaultExperiment
	}
	if trackingURI == "" {
		trackingURI = DefaultTrackingURI
	}
	log := clog.FromContext(ctx).With("experiment", experimentName, "tracking_uri", trackingURI)

	steps := []struct {
		op string
		fn func() error
	}{
		{"set_tracking_uri", func() error { return r.client.SetTrackingURI(ctx, trackingURI) }},
		{"set_experiment", func() error { return r.client.SetExperiment(ctx, experimentName) }},
		{"autolog", func() error { return r.client.Autolog(ctx) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			trackingFailures.WithLabelValues(step.op).Inc()
			log.Warnf("Tracking setup failed: %v", err)
			return
		}
	}
	log.Info("Tracking configured")
}

// StartRun opens a tracking run and clears the trace. An empty name gets a timestamped default.
// If the client fails the recorder is left without a run.
func (r *Recorder) StartRun(ctx context.Context, name string) {
	if name == "" {
		name = "dspy_run_" + r.now().Format(nameLayout)
	}
	log := clog.FromContext(ctx).With("run_name", name)

	run, err := r.client.StartRun(ctx, name)

	r.mu.Lock()
	r.records = nil
	clear(r.starts)
	clear(r.models)
	r.runID, r.runName = "", ""
	if err == nil {
		r.runID, r.runName = run.ID, name
	}
	r.mu.Unlock()

	if err != nil {
		runsCounter.WithLabelValues("failed").Inc()
		trackingFailures.WithLabelValues("start_run").Inc()
		log.Errorf("Failed to start tracking run: %v", err)
		return
	}
	runsCounter.WithLabelValues("started").Inc()
	log.With("run_id", run.ID).Info("Started tracking run")
}

// EndRun closes the active run. It is a no-op without one.
func (r *Recorder) EndRun(ctx context.Context) {
	r.mu.Lock()
	runID := r.runID
	r.runID, r.runName = "", ""
	r.mu.Unlock()

	if runID == "" {
		return
	}
	log := clog.FromContext(ctx).With("run_id", runID)
	if err := r.client.EndRun(ctx); err != nil {
		trackingFailures.WithLabelValues("end_run").Inc()
		log.Errorf("Failed to end tracking run: %v", err)
		return
	}
	log.Info("Ended tracking run")
}

// RunID returns the active run id, empty without a run.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// Active reports whether a run is active.
func (r *Recorder) Active() bool {
	return r.RunID() != ""
}

// Records returns a copy of the trace in append order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Len returns the number of records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Record appends a record and mirrors its type, component and inputs to the active run.
func (r *Recorder) Record(ctx context.Context, typ EventType, component, callID string, inputs map[string]any, outputs pipeline.Outputs, exc error) Record {
	rec := Record{
		Type:      typ,
		Component: component,
		CallID:    callID,
		Timestamp: r.now().Format(timestampLayout),
		Inputs:    cloneInputs(inputs),
		Outputs:   outputs,
	}
	if rec.Inputs == nil {
		rec.Inputs = map[string]any{}
	}
	if exc != nil {
		rec.Exception = exc.Error()
	}
	if reasoning, ok := safeReasoning(outputs); ok {
		rec.Reasoning = reasoning
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	n := len(r.records)
	if !typ.IsEnd() {
		r.starts[correlationKey{family: typ.Family(), callID: callID}] = n - 1
	}
	runID := r.runID
	r.mu.Unlock()

	recordsCounter.WithLabelValues(string(typ)).Inc()
	r.genai.RecordEvent(ctx, string(typ), component, exc != nil)

	if runID != "" {
		r.logParam(ctx, fmt.Sprintf("trace_%d_type", n), string(typ))
		r.logParam(ctx, fmt.Sprintf("trace_%d_component", n), component)
		if len(inputs) > 0 {
			r.logParam(ctx, fmt.Sprintf("trace_%d_inputs", n), truncate(compactJSON(inputs), r.paramLimit))
		}
	}
	return rec
}

// startComponent resolves the component of the most recent start in family with callID.
func (r *Recorder) startComponent(family Family, callID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.starts[correlationKey{family: family, callID: callID}]; ok && i < len(r.records) {
		return r.records[i].Component
	}
	return UnknownComponent
}

// mirror logs a parameter if a run is active.
func (r *Recorder) mirror(ctx context.Context, key, value string) {
	if !r.Active() {
		return
	}
	r.logParam(ctx, key, value)
}

func (r *Recorder) logParam(ctx context.Context, key, value string) {
	if err := r.client.LogParam(ctx, key, value); err != nil {
		trackingFailures.WithLabelValues("log_param").Inc()
		clog.FromContext(ctx).With("key", key).Debugf("Tracking param logging failed: %v", err)
	}
}

func safeReasoning(outputs pipeline.Outputs) (reasoning string, ok bool) {
	defer func() {
		if recover() != nil {
			reasoning, ok = "", false
		}
	}()
	return outputs.Reasoning()
}

// cloneInputs copies inputs along with any nested maps and slices, so later
// changes by the caller do not reach the trace. Other values are shared.
func cloneInputs(inputs map[string]any) map[string]any {
	if inputs == nil {
		return nil
	}
	out := make(map[string]any, len(inputs))
	for k, v := range inputs {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneInputs(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	}
	return v
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
