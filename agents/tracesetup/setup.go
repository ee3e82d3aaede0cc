/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracesetup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"chainguard.dev/pipetrace/agents/metrics"
	"chainguard.dev/pipetrace/agents/pipeline"
	"chainguard.dev/pipetrace/agents/tracerecorder"
	"chainguard.dev/pipetrace/agents/tracerecorder/dumpsink"
	"chainguard.dev/pipetrace/agents/tracking"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// NotInitialized is what a nil Handle reports instead of a dump.
	NotInitialized = "Tracing not initialized. Call tracesetup.Setup() first."
	// BannerTitle is printed between the banner lines by Print.
	BannerTitle = "COPY-PASTE READY TRACE DUMP"
)

var banner = strings.Repeat("=", 80)

// Handle is the result of Setup. A nil Handle is valid and reports that tracing is not initialized.
type Handle struct {
	recorder *tracerecorder.Recorder
}

// Setup creates a recorder, configures its tracking client, registers it with
// settings and, if cfg.AutoStartRun, starts a run. Options override what cfg implies.
func Setup(ctx context.Context, settings *pipeline.Settings, client tracking.Client, cfg Config, opts ...tracerecorder.Option) *Handle {
	experiment := cfg.ExperimentName
	if experiment == "" {
		experiment = tracerecorder.DefaultExperiment
	}
	genai := metrics.NewGenAI(metrics.DefaultMeterName)
	genai.SetAttributeEnricher(metrics.WithStatic(attribute.String("experiment", experiment)))

	defaults := []tracerecorder.Option{
		tracerecorder.WithGenAIMetrics(genai),
		tracerecorder.WithSink(dumpsink.NewAuto(cfg.TraceDir)),
	}
	rec := tracerecorder.New(client, append(defaults, opts...)...)
	rec.Configure(ctx, cfg.ExperimentName, cfg.TrackingURI)

	if settings != nil {
		settings.Append(rec)
	}
	if cfg.AutoStartRun {
		rec.StartRun(ctx, cfg.RunName)
	}

	clog.FromContext(ctx).With("experiment", experiment).Info("Tracing setup complete")
	return &Handle{recorder: rec}
}

// Recorder returns the recorder, nil when not initialized.
func (h *Handle) Recorder() *tracerecorder.Recorder {
	if h == nil {
		return nil
	}
	return h.recorder
}

// Dump returns the rendered trace, or NotInitialized.
func (h *Handle) Dump() string {
	if h == nil || h.recorder == nil {
		return NotInitialized
	}
	return h.recorder.Render()
}

// Save persists the trace and returns the local path or gs:// url written,
// empty when not initialized or on failure.
func (h *Handle) Save(ctx context.Context, filename string) string {
	if h == nil || h.recorder == nil {
		return ""
	}
	name, err := h.recorder.Persist(ctx, filename)
	if err != nil {
		return ""
	}
	return name
}

// Print writes the dump to w between banner lines.
func (h *Handle) Print(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, BannerTitle)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, h.Dump())
	fmt.Fprintln(w, banner)
}

// Close ends the active run, if any.
func (h *Handle) Close(ctx context.Context) {
	if h == nil || h.recorder == nil {
		return
	}
	h.recorder.EndRun(ctx)
}
