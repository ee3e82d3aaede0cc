/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracesetup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chainguard.dev/pipetrace/agents/pipeline"
	"chainguard.dev/pipetrace/agents/tracerecorder"
	"chainguard.dev/pipetrace/agents/tracerecorder/dumpsink"
	"chainguard.dev/pipetrace/agents/tracking/trackingtest"
	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type Predict struct{}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{
		"MLFLOW_EXPERIMENT_NAME":   "exp",
		"MLFLOW_TRACKING_URI":      "http://mlflow:5000",
		"PIPETRACE_AUTO_START_RUN": "false",
		"PIPETRACE_RUN_NAME":       "nightly",
		"PIPETRACE_TRACE_DIR":      "/tmp/traces",
	}))
	require.NoError(t, err)
	want := Config{
		ExperimentName: "exp",
		TrackingURI:    "http://mlflow:5000",
		AutoStartRun:   false,
		RunName:        "nightly",
		TraceDir:       "/tmp/traces",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{
		"PIPETRACE_AUTO_START_RUN": "maybe",
	}))
	if err == nil {
		t.Error("loadConfig with invalid bool: got = nil, wanted = error")
	}
}

func TestSetupRegistersAndStarts(t *testing.T) {
	ctx := context.Background()
	settings := pipeline.NewSettings(pipeline.BaseCallback{})
	fake := trackingtest.NewFake()

	cfg := DefaultConfig()
	cfg.RunName = "setup-run"
	h := Setup(ctx, settings, fake, cfg)

	callbacks := settings.Callbacks()
	if len(callbacks) != 2 {
		t.Fatalf("callbacks: got = %d, wanted = 2", len(callbacks))
	}
	if callbacks[1] != h.Recorder() {
		t.Error("registered callback: got a different callback, wanted the recorder")
	}
	if !h.Recorder().Active() {
		t.Error("recorder: got no run, wanted active")
	}
	if got := fake.Runs()[0].Name; got != "setup-run" {
		t.Errorf("run name: got = %q, wanted = setup-run", got)
	}
	if fake.Experiment() != cfg.ExperimentName || !fake.Autologging() {
		t.Errorf("configure: got = (%q, %v), wanted = (%q, true)", fake.Experiment(), fake.Autologging(), cfg.ExperimentName)
	}

	settings.Dispatch(ctx, func(cb pipeline.Callback) {
		cb.OnModuleStart(ctx, "c1", Predict{}, map[string]any{"q": "hi"})
	})
	if !strings.Contains(h.Dump(), "## Trace 1: MODULE_START - Predict") {
		t.Errorf("Dump missing module start:\n%s", h.Dump())
	}

	h.Close(ctx)
	if h.Recorder().Active() {
		t.Error("after Close: got active, wanted no run")
	}
}

func TestSetupWithoutAutoStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoStartRun = false
	fake := trackingtest.NewFake()

	h := Setup(context.Background(), nil, fake, cfg)
	if h.Recorder().Active() || len(fake.Runs()) != 0 {
		t.Errorf("run started without AutoStartRun: active = %v, runs = %d", h.Recorder().Active(), len(fake.Runs()))
	}
}

func TestSetupWithFailingClient(t *testing.T) {
	ctx := context.Background()
	h := Setup(ctx, pipeline.NewSettings(), trackingtest.Failing{}, DefaultConfig())

	if h.Recorder().Active() {
		t.Error("recorder with failing client: got active, wanted no run")
	}
	h.Recorder().OnModuleStart(ctx, "c1", Predict{}, nil)
	if h.Recorder().Len() != 1 {
		t.Errorf("records: got = %d, wanted = 1", h.Recorder().Len())
	}
}

func TestNilHandle(t *testing.T) {
	var h *Handle

	if got := h.Dump(); got != NotInitialized {
		t.Errorf("Dump: got = %q, wanted = %q", got, NotInitialized)
	}
	if got := h.Save(context.Background(), "x.md"); got != "" {
		t.Errorf("Save: got = %q, wanted empty", got)
	}
	if h.Recorder() != nil {
		t.Error("Recorder: got non-nil, wanted nil")
	}
	h.Close(context.Background())

	var buf bytes.Buffer
	h.Print(&buf)
	if !strings.Contains(buf.String(), NotInitialized) {
		t.Errorf("Print: got = %q, wanted to contain %q", buf.String(), NotInitialized)
	}
}

func TestPrintBanner(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoStartRun = false
	h := Setup(context.Background(), nil, trackingtest.NewFake(), cfg)

	var buf bytes.Buffer
	h.Print(&buf)

	banner := strings.Repeat("=", 80)
	want := "\n" + banner + "\n" + BannerTitle + "\n" + banner + "\nNo trace data available.\n" + banner + "\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Print (-want +got):\n%s", diff)
	}
}

func TestSaveToTraceDir(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.AutoStartRun = false
	cfg.TraceDir = t.TempDir()

	h := Setup(ctx, nil, trackingtest.NewFake(), cfg)
	h.Recorder().OnToolStart(ctx, "t1", Predict{}, nil)

	name := h.Save(ctx, "dump.md")
	if want := filepath.Join(cfg.TraceDir, "dump.md"); name != want {
		t.Fatalf("Save: got = %q, wanted = %q", name, want)
	}
	content, err := os.ReadFile(name)
	require.NoError(t, err)
	if string(content) != h.Dump() {
		t.Errorf("saved content: got = %q, wanted = %q", content, h.Dump())
	}
}

type capturingSink struct {
	names []string
}

func (c *capturingSink) Write(_ context.Context, name string, _ []byte) (string, error) {
	c.names = append(c.names, name)
	return name, nil
}

func TestSaveToGCSTraceDir(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.AutoStartRun = false
	cfg.TraceDir = "gs://bucket/dumps"

	remote := &capturingSink{}
	h := Setup(ctx, nil, trackingtest.NewFake(), cfg,
		tracerecorder.WithSink(&dumpsink.Auto{Dir: cfg.TraceDir, Remote: remote}),
		tracerecorder.WithClock(func() time.Time { return time.Date(2026, 10, 19, 11, 46, 27, 0, time.UTC) }))

	want := "gs://bucket/dumps/dspy_trace_20261019_114627.md"
	if got := h.Save(ctx, ""); got != want {
		t.Errorf("Save: got = %q, wanted = %q", got, want)
	}
	if diff := cmp.Diff([]string{want}, remote.names); diff != "" {
		t.Errorf("remote writes (-want +got):\n%s", diff)
	}
}

func TestSetupTagsMetricsWithExperiment(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	cfg := DefaultConfig()
	cfg.ExperimentName = "metrics-exp"
	h := Setup(ctx, nil, trackingtest.NewFake(), cfg)
	h.Recorder().OnToolStart(ctx, "t1", Predict{}, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "genai.tool.calls" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				if v, ok := dp.Attributes.Value("experiment"); ok && v.AsString() == "metrics-exp" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("genai.tool.calls: got no data point with experiment=metrics-exp, wanted one")
	}
}
