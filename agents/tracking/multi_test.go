/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracking_test

import (
	"context"
	"errors"
	"testing"

	"chainguard.dev/pipetrace/agents/tracking"
	"chainguard.dev/pipetrace/agents/tracking/trackingtest"
	"github.com/google/go-cmp/cmp"
)

func TestMultiForwardsToAll(t *testing.T) {
	ctx := context.Background()
	a, b := trackingtest.NewFake(), trackingtest.NewFake()
	m := tracking.Multi(a, nil, b)

	if err := m.SetExperiment(ctx, "exp"); err != nil {
		t.Fatalf("SetExperiment: %v", err)
	}
	run, err := m.StartRun(ctx, "r")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := m.LogParam(ctx, "k", "v"); err != nil {
		t.Fatalf("LogParam: %v", err)
	}

	if got, ok := m.ActiveRun(ctx); !ok || got != run {
		t.Errorf("ActiveRun: got = (%v, %v), wanted = (%v, true)", got, ok, run)
	}
	for name, f := range map[string]*trackingtest.Fake{"a": a, "b": b} {
		if f.Experiment() != "exp" {
			t.Errorf("%s experiment: got = %q, wanted = exp", name, f.Experiment())
		}
		if diff := cmp.Diff(map[string]string{"k": "v"}, f.Params(f.Runs()[0].ID)); diff != "" {
			t.Errorf("%s params (-want +got):\n%s", name, diff)
		}
	}
}

func TestMultiSecondaryFailure(t *testing.T) {
	ctx := context.Background()
	primary := trackingtest.NewFake()
	m := tracking.Multi(primary, trackingtest.Failing{})

	if _, err := m.StartRun(ctx, "r"); err != nil {
		t.Fatalf("StartRun with failing secondary: got = %v, wanted = nil", err)
	}
	err := m.LogParam(ctx, "k", "v")
	if !errors.Is(err, trackingtest.ErrUnavailable) {
		t.Errorf("LogParam: got = %v, wanted = %v", err, trackingtest.ErrUnavailable)
	}
	if got := primary.Params(primary.Runs()[0].ID)["k"]; got != "v" {
		t.Errorf("primary param: got = %q, wanted = v", got)
	}
}

func TestMultiPrimaryFailure(t *testing.T) {
	m := tracking.Multi(trackingtest.Failing{}, trackingtest.NewFake())
	if _, err := m.StartRun(context.Background(), "r"); err == nil {
		t.Error("StartRun with failing primary: got = nil, wanted = error")
	}
}

func TestMultiEmpty(t *testing.T) {
	m := tracking.Multi()
	if _, err := m.StartRun(context.Background(), "r"); !errors.Is(err, tracking.ErrNoActiveRun) {
		t.Errorf("StartRun: got = %v, wanted = %v", err, tracking.ErrNoActiveRun)
	}
	if _, ok := m.ActiveRun(context.Background()); ok {
		t.Error("ActiveRun: got = true, wanted = false")
	}
}
