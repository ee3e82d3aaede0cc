/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package trackingtest provides tracking.Client doubles for tests.
package trackingtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"chainguard.dev/pipetrace/agents/tracking"
)

// ErrUnavailable is returned by every Failing call.
var ErrUnavailable = errors.New("tracking server unavailable")

// Fake is an in-memory tracking.Client.
type Fake struct {
	mu         sync.Mutex
	uri        string
	experiment string
	autolog    bool
	nextID     int
	active     *tracking.Run
	runs       []tracking.Run
	params     map[string]map[string]string
	ended      []string
}

var _ tracking.Client = (*Fake)(nil)

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{params: make(map[string]map[string]string)}
}

func (f *Fake) SetTrackingURI(_ context.Context, uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uri = uri
	return nil
}

func (f *Fake) SetExperiment(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.experiment = name
	return nil
}

func (f *Fake) Autolog(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autolog = true
	return nil
}

// StartRun ends any active run first, as mlflow.Client does.
func (f *Fake) StartRun(_ context.Context, name string) (tracking.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active != nil {
		f.ended = append(f.ended, f.active.ID)
	}
	f.nextID++
	run := tracking.Run{
		ID:           fmt.Sprintf("run-%d", f.nextID),
		Name:         name,
		ExperimentID: f.experiment,
	}
	f.active = &run
	f.runs = append(f.runs, run)
	f.params[run.ID] = make(map[string]string)
	return run, nil
}

func (f *Fake) ActiveRun(context.Context) (tracking.Run, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return tracking.Run{}, false
	}
	return *f.active, true
}

func (f *Fake) EndRun(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return tracking.ErrNoActiveRun
	}
	f.ended = append(f.ended, f.active.ID)
	f.active = nil
	return nil
}

func (f *Fake) LogParam(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return tracking.ErrNoActiveRun
	}
	f.params[f.active.ID][key] = value
	return nil
}

// TrackingURI returns the last URI set.
func (f *Fake) TrackingURI() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uri
}

// Experiment returns the last experiment set.
func (f *Fake) Experiment() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.experiment
}

// Autologging reports whether Autolog was called.
func (f *Fake) Autologging() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.autolog
}

// Runs returns every run started, in order.
func (f *Fake) Runs() []tracking.Run {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tracking.Run(nil), f.runs...)
}

// Ended returns the ids of ended runs, in order.
func (f *Fake) Ended() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ended...)
}

// Params returns a copy of the parameters logged to runID.
func (f *Fake) Params(runID string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.params[runID]))
	for k, v := range f.params[runID] {
		out[k] = v
	}
	return out
}

// Failing is a tracking.Client whose every call fails.
type Failing struct {
	Err error
}

var _ tracking.Client = Failing{}

func (f Failing) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrUnavailable
}

func (f Failing) SetTrackingURI(context.Context, string) error { return f.err() }
func (f Failing) SetExperiment(context.Context, string) error  { return f.err() }
func (f Failing) Autolog(context.Context) error                { return f.err() }
func (f Failing) StartRun(context.Context, string) (tracking.Run, error) {
	return tracking.Run{}, f.err()
}
func (f Failing) ActiveRun(context.Context) (tracking.Run, bool) { return tracking.Run{}, false }
func (f Failing) EndRun(context.Context) error                   { return f.err() }
func (f Failing) LogParam(context.Context, string, string) error { return f.err() }

// Flaky succeeds at starting and ending runs but fails every LogParam.
type Flaky struct {
	*Fake
}

// NewFlaky creates a Flaky client.
func NewFlaky() Flaky {
	return Flaky{Fake: NewFake()}
}

func (Flaky) LogParam(context.Context, string, string) error { return ErrUnavailable }
