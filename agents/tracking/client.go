/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracking

import (
	"context"
	"errors"
)

var (
	// ErrNoActiveRun is returned by operations that need an open run.
	ErrNoActiveRun = errors.New("no active run")
	// ErrNoExperiment is returned when a run is started before an experiment is selected.
	ErrNoExperiment = errors.New("no experiment selected")
)

// Run identifies a tracking-service run.
type Run struct {
	ID           string `json:"run_id"`
	Name         string `json:"run_name"`
	ExperimentID string `json:"experiment_id,omitempty"`
}

// Client is the run-tracking service the recorder mirrors to.
// Calls may be slow network round trips; callers treat every error as non-fatal.
type Client interface {
	// SetTrackingURI points the client at a tracking server.
	SetTrackingURI(ctx context.Context, uri string) error
	// SetExperiment selects, creating if needed, the experiment new runs belong to.
	SetExperiment(ctx context.Context, name string) error
	// Autolog enables the client's automatic instrumentation for pipeline runs.
	Autolog(ctx context.Context) error

	// StartRun opens a run and makes it the active run.
	StartRun(ctx context.Context, name string) (Run, error)
	// ActiveRun returns the active run, if any.
	ActiveRun(ctx context.Context) (Run, bool)
	// EndRun closes the active run.
	EndRun(ctx context.Context) error

	// LogParam records a key/value parameter on the active run.
	LogParam(ctx context.Context, key, value string) error
}
