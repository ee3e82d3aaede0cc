/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracesetup

import (
	"context"
	"fmt"

	"chainguard.dev/pipetrace/agents/tracerecorder"
	"github.com/sethvargo/go-envconfig"
)

// Config is how tracing is set up, read from the environment.
type Config struct {
	ExperimentName string `env:"MLFLOW_EXPERIMENT_NAME,default=G-Buddy-DSPy"`
	TrackingURI    string `env:"MLFLOW_TRACKING_URI,default=http://127.0.0.1:8080"`
	AutoStartRun   bool   `env:"PIPETRACE_AUTO_START_RUN,default=true"`
	RunName        string `env:"PIPETRACE_RUN_NAME"`
	TraceDir       string `env:"PIPETRACE_TRACE_DIR"`
}

// DefaultConfig is the configuration with every default applied.
func DefaultConfig() Config {
	return Config{
		ExperimentName: tracerecorder.DefaultExperiment,
		TrackingURI:    tracerecorder.DefaultTrackingURI,
		AutoStartRun:   true,
	}
}

// LoadConfig reads Config from the process environment.
func LoadConfig(ctx context.Context) (Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("processing tracing config: %w", err)
	}
	return cfg, nil
}
