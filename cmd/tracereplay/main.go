/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main replays a YAML script of pipeline lifecycle events through a
// trace recorder, mirroring to MLflow and writing the Markdown trace dump.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chainguard.dev/pipetrace/agents/pipeline"
	"chainguard.dev/pipetrace/agents/replay"
	"chainguard.dev/pipetrace/agents/tracesetup"
	"chainguard.dev/pipetrace/agents/tracking"
	"chainguard.dev/pipetrace/agents/tracking/mlflow"
	"chainguard.dev/pipetrace/agents/tracking/oteltracking"
	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const serviceName = "tracereplay"

type options struct {
	script     string
	out        string
	print      bool
	summary    bool
	schema     bool
	otelStdout bool
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Replay pipeline lifecycle events through a trace recorder",
		Long:          "Replays a YAML script of pipeline lifecycle events through a trace recorder,\nmirroring the run to MLflow and writing the Markdown trace dump.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&o.script, "script", "", "path of the YAML event script to replay")
	cmd.Flags().StringVar(&o.out, "out", "", "trace dump destination, a path or gs://bucket/object (default: timestamped file)")
	cmd.Flags().BoolVar(&o.print, "print", false, "print the trace dump to stdout")
	cmd.Flags().BoolVar(&o.summary, "summary", false, "print a per-component summary table to stdout")
	cmd.Flags().BoolVar(&o.schema, "schema", false, "print the JSON schema of the script format and exit")
	cmd.Flags().BoolVar(&o.otelStdout, "otel-stdout", false, "also export the run as OpenTelemetry spans to stderr")
	return cmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		clog.FatalContextf(ctx, "tracereplay: %v", err)
	}
}

func run(ctx context.Context, o options, stdout, stderr io.Writer) error {
	if o.schema {
		b, err := replay.SchemaJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(b))
		return err
	}
	if o.script == "" {
		return errors.New("--script is required")
	}

	script, err := replay.LoadFile(o.script)
	if err != nil {
		return err
	}

	cfg, err := tracesetup.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.RunName == "" {
		cfg.RunName = script.RunName
	}

	var client tracking.Client
	client, err = mlflow.New(cfg.TrackingURI, mlflow.WithSourceName(serviceName))
	if err != nil {
		return fmt.Errorf("creating mlflow client: %w", err)
	}
	if o.otelStdout {
		tp, err := newTracerProvider(ctx, stderr)
		if err != nil {
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
				clog.WarnContextf(ctx, "shutting down tracer provider: %v", err)
			}
		}()
		client = tracking.Multi(client, oteltracking.New(tp))
	}

	settings := pipeline.NewSettings()
	tracing := tracesetup.Setup(ctx, settings, client, cfg)
	defer tracing.Close(context.WithoutCancel(ctx))

	if err := replay.Play(ctx, settings, script); err != nil {
		return fmt.Errorf("replaying script: %w", err)
	}
	clog.InfoContextf(ctx, "Replayed %d events", len(script.Events))

	if o.print {
		tracing.Print(stdout)
	}
	if o.summary {
		if err := tracing.Recorder().Summary(stdout); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	name := tracing.Save(ctx, o.out)
	if name == "" {
		return errors.New("trace dump was not written")
	}
	clog.InfoContextf(ctx, "Trace dump written to %s", name)
	return nil
}

// newTracerProvider exports spans synchronously so a short replay loses none at exit.
func newTracerProvider(ctx context.Context, w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("creating stdout exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	), nil
}

var _ tracking.Client = (*mlflow.Client)(nil)
