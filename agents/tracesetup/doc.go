/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package tracesetup wires a trace recorder into a pipeline in one call.

	cfg, err := tracesetup.LoadConfig(ctx)
	if err != nil {
		return err
	}
	client, err := mlflow.New(cfg.TrackingURI)
	if err != nil {
		return err
	}
	tracing := tracesetup.Setup(ctx, settings, client, cfg)
	defer tracing.Close(ctx)

	// ... run the pipeline ...

	tracing.Print(os.Stdout)
	tracing.Save(ctx, "")

Setup returns a Handle instead of storing process-wide state; pass it to
whatever needs the dump. A nil Handle answers every call with a "not
initialized" result.
*/
package tracesetup
