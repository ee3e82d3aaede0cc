/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package mlflow implements tracking.Client against an MLflow tracking server's REST API.

	client, err := mlflow.New("http://127.0.0.1:8080")
	if err != nil {
		return err
	}
	if err := client.SetExperiment(ctx, "G-Buddy-DSPy"); err != nil {
		return err
	}
	run, err := client.StartRun(ctx, "nightly")
	...
	_ = client.LogParam(ctx, "module_c1", "Predict")
	_ = client.EndRun(ctx)

The client keeps the active run locally; MLflow itself has no notion of an
active run outside its language SDKs.
*/
package mlflow
