/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package tracerecorder records ML pipeline lifecycle events for later inspection.

A Recorder implements pipeline.Callback. Every hook appends a Record to an
in-memory trace and, while a run is active, mirrors a few fields to a
tracking.Client as run parameters. Tracking failures are logged and never
reach the pipeline.

# Correlation

End events carry only a call id. Module and tool ends take the component of
the most recent start in the same family with the same call id, or "Unknown"
when there is none. Language-model events always use "LM_Call".

# Usage

	rec := tracerecorder.New(client)
	rec.Configure(ctx, "G-Buddy-DSPy", "http://127.0.0.1:8080")
	rec.StartRun(ctx, "")
	settings.Append(rec)

	// ... run the pipeline ...

	rec.EndRun(ctx)
	fmt.Println(rec.Render())
	name, err := rec.Persist(ctx, "")

# Mirrored parameters

	trace_<n>_type, trace_<n>_component, trace_<n>_inputs   every record (n is 1-based)
	module_<id>, module_<id>_success, module_<id>_error    module hooks
	lm_<id>_model, lm_<id>_tokens, lm_<id>_error           language-model hooks
	tool_<id>, tool_<id>_success, tool_<id>_error          tool hooks
*/
package tracerecorder
