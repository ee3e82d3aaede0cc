/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracerecorder

import (
	"context"
	"strconv"

	"chainguard.dev/pipetrace/agents/pipeline"
	"github.com/chainguard-dev/clog"
)

// guard keeps a panicking capability method on a pipeline instance from escaping a hook.
func (r *Recorder) guard(ctx context.Context, hook, callID string) {
	if v := recover(); v != nil {
		clog.FromContext(ctx).With("hook", hook, "call_id", callID).Errorf("Trace hook panicked: %v", v)
	}
}

// OnModuleStart records the module's class name as the component.
func (r *Recorder) OnModuleStart(ctx context.Context, callID string, instance any, inputs map[string]any) {
	defer r.guard(ctx, "module_start", callID)

	component := pipeline.ClassName(instance)
	r.Record(ctx, ModuleStart, component, callID, inputs, pipeline.None(), nil)
	r.mirror(ctx, "module_"+callID, component)
}

// OnModuleEnd records the module end under the component of its start.
func (r *Recorder) OnModuleEnd(ctx context.Context, callID string, outputs pipeline.Outputs, err error) {
	defer r.guard(ctx, "module_end", callID)

	component := r.startComponent(FamilyModule, callID)
	r.Record(ctx, ModuleEnd, component, callID, nil, outputs, err)
	r.mirrorOutcome(ctx, "module_"+callID, outputs, err)
}

// OnLMStart records a language-model call and mirrors its model.
func (r *Recorder) OnLMStart(ctx context.Context, callID string, instance any, inputs map[string]any) {
	defer r.guard(ctx, "lm_start", callID)

	r.Record(ctx, LMStart, LMComponent, callID, inputs, pipeline.None(), nil)

	model, ok := pipeline.ModelName(instance)
	if !ok {
		model = "unknown"
	}
	r.mu.Lock()
	r.models[callID] = model
	r.mu.Unlock()

	r.mirror(ctx, "lm_"+callID+"_model", model)
}

// OnLMEnd records a language-model result and mirrors its total token usage.
func (r *Recorder) OnLMEnd(ctx context.Context, callID string, outputs pipeline.Outputs, err error) {
	defer r.guard(ctx, "lm_end", callID)

	r.Record(ctx, LMEnd, LMComponent, callID, nil, outputs, err)

	r.mu.Lock()
	model, ok := r.models[callID]
	delete(r.models, callID)
	r.mu.Unlock()
	if !ok {
		model = "unknown"
	}

	usage := outputs.Usage()
	if usage != (pipeline.Usage{}) {
		r.genai.RecordTokens(ctx, model, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}

	switch {
	case err != nil:
		r.mirror(ctx, "lm_"+callID+"_error", truncate(err.Error(), r.paramLimit))
	case outputs.Present():
		r.mirror(ctx, "lm_"+callID+"_tokens", strconv.FormatInt(usage.TotalTokens, 10))
	}
}

// OnToolStart records the tool's declared name, or class name, as the component.
func (r *Recorder) OnToolStart(ctx context.Context, callID string, instance any, inputs map[string]any) {
	defer r.guard(ctx, "tool_start", callID)

	name := pipeline.ToolName(instance)
	r.Record(ctx, ToolStart, name, callID, inputs, pipeline.None(), nil)
	r.genai.RecordToolCall(ctx, name)
	r.mirror(ctx, "tool_"+callID, name)
}

// OnToolEnd records the tool end under the component of its start.
func (r *Recorder) OnToolEnd(ctx context.Context, callID string, outputs pipeline.Outputs, err error) {
	defer r.guard(ctx, "tool_end", callID)

	name := r.startComponent(FamilyTool, callID)
	r.Record(ctx, ToolEnd, name, callID, nil, outputs, err)
	r.mirrorOutcome(ctx, "tool_"+callID, outputs, err)
}

func (r *Recorder) mirrorOutcome(ctx context.Context, prefix string, outputs pipeline.Outputs, err error) {
	switch {
	case err != nil:
		r.mirror(ctx, prefix+"_error", truncate(err.Error(), r.paramLimit))
	case outputs.Present():
		r.mirror(ctx, prefix+"_success", "true")
	}
}
