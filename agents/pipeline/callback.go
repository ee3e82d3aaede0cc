/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import "context"

// Callback receives lifecycle notifications from the pipeline.
// Implementations must not panic; a failing hook would break the host pipeline.
type Callback interface {
	// OnModuleStart is called before a module runs.
	OnModuleStart(ctx context.Context, callID string, instance any, inputs map[string]any)
	// OnModuleEnd is called after a module returns or fails.
	OnModuleEnd(ctx context.Context, callID string, outputs Outputs, err error)

	// OnLMStart is called before a language-model request is sent.
	OnLMStart(ctx context.Context, callID string, instance any, inputs map[string]any)
	// OnLMEnd is called when a language-model request completes.
	OnLMEnd(ctx context.Context, callID string, outputs Outputs, err error)

	// OnToolStart is called before a tool executes.
	OnToolStart(ctx context.Context, callID string, instance any, inputs map[string]any)
	// OnToolEnd is called after a tool returns or fails.
	OnToolEnd(ctx context.Context, callID string, outputs Outputs, err error)
}

// BaseCallback implements Callback with no-op hooks. Embed it to implement a subset.
type BaseCallback struct{}

var _ Callback = BaseCallback{}

func (BaseCallback) OnModuleStart(context.Context, string, any, map[string]any) {}
func (BaseCallback) OnModuleEnd(context.Context, string, Outputs, error)        {}
func (BaseCallback) OnLMStart(context.Context, string, any, map[string]any)     {}
func (BaseCallback) OnLMEnd(context.Context, string, Outputs, error)            {}
func (BaseCallback) OnToolStart(context.Context, string, any, map[string]any)   {}
func (BaseCallback) OnToolEnd(context.Context, string, Outputs, error)          {}
