/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package pipeline describes the callback surface of an ML pipeline framework.

The framework invokes six lifecycle hooks on every registered Callback: a
start/end pair for modules, language-model calls and tools. A start and its
matching end share a caller-supplied call id.

# Outputs

End hooks receive an Outputs value, which is either absent, a structured
mapping, or an opaque value:

	outputs := pipeline.Mapping(map[string]any{
		"answer":    "42",
		"reasoning": "six times seven",
		"usage":     map[string]any{"total_tokens": 37},
	})
	reasoning, _ := outputs.Reasoning() // "six times seven"
	tokens := outputs.TotalTokens()      // 37

# Settings

Settings holds the framework's global callback list:

	settings := pipeline.NewSettings()
	settings.Append(recorder)
	settings.Dispatch(ctx, func(cb pipeline.Callback) {
		cb.OnModuleStart(ctx, "c1", predict, map[string]any{"q": "hi"})
	})
*/
package pipeline
