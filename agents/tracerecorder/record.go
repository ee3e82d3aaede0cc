/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracerecorder

import (
	"chainguard.dev/pipetrace/agents/pipeline"
)

// EventType identifies which lifecycle hook produced a record.
type EventType string

const (
	ModuleStart EventType = "MODULE_START"
	ModuleEnd   EventType = "MODULE_END"
	LMStart     EventType = "LM_START"
	LMEnd       EventType = "LM_END"
	ToolStart   EventType = "TOOL_START"
	ToolEnd     EventType = "TOOL_END"
)

// Family groups the start and end events of one kind of operation.
type Family string

const (
	FamilyModule Family = "module"
	FamilyLM     Family = "lm"
	FamilyTool   Family = "tool"
)

// Family returns the event family of t.
func (t EventType) Family() Family {
	switch t {
	case ModuleStart, ModuleEnd:
		return FamilyModule
	case LMStart, LMEnd:
		return FamilyLM
	case ToolStart, ToolEnd:
		return FamilyTool
	}
	return ""
}

// IsEnd reports whether t closes an operation.
func (t EventType) IsEnd() bool {
	return t == ModuleEnd || t == LMEnd || t == ToolEnd
}

const (
	// UnknownComponent names the component of an end event with no matching start.
	UnknownComponent = "Unknown"
	// LMComponent is the component of every language-model event.
	LMComponent = "LM_Call"
)

// Record is one lifecycle event. Records are never modified once appended.
type Record struct {
	Type      EventType        `json:"type"`
	Component string           `json:"component"`
	CallID    string           `json:"call_id"`
	Timestamp string           `json:"timestamp"`
	Inputs    map[string]any   `json:"inputs"`
	Outputs   pipeline.Outputs `json:"outputs"`
	Exception string           `json:"exception,omitempty"`
	Reasoning string           `json:"reasoning,omitempty"`
}

// correlationKey scopes call ids per family, so a tool and a module sharing an id stay apart.
type correlationKey struct {
	family Family
	callID string
}
