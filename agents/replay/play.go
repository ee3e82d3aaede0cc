/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package replay

import (
	"context"
	"errors"

	"chainguard.dev/pipetrace/agents/pipeline"
	"chainguard.dev/pipetrace/agents/tracerecorder"
	"github.com/chainguard-dev/clog"
)

// component stands in for the module or tool that produced an event.
type component struct {
	class string
	name  string
}

func (c component) TypeName() string { return c.class }
func (c component) Name() string     { return c.name }

// languageModel is a component that also reports its model.
type languageModel struct {
	component
	model string
}

func (l languageModel) Model() string { return l.model }

var (
	_ pipeline.TypeNamer     = component{}
	_ pipeline.Named         = component{}
	_ pipeline.ModelProvider = languageModel{}
)

// instance returns what the hooks receive for ev. A missing instance is nil.
func (ev Event) instance() any {
	if ev.Instance == nil {
		return nil
	}
	c := component{class: ev.Instance.Class, name: ev.Instance.Name}
	if ev.Instance.Model != "" {
		return languageModel{component: c, model: ev.Instance.Model}
	}
	return c
}

func (ev Event) outputs() pipeline.Outputs {
	return pipeline.Value(ev.Outputs)
}

func (ev Event) err() error {
	if ev.Error == "" {
		return nil
	}
	return errors.New(ev.Error)
}

// Play delivers every event of s, in order, to the callbacks registered with settings.
func Play(ctx context.Context, settings *pipeline.Settings, s *Script) error {
	if err := s.Validate(); err != nil {
		return err
	}
	log := clog.FromContext(ctx)
	for i, ev := range s.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.With("index", i, "event", ev.Event, "call_id", ev.CallID).Debug("Replaying event")
		settings.Dispatch(ctx, func(cb pipeline.Callback) {
			deliver(ctx, cb, ev)
		})
	}
	return nil
}

func deliver(ctx context.Context, cb pipeline.Callback, ev Event) {
	switch tracerecorder.EventType(ev.Event) {
	case tracerecorder.ModuleStart:
		cb.OnModuleStart(ctx, ev.CallID, ev.instance(), ev.Inputs)
	case tracerecorder.ModuleEnd:
		cb.OnModuleEnd(ctx, ev.CallID, ev.outputs(), ev.err())
	case tracerecorder.LMStart:
		cb.OnLMStart(ctx, ev.CallID, ev.instance(), ev.Inputs)
	case tracerecorder.LMEnd:
		cb.OnLMEnd(ctx, ev.CallID, ev.outputs(), ev.err())
	case tracerecorder.ToolStart:
		cb.OnToolStart(ctx, ev.CallID, ev.instance(), ev.Inputs)
	case tracerecorder.ToolEnd:
		cb.OnToolEnd(ctx, ev.CallID, ev.outputs(), ev.err())
	}
}
