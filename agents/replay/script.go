/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package replay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"chainguard.dev/pipetrace/agents/schema"
	"chainguard.dev/pipetrace/agents/tracerecorder"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Script is a recorded sequence of pipeline lifecycle events.
type Script struct {
	RunName string  `yaml:"run_name,omitempty" json:"run_name,omitempty" jsonschema:"description=Name of the tracking run to start before replaying"`
	Events  []Event `yaml:"events" json:"events" jsonschema:"required,description=Lifecycle events in the order they are delivered"`
}

// Event is a single hook invocation.
type Event struct {
	Event    string         `yaml:"event" json:"event" jsonschema:"required,enum=MODULE_START,enum=MODULE_END,enum=LM_START,enum=LM_END,enum=TOOL_START,enum=TOOL_END"`
	CallID   string         `yaml:"call_id" json:"call_id" jsonschema:"required,description=Identifier shared by the start and end of one call"`
	Instance *Instance      `yaml:"instance,omitempty" json:"instance,omitempty" jsonschema:"description=Component that produced a start event"`
	Inputs   map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty" jsonschema:"description=Arguments of a start event"`
	Outputs  any            `yaml:"outputs,omitempty" json:"outputs,omitempty" jsonschema:"description=Result of an end event; a mapping or any scalar"`
	Error    string         `yaml:"error,omitempty" json:"error,omitempty" jsonschema:"description=Failure message of an end event"`
}

// Instance describes the component behind a start event.
type Instance struct {
	Class string `yaml:"class,omitempty" json:"class,omitempty" jsonschema:"description=Class name reported for module events"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"description=Declared tool name"`
	Model string `yaml:"model,omitempty" json:"model,omitempty" jsonschema:"description=Model of a language-model instance"`
}

var eventTypes = []tracerecorder.EventType{
	tracerecorder.ModuleStart,
	tracerecorder.ModuleEnd,
	tracerecorder.LMStart,
	tracerecorder.LMEnd,
	tracerecorder.ToolStart,
	tracerecorder.ToolEnd,
}

// Load decodes and validates a script. Unknown keys are rejected.
func Load(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("script is empty")
		}
		return nil, fmt.Errorf("decoding script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads a script from path.
func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks that every event names a known hook and a call id.
func (s *Script) Validate() error {
	var errs []error
	for i, ev := range s.Events {
		if !slices.Contains(eventTypes, tracerecorder.EventType(ev.Event)) {
			errs = append(errs, fmt.Errorf("event %d: unknown event type %q", i, ev.Event))
		}
		if ev.CallID == "" {
			errs = append(errs, fmt.Errorf("event %d: call_id is required", i))
		}
	}
	return errors.Join(errs...)
}

const schemaTitle = "pipetrace replay script"

// Schema returns the JSON schema of the script format.
func Schema() *jsonschema.Schema {
	return schema.ReflectType[Script](schema.WithTitle(schemaTitle))
}

// SchemaJSON returns Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	return schema.NewGenerator(schema.WithTitle(schemaTitle)).JSON(&Script{})
}
