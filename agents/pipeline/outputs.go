/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

type outputsKind int

const (
	kindNone outputsKind = iota
	kindMapping
	kindValue
)

// Outputs is what an operation produced: nothing, a structured mapping, or an opaque value.
type Outputs struct {
	kind    outputsKind
	mapping map[string]any
	value   any
}

// Reasoner is implemented by opaque outputs that carry model reasoning.
type Reasoner interface {
	Reasoning() string
}

// Usage is token accounting for a language-model call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// UsageReporter is implemented by opaque outputs that report token usage.
type UsageReporter interface {
	Usage() Usage
}

// None returns absent outputs.
func None() Outputs {
	return Outputs{}
}

// Mapping returns structured outputs. A nil map is treated as absent.
func Mapping(m map[string]any) Outputs {
	if m == nil {
		return None()
	}
	return Outputs{kind: kindMapping, mapping: m}
}

// Value returns opaque outputs. A nil value is absent and a map[string]any is a Mapping.
func Value(v any) Outputs {
	switch v := v.(type) {
	case nil:
		return None()
	case Outputs:
		return v
	case map[string]any:
		return Mapping(v)
	}
	return Outputs{kind: kindValue, value: v}
}

// IsMapping reports whether the outputs are structured.
func (o Outputs) IsMapping() bool {
	return o.kind == kindMapping
}

// Map returns the structured outputs, or nil for absent and opaque outputs.
func (o Outputs) Map() map[string]any {
	return o.mapping
}

// Interface returns the underlying mapping or value, nil when absent.
func (o Outputs) Interface() any {
	switch o.kind {
	case kindMapping:
		return o.mapping
	case kindValue:
		return o.value
	}
	return nil
}

// Present reports whether there is anything worth showing.
// Empty mappings, empty strings and collections, zero numbers and false are not.
func (o Outputs) Present() bool {
	switch o.kind {
	case kindMapping:
		return len(o.mapping) > 0
	case kindValue:
		return truthy(reflect.ValueOf(o.value))
	}
	return false
}

// Reasoning returns the "reasoning" carried by the outputs: a mapping key, a
// Reasoner method, or an exported struct field named Reasoning.
func (o Outputs) Reasoning() (string, bool) {
	switch o.kind {
	case kindMapping:
		v, ok := o.mapping["reasoning"]
		if !ok || v == nil {
			return "", false
		}
		return stringify(v), true
	case kindValue:
		if r, ok := o.value.(Reasoner); ok {
			return r.Reasoning(), true
		}
		if f, ok := field(o.value, "Reasoning"); ok {
			return stringify(f.Interface()), true
		}
	}
	return "", false
}

// Usage returns the token usage in the outputs, zero when absent.
func (o Outputs) Usage() Usage {
	switch o.kind {
	case kindMapping:
		switch u := o.mapping["usage"].(type) {
		case map[string]any:
			return Usage{
				PromptTokens:     toInt64(u["prompt_tokens"]),
				CompletionTokens: toInt64(u["completion_tokens"]),
				TotalTokens:      toInt64(u["total_tokens"]),
			}
		case Usage:
			return u
		case *Usage:
			if u != nil {
				return *u
			}
		}
	case kindValue:
		if r, ok := o.value.(UsageReporter); ok {
			return r.Usage()
		}
	}
	return Usage{}
}

// TotalTokens returns usage.total_tokens, 0 when absent.
func (o Outputs) TotalTokens() int64 {
	return o.Usage().TotalTokens
}

// MarshalJSON encodes the underlying mapping or value; absent outputs encode as null.
func (o Outputs) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Interface())
}

func (o Outputs) String() string {
	if o.kind == kindNone {
		return "<none>"
	}
	return fmt.Sprintf("%v", o.Interface())
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, _ := n.Float64()
			return int64(f)
		}
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func truthy(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return !v.IsNil()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return v.Len() > 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return !v.IsZero()
	}
	return true
}
