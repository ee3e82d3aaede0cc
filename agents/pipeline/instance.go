/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"reflect"
)

// Named is implemented by tools that declare a name.
type Named interface {
	Name() string
}

// ModelProvider is implemented by language-model instances that know their model.
type ModelProvider interface {
	Model() string
}

// TypeNamer is implemented by instances that stand in for another type, such as replayed components.
type TypeNamer interface {
	TypeName() string
}

// ClassName returns the runtime type name of instance, without package or pointer.
func ClassName(instance any) string {
	if instance == nil {
		return "nil"
	}
	if tn, ok := instance.(TypeNamer); ok && tn.TypeName() != "" {
		return tn.TypeName()
	}
	t := reflect.TypeOf(instance)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// ToolName returns the declared name of a tool, falling back to its class name.
func ToolName(instance any) string {
	if n, ok := instance.(Named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	if f, ok := field(instance, "Name"); ok && f.Kind() == reflect.String && f.String() != "" {
		return f.String()
	}
	return ClassName(instance)
}

// ModelName returns the model of a language-model instance, if it exposes one.
func ModelName(instance any) (string, bool) {
	if m, ok := instance.(ModelProvider); ok {
		return m.Model(), true
	}
	if f, ok := field(instance, "Model"); ok && f.Kind() == reflect.String {
		return f.String(), true
	}
	return "", false
}

// field looks up an exported struct field through any number of pointers.
func field(v any, name string) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	sf, ok := rv.Type().FieldByName(name)
	if !ok || !sf.IsExported() {
		return reflect.Value{}, false
	}
	f, err := rv.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, false
	}
	for f.Kind() == reflect.Interface {
		if f.IsNil() {
			return reflect.Value{}, false
		}
		f = f.Elem()
	}
	return f, true
}
