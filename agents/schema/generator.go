/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Generator wraps jsonschema.Reflector with the defaults we use for on-disk formats.
type Generator struct {
	reflector jsonschema.Reflector
	id        jsonschema.ID
	title     string
}

// Option customizes a Generator.
type Option func(*Generator)

// WithID sets the $id of generated schemas.
func WithID(id string) Option {
	return func(g *Generator) {
		g.id = jsonschema.ID(id)
	}
}

// WithTitle sets the title of generated schemas.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// NewGenerator constructs a generator. Objects are closed: decoders reject
// keys the schema does not name, so the schema says so too.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			DoNotReference:             true,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Reflect returns the JSON schema for the provided value.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	s := g.reflector.Reflect(v)
	if g.id != "" {
		s.ID = g.id
	}
	if g.title != "" {
		s.Title = g.title
	}
	return s
}

// JSON returns the indented JSON encoding of the schema for v.
func (g *Generator) JSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(g.Reflect(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return b, nil
}

// Reflect derives the JSON schema for the provided value using a default generator.
func Reflect(v any) *jsonschema.Schema {
	return NewGenerator().Reflect(v)
}

// ReflectType allocates a zero value of T and reflects it to a schema.
func ReflectType[T any](opts ...Option) *jsonschema.Schema {
	var zero T
	return NewGenerator(opts...).Reflect(&zero)
}
