/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// AttributeEnricher enriches metric attributes with additional context,
// such as the experiment a recorder mirrors to.
// The enricher receives base attributes and returns an enriched set.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue

// WithStatic returns an enricher that appends fixed attributes.
func WithStatic(attrs ...attribute.KeyValue) AttributeEnricher {
	return func(_ context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue {
		out := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+len(attrs))
		copy(out, baseAttrs)
		return append(out, attrs...)
	}
}
