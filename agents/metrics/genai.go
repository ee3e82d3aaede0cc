/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// DefaultMeterName is the meter shared by every recorder.
const DefaultMeterName = "chainguard.pipetrace"

// GenAI provides OpenTelemetry metrics for pipeline lifecycle events.
// It includes counters for token usage, tool calls and lifecycle events,
// with support for graceful degradation if metric creation fails.
type GenAI struct {
	meter            metric.Meter
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	totalTokens      metric.Int64Counter
	toolCallCounter  metric.Int64Counter
	eventCounter     metric.Int64Counter
	attrEnricher     AttributeEnricher
}

// NewGenAI creates a GenAI metrics instance on the global meter provider.
func NewGenAI(meterName string) *GenAI {
	return NewGenAIWithProvider(otel.GetMeterProvider(), meterName)
}

// NewGenAIWithProvider creates a GenAI metrics instance on the given meter provider.
// Uses graceful degradation: if any counter fails to initialize, logs a warning
// and uses a no-op counter instead of failing entirely.
func NewGenAIWithProvider(mp metric.MeterProvider, meterName string) *GenAI {
	meter := mp.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	counter := func(name, description, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name,
			metric.WithDescription(description),
			metric.WithUnit(unit))
		if err != nil {
			slog.Warn("Failed to create counter, metrics will be disabled", "error", err, "meter", meterName, "counter", name)
			return noop.Int64Counter{}
		}
		return c
	}

	return &GenAI{
		meter:            meter,
		promptTokens:     counter("genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter("genai.token.completion", "The number of completion tokens used", "{tokens}"),
		totalTokens:      counter("genai.token.total", "The total number of tokens reported by language-model calls", "{tokens}"),
		toolCallCounter:  counter("genai.tool.calls", "The number of tool calls made during execution", "{calls}"),
		eventCounter:     counter("pipeline.events", "The number of pipeline lifecycle events recorded", "{events}"),
	}
}

// SetAttributeEnricher sets the attribute enricher for this metrics instance.
// The enricher is called before recording each metric to add contextual attributes.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *GenAI) attributes(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) []attribute.KeyValue {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return append(base, extra...)
}

// RecordTokens records token usage for a language-model call.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens, totalTokens int64, attrs ...attribute.KeyValue) {
	all := m.attributes(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs)
	opt := metric.WithAttributes(all...)

	m.promptTokens.Add(ctx, promptTokens, opt)
	m.completionTokens.Add(ctx, completionTokens, opt)
	m.totalTokens.Add(ctx, totalTokens, opt)
}

// RecordToolCall records a tool invocation.
func (m *GenAI) RecordToolCall(ctx context.Context, toolName string, attrs ...attribute.KeyValue) {
	all := m.attributes(ctx, []attribute.KeyValue{attribute.String("tool", toolName)}, attrs)
	m.toolCallCounter.Add(ctx, 1, metric.WithAttributes(all...))
}

// RecordEvent records one lifecycle event of the given type for a component.
func (m *GenAI) RecordEvent(ctx context.Context, eventType, component string, failed bool, attrs ...attribute.KeyValue) {
	all := m.attributes(ctx, []attribute.KeyValue{
		attribute.String("event", eventType),
		attribute.String("component", component),
		attribute.Bool("error", failed),
	}, attrs)
	m.eventCounter.Add(ctx, 1, metric.WithAttributes(all...))
}
