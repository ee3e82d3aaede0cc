/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package oteltracking implements tracking.Client on top of OpenTelemetry tracing.
// Each run is a span and each logged parameter is a span attribute.
package oteltracking

import (
	"context"
	"sync"

	"chainguard.dev/pipetrace/agents/tracking"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.pipetrace.tracking"

// Client is a tracking.Client that records runs as spans.
type Client struct {
	tracer oteltrace.Tracer

	mu         sync.Mutex
	uri        string
	experiment string
	autolog    bool
	run        *tracking.Run
	span       oteltrace.Span
}

var _ tracking.Client = (*Client)(nil)

// New creates a client using the tracer provider, or the global provider when tp is nil.
func New(tp oteltrace.TracerProvider) *Client {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Client{
		tracer: tp.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0")),
	}
}

func (c *Client) SetTrackingURI(_ context.Context, uri string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uri = uri
	return nil
}

func (c *Client) SetExperiment(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.experiment = name
	return nil
}

// Autolog marks subsequent run spans as autologged.
func (c *Client) Autolog(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autolog = true
	return nil
}

// StartRun starts a pipeline.run span. An already active run is ended first.
func (c *Client) StartRun(ctx context.Context, name string) (tracking.Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.span != nil {
		c.span.SetStatus(codes.Ok, "")
		c.span.End()
	}

	attrs := []attribute.KeyValue{
		attribute.String("run.name", name),
		attribute.String("experiment.name", c.experiment),
		attribute.Bool("autolog", c.autolog),
	}
	if c.uri != "" {
		attrs = append(attrs, attribute.String("tracking.uri", c.uri))
	}
	_, span := c.tracer.Start(ctx, "pipeline.run", oteltrace.WithAttributes(attrs...))

	id := span.SpanContext().SpanID().String()
	if !span.SpanContext().HasSpanID() {
		id = uuid.NewString()
	}
	run := tracking.Run{ID: id, Name: name, ExperimentID: c.experiment}
	c.run = &run
	c.span = span
	return run, nil
}

func (c *Client) ActiveRun(context.Context) (tracking.Run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run == nil {
		return tracking.Run{}, false
	}
	return *c.run, true
}

func (c *Client) EndRun(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.span == nil {
		return tracking.ErrNoActiveRun
	}
	c.span.SetStatus(codes.Ok, "")
	c.span.End()
	c.span = nil
	c.run = nil
	return nil
}

// LogParam sets param.<key> on the run span.
func (c *Client) LogParam(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.span == nil {
		return tracking.ErrNoActiveRun
	}
	c.span.SetAttributes(attribute.String("param."+key, value))
	return nil
}
