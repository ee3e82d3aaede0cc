/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package mlflow

import (
	"net/http"
	"time"

	"chainguard.dev/pipetrace/agents/tracking/retry"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used to reach the tracking server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock overrides the clock used for run start and end times.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSourceName sets the mlflow.source.name tag written on autologged runs.
func WithSourceName(name string) Option {
	return func(c *Client) {
		c.sourceName = name
	}
}

// WithRetry retries idempotent calls that fail with rate limiting, server
// errors or transport failures. Without it every call is sent once.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}
