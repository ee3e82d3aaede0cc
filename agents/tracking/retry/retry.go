/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry re-sends idempotent tracking-server calls that failed transiently.
//
// Tracking calls run inside pipeline hooks, so the zero Config disables
// retrying and callers opt in explicitly.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config controls how often and how long a call is retried. The zero value never retries.
type Config struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseBackoff is the wait before the first retry; it doubles on each retry.
	BaseBackoff time.Duration
	// MaxBackoff caps every wait, including one asked for by the server. Zero leaves waits uncapped.
	MaxBackoff time.Duration
	// MaxJitter is the upper bound of the random delay added to each wait.
	MaxJitter time.Duration
}

// Enabled reports whether cfg retries at all.
func (c Config) Enabled() bool {
	return c.MaxRetries > 0
}

// Validate rejects negative settings.
func (c Config) Validate() error {
	var errs []error
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.BaseBackoff < 0 {
		errs = append(errs, errors.New("base backoff cannot be negative"))
	}
	if c.MaxBackoff < 0 {
		errs = append(errs, errors.New("max backoff cannot be negative"))
	}
	if c.MaxJitter < 0 {
		errs = append(errs, errors.New("max jitter cannot be negative"))
	}
	return errors.Join(errs...)
}

// Short is a policy for callers that can afford a little latency per hook:
// two retries, at most two seconds each.
func Short() Config {
	return Config{
		MaxRetries:  2,
		BaseBackoff: 200 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
		MaxJitter:   100 * time.Millisecond,
	}
}

// Hinted is implemented by errors that carry a server-requested wait, such as Retry-After.
type Hinted interface {
	RetryAfter() time.Duration
}

// wait is the delay before retry number attempt (zero based) after err.
func (c Config) wait(attempt int, err error) time.Duration {
	d := c.BaseBackoff << attempt
	var h Hinted
	if errors.As(err, &h) && h.RetryAfter() > d {
		d = h.RetryAfter()
	}
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	if c.MaxJitter > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(int64(c.MaxJitter))); err == nil {
			d += time.Duration(n.Int64())
		}
	}
	return d
}

// Do calls fn, and calls it again while it fails with an error retryable accepts
// and retries remain. With retrying disabled the error of the single attempt is returned unchanged.
func Do[T any](ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil || !cfg.Enabled() {
		return result, err
	}

	log := clog.FromContext(ctx).With("operation", operation)
	for attempt := 0; attempt < cfg.MaxRetries && retryable(err); attempt++ {
		d := cfg.wait(attempt, err)
		log.With("attempt", attempt+1, "wait", d, "error", err.Error()).Debug("Retrying tracking call")

		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return result, ctx.Err()
		case <-t.C:
		}

		if result, err = fn(); err == nil {
			return result, nil
		}
	}
	if !retryable(err) {
		return result, err
	}
	return result, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, err)
}
