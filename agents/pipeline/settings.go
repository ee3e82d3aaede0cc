/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

// Settings holds the callbacks the pipeline notifies.
type Settings struct {
	mu        sync.Mutex
	callbacks []Callback
}

// NewSettings creates settings with the given callbacks.
func NewSettings(callbacks ...Callback) *Settings {
	s := &Settings{}
	s.Configure(callbacks...)
	return s
}

// Callbacks returns a copy of the registered callbacks.
func (s *Settings) Callbacks() []Callback {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Callback, len(s.callbacks))
	copy(out, s.callbacks)
	return out
}

// Configure replaces the registered callbacks. Nil callbacks are dropped.
func (s *Settings) Configure(callbacks ...Callback) {
	kept := make([]Callback, 0, len(callbacks))
	for _, cb := range callbacks {
		if cb != nil {
			kept = append(kept, cb)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = kept
}

// Append registers cb after the existing callbacks.
func (s *Settings) Append(cb Callback) {
	current := s.Callbacks()
	s.Configure(append(current, cb)...)
}

// Dispatch invokes fn once per registered callback in parallel and waits for all of them.
// A panicking callback is logged and does not affect the others.
func (s *Settings) Dispatch(ctx context.Context, fn func(Callback)) {
	g := new(errgroup.Group)

	for _, cb := range s.Callbacks() {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("callback %s panicked: %v", ClassName(cb), r)
				}
			}()
			fn(cb)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		clog.FromContext(ctx).With("error", err).Warn("Pipeline callback failed")
	}
}
