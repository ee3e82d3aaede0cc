/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracking

import (
	"context"
	"errors"
)

type multi struct {
	clients []Client
}

var _ Client = (*multi)(nil)

// Multi returns a Client that forwards every call to each client in order.
// The first client is primary: its run is the one StartRun and ActiveRun report.
func Multi(clients ...Client) Client {
	kept := make([]Client, 0, len(clients))
	for _, c := range clients {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &multi{clients: kept}
}

func (m *multi) each(fn func(Client) error) error {
	var errs []error
	for _, c := range m.clients {
		if err := fn(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multi) SetTrackingURI(ctx context.Context, uri string) error {
	return m.each(func(c Client) error { return c.SetTrackingURI(ctx, uri) })
}

func (m *multi) SetExperiment(ctx context.Context, name string) error {
	return m.each(func(c Client) error { return c.SetExperiment(ctx, name) })
}

func (m *multi) Autolog(ctx context.Context) error {
	return m.each(func(c Client) error { return c.Autolog(ctx) })
}

// StartRun fails only if the primary client fails.
func (m *multi) StartRun(ctx context.Context, name string) (Run, error) {
	if len(m.clients) == 0 {
		return Run{}, ErrNoActiveRun
	}
	primary, err := m.clients[0].StartRun(ctx, name)
	if err != nil {
		return Run{}, err
	}
	for _, c := range m.clients[1:] {
		// Secondary clients are best-effort.
		_, _ = c.StartRun(ctx, name)
	}
	return primary, nil
}

func (m *multi) ActiveRun(ctx context.Context) (Run, bool) {
	if len(m.clients) == 0 {
		return Run{}, false
	}
	return m.clients[0].ActiveRun(ctx)
}

func (m *multi) EndRun(ctx context.Context) error {
	return m.each(func(c Client) error { return c.EndRun(ctx) })
}

func (m *multi) LogParam(ctx context.Context, key, value string) error {
	return m.each(func(c Client) error { return c.LogParam(ctx, key, value) })
}
