/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"chainguard.dev/pipetrace/agents/tracking"
	"chainguard.dev/pipetrace/agents/tracking/retry"
	"github.com/chainguard-dev/clog"
)

const (
	// DefaultExperimentID is the experiment MLflow assigns runs to when none is selected.
	DefaultExperimentID = "0"

	// MaxParamValueLength is the longest parameter value MLflow accepts.
	MaxParamValueLength = 6000

	// AutologFlavor is the value of the mlflow.autologging tag on autologged runs.
	AutologFlavor = "dspy"

	apiPrefix = "/api/2.0/mlflow/"
)

// Client is a tracking.Client backed by the MLflow REST API.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
	sourceName string
	retry      retry.Config

	mu           sync.Mutex
	baseURL      *url.URL
	experimentID string
	autolog      bool
	active       *tracking.Run
}

var _ tracking.Client = (*Client)(nil)

// New creates a client for the tracking server at trackingURI.
func New(trackingURI string, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: http.DefaultClient,
		now:        time.Now,
		sourceName: "pipetrace",
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	if err := c.SetTrackingURI(context.Background(), trackingURI); err != nil {
		return nil, err
	}
	return c, nil
}

// SetTrackingURI points the client at a new server. It does not contact the server.
func (c *Client) SetTrackingURI(_ context.Context, uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("parsing tracking uri %q: %w", uri, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("tracking uri %q: unsupported scheme %q", uri, u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = u
	return nil
}

// SetExperiment looks up the experiment by name and creates it if it does not exist.
func (c *Client) SetExperiment(ctx context.Context, name string) error {
	var got struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	err := c.do(ctx, http.MethodGet, "experiments/get-by-name?experiment_name="+url.QueryEscape(name), nil, &got)
	var apiErr *Error
	switch {
	case err == nil:
		c.setExperimentID(got.Experiment.ExperimentID)
		return nil
	case errors.As(err, &apiErr) && apiErr.Code == "RESOURCE_DOES_NOT_EXIST":
	default:
		return fmt.Errorf("getting experiment %q: %w", name, err)
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := c.do(ctx, http.MethodPost, "experiments/create", map[string]any{"name": name}, &created); err != nil {
		return fmt.Errorf("creating experiment %q: %w", name, err)
	}
	clog.FromContext(ctx).With("experiment", name, "experiment_id", created.ExperimentID).Info("Created MLflow experiment")
	c.setExperimentID(created.ExperimentID)
	return nil
}

func (c *Client) setExperimentID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.experimentID = id
}

// Autolog tags every subsequently started run as autologged pipeline output.
func (c *Client) Autolog(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autolog = true
	return nil
}

// StartRun creates a run in the selected experiment and makes it active.
// A run that is still active is finished first.
func (c *Client) StartRun(ctx context.Context, name string) (tracking.Run, error) {
	if prev, ok := c.ActiveRun(ctx); ok {
		if err := c.EndRun(ctx); err != nil {
			return tracking.Run{}, fmt.Errorf("finishing run %s before %q: %w", prev.ID, name, err)
		}
	}

	c.mu.Lock()
	experimentID := c.experimentID
	autolog := c.autolog
	c.mu.Unlock()

	if experimentID == "" {
		experimentID = DefaultExperimentID
	}

	tags := []tag{{Key: "mlflow.runName", Value: name}}
	if autolog {
		tags = append(tags,
			tag{Key: "mlflow.autologging", Value: AutologFlavor},
			tag{Key: "mlflow.source.name", Value: c.sourceName},
		)
	}

	var resp struct {
		Run struct {
			Info struct {
				RunID        string `json:"run_id"`
				RunName      string `json:"run_name"`
				ExperimentID string `json:"experiment_id"`
			} `json:"info"`
		} `json:"run"`
	}
	req := map[string]any{
		"experiment_id": experimentID,
		"run_name":      name,
		"start_time":    c.now().UnixMilli(),
		"tags":          tags,
	}
	if err := c.do(ctx, http.MethodPost, "runs/create", req, &resp); err != nil {
		return tracking.Run{}, fmt.Errorf("creating run %q: %w", name, err)
	}

	run := tracking.Run{
		ID:           resp.Run.Info.RunID,
		Name:         resp.Run.Info.RunName,
		ExperimentID: resp.Run.Info.ExperimentID,
	}
	if run.Name == "" {
		run.Name = name
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = &run
	return run, nil
}

// ActiveRun returns the run opened by the last StartRun, until EndRun.
func (c *Client) ActiveRun(context.Context) (tracking.Run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return tracking.Run{}, false
	}
	return *c.active, true
}

// EndRun marks the active run FINISHED.
func (c *Client) EndRun(ctx context.Context) error {
	run, ok := c.ActiveRun(ctx)
	if !ok {
		return tracking.ErrNoActiveRun
	}
	req := map[string]any{
		"run_id":   run.ID,
		"status":   "FINISHED",
		"end_time": c.now().UnixMilli(),
	}
	if err := c.do(ctx, http.MethodPost, "runs/update", req, nil); err != nil {
		return fmt.Errorf("ending run %s: %w", run.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = nil
	return nil
}

// LogParam logs a parameter on the active run, truncating values MLflow would reject.
func (c *Client) LogParam(ctx context.Context, key, value string) error {
	run, ok := c.ActiveRun(ctx)
	if !ok {
		return tracking.ErrNoActiveRun
	}
	value = truncate(value, MaxParamValueLength)
	req := map[string]any{
		"run_id": run.ID,
		"key":    key,
		"value":  value,
	}
	if err := c.do(ctx, http.MethodPost, "runs/log-parameter", req, nil); err != nil {
		return fmt.Errorf("logging param %q: %w", key, err)
	}
	return nil
}

// SetTag sets a tag on the active run.
func (c *Client) SetTag(ctx context.Context, key, value string) error {
	run, ok := c.ActiveRun(ctx)
	if !ok {
		return tracking.ErrNoActiveRun
	}
	req := map[string]any{
		"run_id": run.ID,
		"key":    key,
		"value":  value,
	}
	if err := c.do(ctx, http.MethodPost, "runs/set-tag", req, nil); err != nil {
		return fmt.Errorf("setting tag %q: %w", key, err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

type tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Error is an MLflow API error response.
type Error struct {
	StatusCode int
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	// Wait is the server's Retry-After, zero when absent.
	Wait time.Duration `json:"-"`
}

var _ retry.Hinted = (*Error)(nil)

// RetryAfter returns how long the server asked clients to back off.
func (e *Error) RetryAfter() time.Duration {
	return e.Wait
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("mlflow: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mlflow: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

func (c *Client) endpoint(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURL.String() + apiPrefix + path
}

// transient reports whether err is worth retrying: rate limiting, server errors and transport failures.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// idempotent reports whether sending the same request twice leaves the server
// as sending it once. Creating runs and experiments is not.
func idempotent(method, path string) bool {
	if method == http.MethodGet {
		return true
	}
	switch path {
	case "runs/update", "runs/log-parameter", "runs/set-tag":
		return true
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		payload = b
	}

	policy := c.retry
	if !idempotent(method, path) {
		policy = retry.Config{}
	}
	data, err := retry.Do(ctx, policy, path, transient, func() ([]byte, error) {
		return c.send(ctx, method, path, payload)
	})
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			apiErr.Wait = time.Duration(secs) * time.Second
		}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, apiErr
	}
	return data, nil
}
