/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracerecorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
)

const (
	// NoTraceData is what Render returns for an empty trace.
	NoTraceData = "No trace data available."
	// DumpHeader opens every non-empty dump.
	DumpHeader = "=== DSPY EXECUTION TRACE DUMP ==="
)

var separator = strings.Repeat("-", 80)

// Render formats the trace as markdown for copy-paste.
func (r *Recorder) Render() string {
	return Render(r.Records())
}

// Render formats records as markdown. Values that cannot be encoded as JSON
// are shown in their fmt form instead.
func Render(records []Record) string {
	if len(records) == 0 {
		return NoTraceData
	}

	var sb strings.Builder
	sb.WriteString(DumpHeader + "\n\n")

	for i, rec := range records {
		fmt.Fprintf(&sb, "## Trace %d: %s - %s\n", i+1, rec.Type, rec.Component)
		fmt.Fprintf(&sb, "**Timestamp:** %s\n", rec.Timestamp)
		fmt.Fprintf(&sb, "**Call ID:** %s\n", rec.CallID)

		if len(rec.Inputs) > 0 {
			sb.WriteString("**Inputs:**\n```json\n")
			sb.WriteString(indentJSON(rec.Inputs))
			sb.WriteString("\n```\n")
		}

		if rec.Outputs.Present() {
			sb.WriteString("**Outputs:**\n```json\n")
			sb.WriteString(indentJSON(rec.Outputs.Interface()))
			sb.WriteString("\n```\n")
		}

		if rec.Exception != "" {
			fmt.Fprintf(&sb, "**Exception:** %s\n", rec.Exception)
		}

		if rec.Reasoning != "" {
			fmt.Fprintf(&sb, "**Reasoning:** %s\n", rec.Reasoning)
		}

		sb.WriteString("\n" + separator + "\n\n")
	}

	return sb.String()
}

// Persist writes Render to filename through the sink. An empty name gets a
// timestamped default. The location written, as resolved by the sink, is returned.
func (r *Recorder) Persist(ctx context.Context, filename string) (string, error) {
	if filename == "" {
		filename = "dspy_trace_" + r.now().Format(nameLayout) + ".md"
	}
	log := clog.FromContext(ctx).With("filename", filename)

	written, err := r.sink.Write(ctx, filename, []byte(r.Render()))
	if err != nil {
		log.Errorf("Failed to save trace dump: %v", err)
		return "", err
	}
	log.With("location", written).Info("Trace dump saved")
	return written, nil
}

func indentJSON(v any) string {
	if b, err := encodeJSON(v, "  "); err == nil {
		return b
	}
	if b, err := encodeJSON(jsonSafe(v), "  "); err == nil {
		return b
	}
	return fmt.Sprintf("%q", fmt.Sprintf("%v", v))
}

func compactJSON(v any) string {
	if b, err := encodeJSON(v, ""); err == nil {
		return b
	}
	if b, err := encodeJSON(jsonSafe(v), ""); err == nil {
		return b
	}
	return fmt.Sprintf("%v", v)
}

func encodeJSON(v any, indent string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("encoding panicked: %v", p)
		}
	}()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// jsonSafe replaces every value that does not encode with its fmt string.
func jsonSafe(v any) any {
	switch v := v.(type) {
	case nil, string, bool:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = jsonSafe(val)
		}
		return out
	}
	if _, err := encodeJSON(v, ""); err == nil {
		return v
	}
	return fmt.Sprintf("%v", v)
}
