/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tracerecorder

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Summary writes a markdown table counting records per type and component,
// in the order each pair first appeared.
func (r *Recorder) Summary(w io.Writer) error {
	type row struct {
		typ       EventType
		component string
	}
	type tally struct {
		count  int
		errors int
	}

	var order []row
	counts := map[row]*tally{}
	for _, rec := range r.Records() {
		k := row{typ: rec.Type, component: rec.Component}
		t, ok := counts[k]
		if !ok {
			t = &tally{}
			counts[k] = t
			order = append(order, k)
		}
		t.count++
		if rec.Exception != "" {
			t.errors++
		}
	}

	table := newSummaryTable([]string{"Type", "Component", "Count", "Errors"}, w)
	for _, k := range order {
		t := counts[k]
		if err := table.Append([]string{string(k.typ), k.component, strconv.Itoa(t.count), strconv.Itoa(t.errors)}); err != nil {
			return err
		}
	}
	return table.Render()
}

func newSummaryTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 80,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
