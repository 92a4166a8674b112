package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(w io.Writer, headers ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	row := make(table.Row, len(headers))
	for i, h := range headers {
		row[i] = text.FgHiCyan.Sprint(h)
	}
	t.AppendHeader(row)
	return t
}

func colorState(state string) string {
	switch state {
	case "ready", "live", "reused":
		return text.FgGreen.Sprint(state)
	case "failed", "mismatch":
		return text.FgRed.Sprint(state)
	case "stale", "starting":
		return text.FgYellow.Sprint(state)
	default:
		return text.FgHiBlack.Sprint(state)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
