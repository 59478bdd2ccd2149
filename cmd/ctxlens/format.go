package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"ctxlens/internal/pipeline"
)

// OutputFormat is the CLI's rendering mode, per the teacher's
// FormatResponse/OutputFormat split (cmd/ckb/format.go).
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatOutput renders a pipeline.Output in the requested format.
func FormatOutput(out *pipeline.Output, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(out)
	case FormatHuman:
		return formatHuman(out), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(out *pipeline.Output) (string, error) {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal output: %w", err)
	}
	return string(data), nil
}

func formatHuman(out *pipeline.Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "selected %d fragments (universe %d, edges %d, stopped: %s)\n",
		len(out.Selected), out.VSize, out.ESize, out.StoppingReason)
	for _, f := range out.Selected {
		fmt.Fprintf(&b, "  %s:%d-%d\n", f.Path, f.StartLine, f.EndLine)
	}
	if len(out.HubsSuppressed) > 0 {
		fmt.Fprintf(&b, "suppressed %d hub fragments\n", len(out.HubsSuppressed))
	}
	for family, count := range out.EdgeFamilyCounts {
		fmt.Fprintf(&b, "  %s edges: %d\n", family, count)
	}
	for _, w := range out.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return b.String()
}
