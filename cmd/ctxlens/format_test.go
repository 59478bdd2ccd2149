package main

import (
	"strings"
	"testing"

	"ctxlens/internal/pipeline"
)

func TestFormatOutput_JSON(t *testing.T) {
	out := &pipeline.Output{VSize: 3, ESize: 2, StoppingReason: "tau"}

	result, err := FormatOutput(out, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, `"VSize": 3`) {
		t.Errorf("JSON output missing VSize, got: %s", result)
	}
}

func TestFormatOutput_Human(t *testing.T) {
	out := &pipeline.Output{VSize: 1, StoppingReason: "exhausted", Warnings: []string{"EMPTY_DIFF: no hunks"}}

	result, err := FormatOutput(out, FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "exhausted") {
		t.Errorf("human output missing stopping reason, got: %s", result)
	}
	if !strings.Contains(result, "warning: EMPTY_DIFF") {
		t.Errorf("human output missing warning, got: %s", result)
	}
}

func TestFormatOutput_UnsupportedFormat(t *testing.T) {
	_, err := FormatOutput(&pipeline.Output{}, "xml")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}
