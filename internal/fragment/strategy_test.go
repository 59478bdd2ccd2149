package fragment

import (
	"context"
	"testing"
)

func totalLines(frags []Fragment, total int) bool {
	covered := make([]bool, total+1)
	for _, f := range frags {
		for l := f.StartLine; l <= f.EndLine; l++ {
			if l < 1 || l > total || covered[l] {
				return false
			}
			covered[l] = true
		}
	}
	for l := 1; l <= total; l++ {
		if !covered[l] {
			return false
		}
	}
	return true
}

func TestSplitEmptyTextReturnsNoFragments(t *testing.T) {
	res := Split(context.Background(), "empty.txt", "\n\n", DefaultStrategies())
	if len(res.Fragments) != 0 {
		t.Fatalf("expected no fragments for blank text, got %v", res.Fragments)
	}
}

func TestSplitFallsBackToTextStrategyForPlainFiles(t *testing.T) {
	text := "line one\nline two\nline three\n"
	res := Split(context.Background(), "notes.txt", text, DefaultStrategies())
	if res.Strategy != "text" {
		t.Fatalf("expected the text fallback strategy, got %q", res.Strategy)
	}
	if !totalLines(res.Fragments, countLines(text)) {
		t.Fatalf("expected every line to be tiled exactly once, got %v", res.Fragments)
	}
}

func TestSplitUsesMarkdownStrategyForMdFiles(t *testing.T) {
	text := "# Title\n\nSome prose.\n\n## Section\n\nMore prose.\n"
	res := Split(context.Background(), "README.md", text, DefaultStrategies())
	if res.Strategy != "markdown" {
		t.Fatalf("expected the markdown strategy, got %q", res.Strategy)
	}
	if !totalLines(res.Fragments, countLines(text)) {
		t.Fatalf("expected every line to be tiled exactly once, got %v", res.Fragments)
	}
}

func TestTextStrategyCoalescesShortParagraphsToMinLines(t *testing.T) {
	text := "a\n\nb\n\nc\n\nd\n\ne\n\nf\n"
	res := Split(context.Background(), "notes.txt", text, DefaultStrategies())
	for _, f := range res.Fragments {
		if f.LineCount() < MinLines && f.EndLine != countLines(text) {
			t.Errorf("non-terminal fragment %v is under MinLines", f.ID())
		}
	}
}
