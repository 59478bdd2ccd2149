package fragment

import (
	"context"
	"strings"
)

// Strategy fragments a single file. Strategies are tried in registration
// order; the first one whose CanHandle returns true wins. A Strategy
// must never return an error that aborts the run — parse failures are an
// expected branch (NotParseable), not an exception: return false from
// CanHandle, or (nil, false, nil) from Fragment, to fall through to the
// next strategy instead.
type Strategy interface {
	// Name identifies the strategy for diagnostics.
	Name() string

	// CanHandle reports whether this strategy should be tried for path.
	CanHandle(path string) bool

	// Fragment attempts to split text into fragments. ok is false when
	// the strategy could not make sense of the input (NotParseable) and
	// the caller should fall through to the next strategy.
	Fragment(ctx context.Context, path, text string) (frags []Fragment, ok bool, err error)
}

// DefaultStrategies returns the strategy pipeline in first-applicable-wins
// order: AST parsing, Markdown, structured config, then the text
// fallback. The text strategy always returns ok=true, so it terminates
// the chain.
func DefaultStrategies() []Strategy {
	return []Strategy{
		newTreeSitterStrategy(),
		newMarkdownStrategy(),
		newStructuredConfigStrategy(),
		newTextStrategy(),
	}
}

// Split fragments a single file's text by running the strategy pipeline.
// It never fails the run: a strategy error downgrades to the next
// strategy (recorded in Result.Errors), and the fallback text strategy
// always succeeds, so Split always returns at least one fragment for
// non-empty text.
func Split(ctx context.Context, path, text string, strategies []Strategy) Result {
	var result Result
	if strings.TrimRight(text, "\n") == "" {
		return result
	}

	for _, s := range strategies {
		if !s.CanHandle(path) {
			continue
		}
		frags, ok, err := s.Fragment(ctx, path, text)
		if err != nil {
			result.Errors = append(result.Errors, &BuildError{Path: path, Strategy: s.Name(), Err: err})
			continue
		}
		if !ok {
			continue
		}
		result.Fragments = frags
		result.Strategy = s.Name()
		return result
	}

	// Should be unreachable: the text strategy always applies and always
	// succeeds. Guard anyway so Split never returns an empty fragment set
	// for non-empty text (invariant: every line tiled by exactly one
	// fragment).
	frags, _, _ := newTextStrategy().Fragment(ctx, path, text)
	result.Fragments = frags
	result.Strategy = "text"
	return result
}

// lineOf returns the 1-based number of the line containing the
// zero-based byteOffset, given the precomputed byte offsets of each
// line start.
func lineOf(offsets []int, byteOffset int) int {
	// binary search for the last offset <= byteOffset
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= byteOffset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1 // 1-based line number
}

// lineOffsets computes the byte offset of the start of each line.
func lineOffsets(text string) []int {
	offsets := []int{0}
	for i, r := range text {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
