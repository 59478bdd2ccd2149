package fragment

import (
	"context"
	"strings"
)

// textStrategy is the universal fallback: it splits on blank-line
// paragraph boundaries and coalesces the result into the [MinLines,
// MaxLines] band. It always succeeds, so it terminates the strategy
// chain in Split.
type textStrategy struct{}

func newTextStrategy() *textStrategy { return &textStrategy{} }

func (s *textStrategy) Name() string          { return "text" }
func (s *textStrategy) CanHandle(string) bool { return true }

func (s *textStrategy) Fragment(_ context.Context, path, text string) ([]Fragment, bool, error) {
	lines := strings.Split(text, "\n")
	total := len(lines)
	if total > 0 && lines[total-1] == "" && strings.HasSuffix(text, "\n") {
		total--
	}
	if total == 0 {
		return nil, false, nil
	}
	frags := coalesceParagraphs(path, lines, 1, total)
	for i := range frags {
		frags[i].Kind = KindParagraph
	}
	return frags, true, nil
}

// coalesceParagraphs splits lines[from-1:to] on blank-line boundaries and
// coalesces the resulting paragraphs so every fragment is within
// [MinLines, MaxLines]. A final remainder shorter than MinLines (the
// paragraphs left after the last full-size fragment, or the tail of a
// MaxLines split) is emitted as its own undersized tail fragment; it is
// the only fragment allowed to end up under MinLines.
func coalesceParagraphs(path string, lines []string, from, to int) []Fragment {
	if from > to {
		return nil
	}

	type para struct{ start, end int }
	var paras []para
	curStart := -1
	for i := from; i <= to; i++ {
		blank := strings.TrimSpace(lines[i-1]) == ""
		if blank {
			if curStart != -1 {
				paras = append(paras, para{curStart, i - 1})
				curStart = -1
			}
			continue
		}
		if curStart == -1 {
			curStart = i
		}
	}
	if curStart != -1 {
		paras = append(paras, para{curStart, to})
	}
	if len(paras) == 0 {
		// Entire span is blank; still must tile it.
		paras = []para{{from, to}}
	}

	var frags []Fragment
	i := 0
	for i < len(paras) {
		start := paras[i].start
		end := paras[i].end
		i++
		for end-start+1 < MinLines && i < len(paras) {
			end = paras[i].end
			i++
		}
		for end-start+1 > MaxLines {
			splitEnd := start + MaxLines - 1
			frags = append(frags, newGenericFragment(path, lines, start, splitEnd))
			start = splitEnd + 1
		}
		frags = append(frags, newGenericFragment(path, lines, start, end))
	}

	// Bridge any gap left between consecutive paragraph runs (blank
	// separator lines) into the preceding fragment so the span from
	// `from` to `to` tiles exactly with no uncovered lines.
	return bridgeGaps(lines, frags, from, to)
}

func newGenericFragment(path string, lines []string, start, end int) Fragment {
	content := joinLines(lines, start, end)
	return Fragment{
		Path:        path,
		StartLine:   start,
		EndLine:     end,
		Kind:        KindGeneric,
		Content:     content,
		Identifiers: ExtractIdentifiers(content),
		TokenCount:  estimateTokens(content),
	}
}

// bridgeGaps extends each fragment's EndLine forward to swallow any blank
// separator lines up to the next fragment's StartLine (or to `to` for the
// last one), so paragraph splitting never leaves a line uncovered.
func bridgeGaps(lines []string, frags []Fragment, from, to int) []Fragment {
	if len(frags) == 0 {
		return frags
	}
	if frags[0].StartLine > from {
		frags[0].StartLine = from
		frags[0].Content = joinLines(lines, frags[0].StartLine, frags[0].EndLine)
		frags[0].Identifiers = ExtractIdentifiers(frags[0].Content)
		frags[0].TokenCount = estimateTokens(frags[0].Content)
	}
	for i := 0; i < len(frags)-1; i++ {
		if frags[i].EndLine+1 < frags[i+1].StartLine {
			frags[i].EndLine = frags[i+1].StartLine - 1
			frags[i].Content = joinLines(lines, frags[i].StartLine, frags[i].EndLine)
			frags[i].Identifiers = ExtractIdentifiers(frags[i].Content)
			frags[i].TokenCount = estimateTokens(frags[i].Content)
		}
	}
	last := &frags[len(frags)-1]
	if last.EndLine < to {
		last.EndLine = to
		last.Content = joinLines(lines, last.StartLine, last.EndLine)
		last.Identifiers = ExtractIdentifiers(last.Content)
		last.TokenCount = estimateTokens(last.Content)
	}
	return frags
}
