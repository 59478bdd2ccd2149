package fragment

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
)

// markdownStrategy splits a Markdown file into ATX-heading-bounded
// sections; a fenced code block inside a section becomes its own
// sub-fragment so code samples are selectable independently of their
// surrounding prose.
type markdownStrategy struct{}

func newMarkdownStrategy() *markdownStrategy { return &markdownStrategy{} }

func (s *markdownStrategy) Name() string { return "markdown" }

func (s *markdownStrategy) CanHandle(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdx":
		return true
	default:
		return false
	}
}

var atxHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
var fenceRe = regexp.MustCompile("^(```|~~~)")

func (s *markdownStrategy) Fragment(_ context.Context, path, text string) ([]Fragment, bool, error) {
	lines := strings.Split(text, "\n")
	total := len(lines)
	if total > 0 && lines[total-1] == "" && strings.HasSuffix(text, "\n") {
		total--
	}
	if total == 0 {
		return nil, false, nil
	}

	type section struct {
		title     string
		start     int
		end       int
	}
	var sections []section
	cur := section{start: 1}
	for i := 1; i <= total; i++ {
		if m := atxHeadingRe.FindStringSubmatch(lines[i-1]); m != nil {
			if i > cur.start {
				cur.end = i - 1
				sections = append(sections, cur)
			}
			cur = section{title: strings.TrimSpace(m[2]), start: i}
		}
	}
	cur.end = total
	sections = append(sections, cur)

	var frags []Fragment
	for _, sec := range sections {
		frags = append(frags, splitMarkdownSection(path, lines, sec.title, sec.start, sec.end)...)
	}
	if len(frags) == 0 {
		return nil, false, nil
	}
	return frags, true, nil
}

// splitMarkdownSection carves fenced code blocks out of a section as
// their own KindSection fragments, leaving the surrounding prose as
// separate fragments, then coalesces any undersized pieces.
func splitMarkdownSection(path string, lines []string, title string, start, end int) []Fragment {
	var frags []Fragment
	proseStart := start
	i := start
	for i <= end {
		if fenceRe.MatchString(strings.TrimSpace(lines[i-1])) {
			fenceStart := i
			fenceEnd := end
			for j := i + 1; j <= end; j++ {
				if fenceRe.MatchString(strings.TrimSpace(lines[j-1])) {
					fenceEnd = j
					break
				}
			}
			if fenceStart > proseStart {
				frags = append(frags, coalesceMarkdownProse(path, lines, title, proseStart, fenceStart-1)...)
			}
			frags = append(frags, Fragment{
				Path:        path,
				StartLine:   fenceStart,
				EndLine:     fenceEnd,
				Kind:        KindSection,
				Symbol:      title,
				Content:     joinLines(lines, fenceStart, fenceEnd),
				Identifiers: ExtractIdentifiers(joinLines(lines, fenceStart, fenceEnd)),
				TokenCount:  estimateTokens(joinLines(lines, fenceStart, fenceEnd)),
			})
			i = fenceEnd + 1
			proseStart = i
			continue
		}
		i++
	}
	if proseStart <= end {
		frags = append(frags, coalesceMarkdownProse(path, lines, title, proseStart, end)...)
	}
	return frags
}

func coalesceMarkdownProse(path string, lines []string, title string, start, end int) []Fragment {
	frags := coalesceParagraphs(path, lines, start, end)
	for i := range frags {
		frags[i].Kind = KindSection
		frags[i].Symbol = title
	}
	return frags
}
