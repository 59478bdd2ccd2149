// Package concept extracts diff concepts — identifier tokens appearing
// on changed lines — and resolves each one to the set of fragments that
// contain it, once the universe is built.
package concept

import (
	"sort"
	"strings"

	"ctxlens/internal/diffmap"
	"ctxlens/internal/fragment"
)

// Concept is a non-stopword identifier token seen on an added or removed
// line, together with every fragment (across the full universe) that
// contains it. Fragments is populated by Index.Resolve, not by Extract.
type Concept struct {
	Token     string
	Fragments []fragment.ID
}

// Extract tokenizes every line a hunk touches, using the same tokenizer
// the Fragmenter uses for identifier extraction (fragment.Tokenize),
// and returns one Concept per distinct token. Fragments is left nil;
// callers resolve it against the universe via Index.Resolve.
func Extract(hunks []diffmap.Hunk, preText, postText map[string]string) []Concept {
	tokens := make(map[string]struct{})

	for _, h := range hunks {
		var text string
		var ok bool
		switch h.Side {
		case diffmap.SidePre:
			text, ok = preText[h.Path]
		case diffmap.SidePost:
			text, ok = postText[h.Path]
		}
		if !ok {
			continue
		}
		for tok := range linesTokens(text, h.StartLine, h.EndLine) {
			tokens[tok] = struct{}{}
		}
	}

	concepts := make([]Concept, 0, len(tokens))
	for tok := range tokens {
		concepts = append(concepts, Concept{Token: tok})
	}
	sort.Slice(concepts, func(i, j int) bool { return concepts[i].Token < concepts[j].Token })
	return concepts
}

func linesTokens(text string, start, end int) map[string]struct{} {
	lines := strings.Split(text, "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return nil
	}
	slice := strings.Join(lines[start-1:end], "\n")
	return fragment.ExtractIdentifiers(slice)
}

// Index maps a normalized token to every fragment ID in the universe
// that contains it, the "cheap global index" spec.md §4.4 refers to for
// rare-concept expansion. Built once per run over the finalized universe.
type Index map[string][]fragment.ID

// BuildIndex builds the inverted index over universe's identifier sets.
func BuildIndex(universe []fragment.Fragment) Index {
	idx := make(Index)
	for _, f := range universe {
		for tok := range f.Identifiers {
			idx[tok] = append(idx[tok], f.ID())
		}
	}
	for tok := range idx {
		sort.Slice(idx[tok], func(i, j int) bool { return idx[tok][i].Less(idx[tok][j]) })
	}
	return idx
}

// Resolve fills in Fragments for every concept by looking it up in idx,
// returning a new slice (concepts is not mutated in place).
func (idx Index) Resolve(concepts []Concept) []Concept {
	resolved := make([]Concept, len(concepts))
	for i, c := range concepts {
		resolved[i] = Concept{Token: c.Token, Fragments: idx[c.Token]}
	}
	return resolved
}

// Files returns the distinct set of file paths a token's fragments span.
func (idx Index) Files(token string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, id := range idx[token] {
		out[id.Path] = struct{}{}
	}
	return out
}
