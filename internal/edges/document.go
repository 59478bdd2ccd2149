package edges

import (
	"context"
	"path"
	"regexp"
	"strings"

	"ctxlens/internal/fragment"
	"ctxlens/internal/universe"
)

var mdLinkRe = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)
var citationRe = regexp.MustCompile(`\[@([a-zA-Z0-9_:-]+)\]`)

// DocumentLinkBuilder resolves Markdown links emitted by the Markdown
// fragmenter strategy: an in-page `#anchor` link to the section whose
// heading slugifies to that anchor, a relative file link to the target
// file's first fragment, and a citation-key co-reference ([@key]) between
// every pair of fragments that cite the same key. Directed by the
// reference, except citation edges which are undirected (both directions
// carry the same weight since co-citing a source is symmetric).
func DocumentLinkBuilder(ctx context.Context, u *universe.Universe, policy Policy) ([]Edge, error) {
	if u == nil {
		return nil, nil
	}

	headingsByFile := make(map[string]map[string]fragment.ID)
	for _, f := range u.Fragments {
		if f.Kind != fragment.KindSection || f.Symbol == "" {
			continue
		}
		if headingsByFile[f.Path] == nil {
			headingsByFile[f.Path] = make(map[string]fragment.ID)
		}
		slug := slugify(f.Symbol)
		if _, exists := headingsByFile[f.Path][slug]; !exists {
			headingsByFile[f.Path][slug] = f.ID()
		}
	}

	var out []Edge
	for _, f := range u.Fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Kind != fragment.KindSection {
			continue
		}
		for _, m := range mdLinkRe.FindAllStringSubmatch(f.Content, -1) {
			target := m[1]
			switch {
			case strings.HasPrefix(target, "#"):
				anchor := strings.TrimPrefix(target, "#")
				if id, ok := headingsByFile[f.Path][anchor]; ok && id != f.ID() {
					out = append(out, Edge{From: f.ID(), To: id, Weight: policy.DocumentMax, Family: FamilyDocument})
				}
			case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"), strings.HasPrefix(target, "mailto:"):
				// external; no in-universe fragment to link to.
			default:
				resolved := path.Join(path.Dir(f.Path), target)
				if frags, ok := u.ByPath[resolved]; ok && len(frags) > 0 {
					out = append(out, Edge{From: f.ID(), To: frags[0].ID(), Weight: policy.DocumentMin, Family: FamilyDocument})
				}
			}
		}
	}
	out = append(out, buildCitationEdges(u.Fragments, policy.CitationWeight)...)
	return out, nil
}

// buildCitationEdges links every fragment citing a given key (e.g. a
// paper reference like [@smith2020]) to every other fragment citing that
// same key, through the first citing fragment as hub, so a source cited
// from N places yields N-1 edges rather than O(N^2).
func buildCitationEdges(fragments []fragment.Fragment, weight float64) []Edge {
	citedBy := make(map[string][]fragment.ID)
	for _, f := range fragments {
		for _, m := range citationRe.FindAllStringSubmatch(f.Content, -1) {
			key := m[1]
			citedBy[key] = append(citedBy[key], f.ID())
		}
	}

	var out []Edge
	for _, ids := range citedBy {
		if len(ids) < 2 {
			continue
		}
		hub := ids[0]
		for _, other := range ids[1:] {
			if other == hub {
				continue
			}
			out = append(out,
				Edge{From: hub, To: other, Weight: weight, Family: FamilyDocument},
				Edge{From: other, To: hub, Weight: weight, Family: FamilyDocument},
			)
		}
	}
	return out
}

var slugNonWordRe = regexp.MustCompile(`[^a-z0-9\- ]`)

func slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugNonWordRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
