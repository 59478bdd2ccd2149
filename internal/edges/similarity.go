package edges

import (
	"context"
	"math"

	"ctxlens/internal/fragment"
	"ctxlens/internal/universe"
)

// SimilarityBuilder links fragments whose identifier sets are similar
// under TF-IDF-weighted cosine similarity, above policy.SimilarityThreshold.
// This is pure numeric computation over sparse sets already materialized
// by the Fragmenter; no vector database is wired in (see DESIGN.md for
// why modernc.org/sqlite and vector-search libraries elsewhere in the
// corpus are not a fit for an ephemeral, ≤5000-fragment, single-run
// sparse cosine computation).
func SimilarityBuilder(ctx context.Context, u *universe.Universe, policy Policy) ([]Edge, error) {
	if u == nil || len(u.Fragments) < 2 {
		return nil, nil
	}

	df := make(map[string]int)
	for _, f := range u.Fragments {
		for tok := range f.Identifiers {
			df[tok]++
		}
	}
	n := float64(len(u.Fragments))
	idf := make(map[string]float64, len(df))
	for tok, count := range df {
		idf[tok] = math.Log(1 + n/float64(count))
	}

	norms := make(map[fragment.ID]float64, len(u.Fragments))
	for _, f := range u.Fragments {
		var sumSq float64
		for tok := range f.Identifiers {
			w := idf[tok]
			sumSq += w * w
		}
		norms[f.ID()] = math.Sqrt(sumSq)
	}

	tokenFrags := make(map[string][]fragment.Fragment)
	for _, f := range u.Fragments {
		for tok := range f.Identifiers {
			tokenFrags[tok] = append(tokenFrags[tok], f)
		}
	}

	seenPair := make(map[[2]fragment.ID]bool)
	var out []Edge
	for _, f := range u.Fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w := policy.weightFor(f.Path)
		candidates := make(map[fragment.ID]fragment.Fragment)
		for tok := range f.Identifiers {
			for _, g := range tokenFrags[tok] {
				if g.ID() != f.ID() {
					candidates[g.ID()] = g
				}
			}
		}
		for _, g := range candidates {
			pair := pairKey(f.ID(), g.ID())
			if seenPair[pair] {
				continue
			}
			seenPair[pair] = true

			cos := cosine(f, g, idf, norms)
			if cos < policy.SimilarityThreshold {
				continue
			}
			weight := w.SimilarityMin + cos*(w.SimilarityMax-w.SimilarityMin)
			if weight > 1 {
				weight = 1
			}
			out = append(out,
				Edge{From: f.ID(), To: g.ID(), Weight: weight, Family: FamilySimilarity},
				Edge{From: g.ID(), To: f.ID(), Weight: weight, Family: FamilySimilarity},
			)
		}
	}
	return out, nil
}

func pairKey(a, b fragment.ID) [2]fragment.ID {
	if a.Less(b) {
		return [2]fragment.ID{a, b}
	}
	return [2]fragment.ID{b, a}
}

func cosine(f, g fragment.Fragment, idf map[string]float64, norms map[fragment.ID]float64) float64 {
	na, nb := norms[f.ID()], norms[g.ID()]
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for tok := range f.Identifiers {
		if _, ok := g.Identifiers[tok]; ok {
			w := idf[tok]
			dot += w * w
		}
	}
	return dot / (na * nb)
}
