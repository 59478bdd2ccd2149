package edges

import (
	"context"
	"strings"

	"ctxlens/internal/fragment"
	"ctxlens/internal/universe"
)

// SemanticBuilder connects a fragment that mentions another fragment's
// declared symbol name to the fragment that declares it. Adapted from
// the teacher's internal/graph.BuildFromSCIP container/reference walk
// (extractContainer, isFunctionSymbol), generalized from SCIP symbol
// strings to the fragment identifier sets the Fragmenter already
// computes. This is name-matching, not true def-use resolution — an
// acknowledged heuristic approximation per spec.md §4.5.
func SemanticBuilder(ctx context.Context, u *universe.Universe, policy Policy) ([]Edge, error) {
	if u == nil {
		return nil, nil
	}

	declaring := make(map[string][]fragment.Fragment)
	for _, f := range u.Fragments {
		if f.Symbol == "" {
			continue
		}
		switch f.Kind {
		case fragment.KindFunction, fragment.KindMethod, fragment.KindClass:
			declaring[strings.ToLower(f.Symbol)] = append(declaring[strings.ToLower(f.Symbol)], f)
		}
	}
	if len(declaring) == 0 {
		return nil, nil
	}

	var out []Edge
	for _, ref := range u.Fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w := policy.weightFor(ref.Path)
		for tok := range ref.Identifiers {
			decls, ok := declaring[tok]
			if !ok {
				continue
			}
			for _, decl := range decls {
				if decl.ID() == ref.ID() {
					continue
				}
				out = append(out,
					Edge{From: ref.ID(), To: decl.ID(), Weight: w.Semantic, Family: FamilySemantic},
					Edge{From: decl.ID(), To: ref.ID(), Weight: w.Semantic * w.ReverseFactor, Family: FamilySemantic},
				)
			}
		}
	}
	return out, nil
}
