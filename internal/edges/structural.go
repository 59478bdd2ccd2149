package edges

import (
	"context"

	"ctxlens/internal/fragment"
	"ctxlens/internal/pathrel"
	"ctxlens/internal/universe"
)

// structural edge weights within the spec.md §4.5 0.05-0.60 band:
// containment (method -> its header) is the strongest structural
// signal, test<->code pairing next, bare directory siblings weakest.
const (
	containmentWeight = 0.60
	testPairWeight     = 0.45
	siblingWeight      = 0.15
)

// StructuralBuilder emits containment, sibling, and test<->code edges,
// reusing the same naming-convention and containment tables the
// Universe Builder used to discover these files in the first place
// (internal/pathrel), per spec.md §4.4's note that the logic should not
// be duplicated between the two stages.
func StructuralBuilder(ctx context.Context, u *universe.Universe, policy Policy) ([]Edge, error) {
	if u == nil {
		return nil, nil
	}

	var out []Edge
	addPair := func(a, b fragment.ID, weight float64) {
		out = append(out,
			Edge{From: a, To: b, Weight: weight, Family: FamilyStructural},
			Edge{From: b, To: a, Weight: weight * policy.StructuralReverse, Family: FamilyStructural},
		)
	}

	for _, f := range u.Fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Container != nil {
			if container, ok := u.ByID[*f.Container]; ok {
				addPair(f.ID(), container.ID(), containmentWeight)
			}
		}
	}

	paths := make([]string, 0, len(u.ByPath))
	for p := range u.ByPath {
		paths = append(paths, p)
	}
	for i, a := range paths {
		for _, b := range paths[i+1:] {
			if pathrel.IsSibling(a, b) {
				linkFiles(u, a, b, siblingWeight, addPair)
			}
		}
	}

	for p := range u.ByPath {
		for _, cand := range pathrel.TestPairCandidates(p) {
			if _, ok := u.ByPath[cand]; ok {
				linkFiles(u, p, cand, testPairWeight, addPair)
			}
		}
	}

	return out, nil
}

// linkFiles connects the first fragment of each file as the
// representative link point between two structurally related files,
// avoiding an O(fragments_a * fragments_b) blowup for large files.
func linkFiles(u *universe.Universe, a, b string, weight float64, addPair func(fragment.ID, fragment.ID, float64)) {
	fa := u.ByPath[a]
	fb := u.ByPath[b]
	if len(fa) == 0 || len(fb) == 0 {
		return
	}
	addPair(fa[0].ID(), fb[0].ID(), weight)
}
