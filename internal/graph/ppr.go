package graph

import (
	"context"
	"fmt"

	"ctxlens/internal/fragment"
)

// PPROptions configures Personalized PageRank computation. Defaults
// follow spec.md §4.7/§6, not the teacher's original PageRank-style
// defaults (Damping was 0.85, Tolerance 1e-6, MaxIterations 20) — this
// pipeline's restart distribution is deliberately more local.
type PPROptions struct {
	Damping       float64 // default 0.60, range [0.50, 0.65]
	MaxIterations int     // default 50
	Tolerance     float64 // default 1e-4
}

// DefaultPPROptions returns spec.md's defaults.
func DefaultPPROptions() PPROptions {
	return PPROptions{Damping: 0.60, MaxIterations: 50, Tolerance: 1e-4}
}

// PPROutput is R plus run metadata.
type PPROutput struct {
	Scores     RelevanceVector
	Iterations int
	Converged  bool
}

// RelevanceVector is R: V -> [0,1], ΣR = 1.
type RelevanceVector map[fragment.ID]float64

// PPR computes the restart-biased stationary distribution personalized
// on seeds (E0). Adapted from the teacher's power-iteration engine
// (internal/graph/ppr.go) with one correctness fix: the teacher's loop
// skips dangling nodes entirely (`if outDegree[i] == 0 { continue }`),
// which silently drops probability mass rather than teleporting it —
// this violates spec.md §4.7's "dangling nodes teleport to p" and the
// ΣR=1 invariant (spec.md §3, testable property #4). The fix tracks
// danglingMass each iteration and folds it back into every node's score
// via the teleport vector before damping.
func PPR(ctx context.Context, g *Graph, seeds []fragment.ID, opts PPROptions) (*PPROutput, error) {
	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.60
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 50
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-4
	}

	if g.NumNodes() == 0 {
		return &PPROutput{Scores: RelevanceVector{}}, nil
	}

	seedIdx := make([]int, 0, len(seeds))
	for _, s := range seeds {
		if idx, ok := g.nodeIdx[s]; ok {
			seedIdx = append(seedIdx, idx)
		}
	}
	if len(seedIdx) == 0 {
		return nil, fmt.Errorf("graph: no seed nodes present in the graph")
	}

	n := g.NumNodes()
	teleport := make([]float64, n)
	mass := 1.0 / float64(len(seedIdx))
	for _, idx := range seedIdx {
		teleport[idx] = mass
	}

	scores := make([]float64, n)
	copy(scores, teleport)

	outDegree := make([]float64, n)
	dangling := make([]bool, n)
	for i, es := range g.outEdges {
		for _, e := range es {
			outDegree[i] += e.weight
		}
		dangling[i] = outDegree[i] == 0
	}

	newScores := make([]float64, n)
	var iterations int
	var converged bool

	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations = iter + 1

		for i := range newScores {
			newScores[i] = 0
		}

		var danglingMass float64
		for i, es := range g.outEdges {
			if dangling[i] {
				danglingMass += scores[i]
				continue
			}
			contrib := scores[i] / outDegree[i]
			for _, e := range es {
				newScores[e.target] += contrib * e.weight
			}
		}

		maxDiff := 0.0
		for i := range newScores {
			walked := newScores[i] + danglingMass*teleport[i]
			newScores[i] = (1-opts.Damping)*teleport[i] + opts.Damping*walked
			if diff := abs(newScores[i] - scores[i]); diff > maxDiff {
				maxDiff = diff
			}
		}

		scores, newScores = newScores, scores

		if maxDiff < opts.Tolerance {
			converged = true
			break
		}
	}

	result := make(RelevanceVector, n)
	for i, id := range g.nodes {
		result[id] = scores[i]
	}
	return &PPROutput{Scores: result, Iterations: iterations, Converged: converged}, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
