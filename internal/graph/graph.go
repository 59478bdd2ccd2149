// Package graph assembles the weighted fragment graph and computes
// Personalized PageRank over it, adapted from the teacher's
// internal/graph package: CSR-like adjacency over dense integer ids,
// keyed here by fragment.ID instead of an opaque string symbol id.
package graph

import (
	"math"
	"sort"

	"ctxlens/internal/edges"
	"ctxlens/internal/fragment"
)

type edgeEntry struct {
	target int
	weight float64
}

// Graph is a sparse directed graph over fragment.ID nodes.
type Graph struct {
	nodes   []fragment.ID
	nodeIdx map[fragment.ID]int

	outEdges [][]edgeEntry
	inEdges  [][]edgeEntry
}

func newGraph() *Graph {
	return &Graph{nodeIdx: make(map[fragment.ID]int)}
}

func (g *Graph) addNode(id fragment.ID) int {
	if idx, ok := g.nodeIdx[id]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.nodeIdx[id] = idx
	g.outEdges = append(g.outEdges, nil)
	g.inEdges = append(g.inEdges, nil)
	return idx
}

// NumNodes returns |V|.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns |E| after aggregation (one count per directed pair).
func (g *Graph) NumEdges() int {
	total := 0
	for _, es := range g.outEdges {
		total += len(es)
	}
	return total
}

// HasNode reports whether id is a node in the graph.
func (g *Graph) HasNode(id fragment.ID) bool {
	_, ok := g.nodeIdx[id]
	return ok
}

// Assemble aggregates every builder's edges by max per ordered pair,
// drops self-edges (invariant: no edge from a fragment to itself), and
// ensures every fragment in universe is a node even if it has no edges
// (an isolated node still needs a PPR score).
//
// The teacher's single-producer Graph.AddEdge model aggregated by
// last-write; this generalizes aggregation to an explicit max since the
// Assembler here has multiple independent producers writing the same
// pair (spec.md §4.6).
func Assemble(universe []fragment.Fragment, builderOutputs [][]edges.Edge) *Graph {
	g := newGraph()
	for _, f := range universe {
		g.addNode(f.ID())
	}

	best := make(map[[2]int]float64)
	for _, edgeSet := range builderOutputs {
		for _, e := range edgeSet {
			if e.From == e.To {
				continue
			}
			if e.Weight <= 0 {
				continue
			}
			weight := e.Weight
			if weight > 1 {
				weight = 1
			}
			src := g.addNode(e.From)
			dst := g.addNode(e.To)
			key := [2]int{src, dst}
			if cur, ok := best[key]; !ok || weight > cur {
				best[key] = weight
			}
		}
	}

	pairs := make([][2]int, 0, len(best))
	for k := range best {
		pairs = append(pairs, k)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	for _, k := range pairs {
		w := best[k]
		g.outEdges[k[0]] = append(g.outEdges[k[0]], edgeEntry{target: k[1], weight: w})
		g.inEdges[k[1]] = append(g.inEdges[k[1]], edgeEntry{target: k[0], weight: w})
	}
	return g
}

// SuppressHubs dampens incoming weight at high-in-degree nodes outside
// E0, per spec.md §4.6: theta is the 95th percentile of in-degree;
// nodes above theta (and not in the core set) have every incoming
// weight scaled by 1/log(1+in_degree). Hub suppression never raises a
// weight, only dampens (spec.md §3 invariant).
//
// Applied before deg_out renormalization in PPR (Open Question in
// spec.md §9, resolved and documented in DESIGN.md): PPR always
// recomputes deg_out from the current edge weights, so suppressing here
// and renormalizing in PPR is the same single pass either order would
// require — this ordering is simply "suppress once, at assembly time,
// before anything reads deg_out."
func (g *Graph) SuppressHubs(core map[fragment.ID]bool) []fragment.ID {
	inDegree := make([]int, len(g.nodes))
	for i := range g.inEdges {
		inDegree[i] = len(g.inEdges[i])
	}
	theta := percentile95(inDegree)

	var suppressed []fragment.ID
	for i, id := range g.nodes {
		if float64(inDegree[i]) <= theta || core[id] {
			continue
		}
		scale := 1 / math.Log(1+float64(inDegree[i]))
		if scale > 1 {
			scale = 1
		}
		for _, in := range g.inEdges[i] {
			// propagate the scaled weight back into the source's
			// out-edge entry for the same pair.
			for j, out := range g.outEdges[in.target] {
				if out.target == i {
					g.outEdges[in.target][j].weight *= scale
				}
			}
		}
		for j := range g.inEdges[i] {
			g.inEdges[i][j].weight *= scale
		}
		suppressed = append(suppressed, id)
	}
	return suppressed
}

func percentile95(values []int) float64 {
	if len(values) == 0 {
		return math.Inf(1)
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	idx := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return float64(sorted[idx])
}
