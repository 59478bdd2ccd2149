package graph

import (
	"context"
	"math"
	"testing"

	"ctxlens/internal/edges"
	"ctxlens/internal/fragment"
)

func frag(path string, start, end int) fragment.Fragment {
	return fragment.Fragment{Path: path, StartLine: start, EndLine: end, Kind: fragment.KindFunction}
}

func TestPPRBasic(t *testing.T) {
	// A -> B -> C, A -> D, B -> D
	a := frag("a.go", 1, 5)
	b := frag("b.go", 1, 5)
	c := frag("c.go", 1, 5)
	d := frag("d.go", 1, 5)
	universe := []fragment.Fragment{a, b, c, d}

	edgeSet := []edges.Edge{
		{From: a.ID(), To: b.ID(), Weight: 1.0, Family: edges.FamilySemantic},
		{From: b.ID(), To: c.ID(), Weight: 1.0, Family: edges.FamilySemantic},
		{From: a.ID(), To: d.ID(), Weight: 0.5, Family: edges.FamilySimilarity},
		{From: b.ID(), To: d.ID(), Weight: 0.8, Family: edges.FamilySemantic},
	}

	g := Assemble(universe, [][]edges.Edge{edgeSet})
	if g.NumNodes() != 4 {
		t.Fatalf("expected 4 nodes, got %d", g.NumNodes())
	}

	ctx := context.Background()
	out, err := PPR(ctx, g, []fragment.ID{a.ID()}, DefaultPPROptions())
	if err != nil {
		t.Fatalf("PPR failed: %v", err)
	}

	if _, ok := out.Scores[a.ID()]; !ok {
		t.Error("expected seed node A to have a score")
	}

	var sum float64
	for _, v := range out.Scores {
		sum += v
	}
	if math.Abs(sum-1) > 1e-3 {
		t.Errorf("expected scores to sum to ~1, got %f", sum)
	}
}

func TestPPRConvergence(t *testing.T) {
	paths := []string{"main.go", "engine.go", "backend.go", "server.go", "query.go", "cache.go"}
	frags := make([]fragment.Fragment, len(paths))
	for i, p := range paths {
		frags[i] = frag(p, 1, 5)
	}
	main, engine, backend, server, query, cache := frags[0], frags[1], frags[2], frags[3], frags[4], frags[5]

	edgeSet := []edges.Edge{
		{From: main.ID(), To: engine.ID(), Weight: 1.0, Family: edges.FamilySemantic},
		{From: engine.ID(), To: backend.ID(), Weight: 1.0, Family: edges.FamilySemantic},
		{From: engine.ID(), To: query.ID(), Weight: 1.0, Family: edges.FamilySemantic},
		{From: engine.ID(), To: cache.ID(), Weight: 0.8, Family: edges.FamilySimilarity},
		{From: backend.ID(), To: server.ID(), Weight: 1.0, Family: edges.FamilySemantic},
		{From: query.ID(), To: cache.ID(), Weight: 0.9, Family: edges.FamilySemantic},
	}

	g := Assemble(frags, [][]edges.Edge{edgeSet})
	ctx := context.Background()
	out, err := PPR(ctx, g, []fragment.ID{main.ID()}, DefaultPPROptions())
	if err != nil {
		t.Fatalf("PPR failed: %v", err)
	}
	if !out.Converged && out.Iterations >= DefaultPPROptions().MaxIterations {
		t.Log("PPR did not converge within MaxIterations, logging instead of failing")
	}
	if len(out.Scores) != len(frags) {
		t.Errorf("expected %d scored nodes, got %d", len(frags), len(out.Scores))
	}
	if out.Scores[main.ID()] <= 0 {
		t.Error("expected seed to retain positive mass")
	}
}

func TestPPRMultipleSeeds(t *testing.T) {
	a, b, c, d := frag("a.go", 1, 3), frag("b.go", 1, 3), frag("c.go", 1, 3), frag("d.go", 1, 3)
	edgeSet := []edges.Edge{
		{From: a.ID(), To: b.ID(), Weight: 1.0, Family: edges.FamilySemantic},
		{From: c.ID(), To: b.ID(), Weight: 1.0, Family: edges.FamilySemantic},
		{From: b.ID(), To: d.ID(), Weight: 1.0, Family: edges.FamilySemantic},
	}
	g := Assemble([]fragment.Fragment{a, b, c, d}, [][]edges.Edge{edgeSet})

	out, err := PPR(context.Background(), g, []fragment.ID{a.ID(), c.ID()}, DefaultPPROptions())
	if err != nil {
		t.Fatalf("PPR failed: %v", err)
	}
	if out.Scores[b.ID()] <= out.Scores[d.ID()] {
		t.Errorf("expected B (reachable from both seeds) to outscore D, got B=%f D=%f", out.Scores[b.ID()], out.Scores[d.ID()])
	}
}

func TestPPREmptySeeds(t *testing.T) {
	a, b := frag("a.go", 1, 3), frag("b.go", 1, 3)
	edgeSet := []edges.Edge{{From: a.ID(), To: b.ID(), Weight: 1.0, Family: edges.FamilySemantic}}
	g := Assemble([]fragment.Fragment{a, b}, [][]edges.Edge{edgeSet})

	_, err := PPR(context.Background(), g, nil, DefaultPPROptions())
	if err == nil {
		t.Error("expected error for empty seed set")
	}
}

func TestPPRNonexistentSeeds(t *testing.T) {
	a, b := frag("a.go", 1, 3), frag("b.go", 1, 3)
	edgeSet := []edges.Edge{{From: a.ID(), To: b.ID(), Weight: 1.0, Family: edges.FamilySemantic}}
	g := Assemble([]fragment.Fragment{a, b}, [][]edges.Edge{edgeSet})

	missing := fragment.ID{Path: "missing.go", StartLine: 1, EndLine: 3}
	_, err := PPR(context.Background(), g, []fragment.ID{missing}, DefaultPPROptions())
	if err == nil {
		t.Error("expected error when no seed is present in the graph")
	}
}

func TestPPRDanglingNodeConservesMass(t *testing.T) {
	// B is dangling: it has no outgoing edges. Mass routed to B must
	// teleport back out rather than vanish, per the teacher-bug fix.
	a, b := frag("a.go", 1, 3), frag("b.go", 1, 3)
	edgeSet := []edges.Edge{{From: a.ID(), To: b.ID(), Weight: 1.0, Family: edges.FamilySemantic}}
	g := Assemble([]fragment.Fragment{a, b}, [][]edges.Edge{edgeSet})

	out, err := PPR(context.Background(), g, []fragment.ID{a.ID()}, DefaultPPROptions())
	if err != nil {
		t.Fatalf("PPR failed: %v", err)
	}
	var sum float64
	for _, v := range out.Scores {
		sum += v
	}
	if math.Abs(sum-1) > 1e-3 {
		t.Errorf("dangling node should not leak probability mass, sum=%f", sum)
	}
}

func TestSuppressHubsNeverRaisesWeight(t *testing.T) {
	hub := frag("hub.go", 1, 3)
	spokes := make([]fragment.Fragment, 0, 40)
	var edgeSet []edges.Edge
	for i := 0; i < 40; i++ {
		s := frag("spoke.go", i*10+1, i*10+3)
		spokes = append(spokes, s)
		edgeSet = append(edgeSet, edges.Edge{From: s.ID(), To: hub.ID(), Weight: 0.9, Family: edges.FamilySemantic})
	}
	universe := append([]fragment.Fragment{hub}, spokes...)
	g := Assemble(universe, [][]edges.Edge{edgeSet})

	before := make(map[fragment.ID]float64)
	for _, in := range g.inEdges[g.nodeIdx[hub.ID()]] {
		before[g.nodes[in.target]] = in.weight
	}

	suppressed := g.SuppressHubs(map[fragment.ID]bool{})
	found := false
	for _, id := range suppressed {
		if id == hub.ID() {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the high-in-degree hub to be suppressed")
	}
	for _, in := range g.inEdges[g.nodeIdx[hub.ID()]] {
		if in.weight > before[g.nodes[in.target]] {
			t.Errorf("hub suppression must never raise a weight: %f > %f", in.weight, before[g.nodes[in.target]])
		}
	}
}

func TestAssembleAggregatesByMax(t *testing.T) {
	a, b := frag("a.go", 1, 3), frag("b.go", 1, 3)
	low := []edges.Edge{{From: a.ID(), To: b.ID(), Weight: 0.2, Family: edges.FamilySimilarity}}
	high := []edges.Edge{{From: a.ID(), To: b.ID(), Weight: 0.9, Family: edges.FamilySemantic}}

	g := Assemble([]fragment.Fragment{a, b}, [][]edges.Edge{low, high})
	out := g.outEdges[g.nodeIdx[a.ID()]]
	if len(out) != 1 {
		t.Fatalf("expected a single aggregated edge, got %d", len(out))
	}
	if out[0].weight != 0.9 {
		t.Errorf("expected aggregation to keep the max weight 0.9, got %f", out[0].weight)
	}
}

func TestAssembleDropsSelfEdges(t *testing.T) {
	a := frag("a.go", 1, 3)
	selfEdge := []edges.Edge{{From: a.ID(), To: a.ID(), Weight: 1.0, Family: edges.FamilySemantic}}

	g := Assemble([]fragment.Fragment{a}, [][]edges.Edge{selfEdge})
	if g.NumEdges() != 0 {
		t.Errorf("expected self-edges to be dropped, got %d edges", g.NumEdges())
	}
}

func TestAssembleKeepsIsolatedNodes(t *testing.T) {
	a, b := frag("a.go", 1, 3), frag("b.go", 1, 3)
	g := Assemble([]fragment.Fragment{a, b}, nil)
	if g.NumNodes() != 2 {
		t.Fatalf("expected isolated fragments to still be nodes, got %d", g.NumNodes())
	}
	if !g.HasNode(a.ID()) || !g.HasNode(b.ID()) {
		t.Error("expected both fragments present as nodes")
	}
}

func BenchmarkPPR(b *testing.B) {
	numNodes := 1000
	frags := make([]fragment.Fragment, numNodes)
	for i := 0; i < numNodes; i++ {
		frags[i] = frag("bench.go", i*10+1, i*10+5)
	}
	var edgeSet []edges.Edge
	for i := 0; i < numNodes; i++ {
		for j := 1; j <= 5; j++ {
			target := (i + j) % numNodes
			edgeSet = append(edgeSet, edges.Edge{From: frags[i].ID(), To: frags[target].ID(), Weight: 1.0, Family: edges.FamilySemantic})
		}
	}
	g := Assemble(frags, [][]edges.Edge{edgeSet})

	ctx := context.Background()
	seeds := []fragment.ID{frags[0].ID()}
	opts := DefaultPPROptions()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = PPR(ctx, g, seeds, opts)
	}
}
