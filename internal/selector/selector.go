// Package selector runs the lazy-greedy, τ-stopped selection that turns
// the ranked universe into the final ordered context S, per spec.md §4.8.
package selector

import (
	"container/heap"
	"sort"

	"ctxlens/internal/concept"
	"ctxlens/internal/fragment"
	"ctxlens/internal/graph"
	"ctxlens/internal/utility"
)

// Options configures one Select call. Zero-value fields fall back to the
// defaults below except Budget, which is nil-means-unbounded.
type Options struct {
	Budget              *int
	Tau                 float64 // default 0.08
	OverheadPerFragment int     // default 18
	Full                bool    // bypass the heap, return all of V in (Path,StartLine) order
}

const (
	defaultTau      = 0.08
	defaultOverhead = 18
	baselineSize    = 5
)

// Result is the outcome of one Select call.
type Result struct {
	Selected         []fragment.Fragment
	StoppingReason   string // "budget", "tau", "exhausted"
	TotalCost        int
	BudgetInfeasible bool // true if E0 alone already exceeds Budget
}

// StoppingReason values: "budget" means E0 alone exceeded Budget (see
// BudgetInfeasible) or the heap drained with the budget as the binding
// constraint (at least one candidate was skipped, not terminated, for
// being over budget, per spec.md §4.8's feasibility rule); "tau" means
// marginal density fell below the adaptive threshold; "exhausted" means
// the heap drained with no budget skips at all.

// Select runs the greedy loop starting from S=core, expanding into
// candidates while budget and the τ-stopping rule allow.
func Select(core, candidates []fragment.Fragment, r graph.RelevanceVector, concepts []concept.Concept, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	model := utility.NewModel(concepts, r)

	if opts.Full {
		return selectFull(core, candidates), nil
	}

	state := utility.NewState()
	cost := func(f fragment.Fragment) int { return f.TokenCount + opts.OverheadPerFragment }

	selected := make([]fragment.Fragment, 0, len(core)+len(candidates))
	inS := make(map[fragment.ID]bool, len(core)+len(candidates))
	totalCost := 0
	for _, f := range core {
		state.Apply(f, model)
		selected = append(selected, f)
		inS[f.ID()] = true
		totalCost += cost(f)
	}

	budgetInfeasible := opts.Budget != nil && totalCost > *opts.Budget
	if budgetInfeasible {
		sortByID(selected)
		return &Result{Selected: selected, StoppingReason: "budget", TotalCost: totalCost, BudgetInfeasible: true}, nil
	}

	h := &densityHeap{}
	heap.Init(h)
	for _, f := range candidates {
		if inS[f.ID()] {
			continue
		}
		heap.Push(h, densityItem{frag: f, density: density(model, f, state, cost(f)), r: r[f.ID()]})
	}

	var baseline []float64
	var tauAbs float64
	reason := "exhausted"
	budgetBound := false

	for h.Len() > 0 {
		top := heap.Pop(h).(densityItem)
		if inS[top.frag.ID()] {
			continue
		}

		actual := density(model, top.frag, state, cost(top.frag))
		if actual < top.density-1e-12 {
			top.density = actual
			top.r = r[top.frag.ID()]
			heap.Push(h, top)
			continue
		}

		if len(baseline) < baselineSize {
			baseline = append(baseline, actual)
			if len(baseline) == baselineSize {
				tauAbs = opts.Tau * median(baseline)
			}
		} else if actual < tauAbs {
			reason = "tau"
			break
		}

		f := top.frag
		c := cost(f)
		if opts.Budget != nil && totalCost+c > *opts.Budget {
			budgetBound = true
			continue
		}

		state.Apply(f, model)
		selected = append(selected, f)
		inS[f.ID()] = true
		totalCost += c
	}
	if reason == "exhausted" && budgetBound {
		reason = "budget"
	}

	sortByID(selected)
	return &Result{Selected: selected, StoppingReason: reason, TotalCost: totalCost}, nil
}

func selectFull(core, candidates []fragment.Fragment) *Result {
	seen := make(map[fragment.ID]bool, len(core)+len(candidates))
	all := make([]fragment.Fragment, 0, len(core)+len(candidates))
	total := 0
	for _, f := range core {
		if !seen[f.ID()] {
			seen[f.ID()] = true
			all = append(all, f)
			total += f.TokenCount
		}
	}
	for _, f := range candidates {
		if !seen[f.ID()] {
			seen[f.ID()] = true
			all = append(all, f)
			total += f.TokenCount
		}
	}
	sortByID(all)
	return &Result{Selected: all, StoppingReason: "exhausted", TotalCost: total}
}

func density(model *utility.Model, f fragment.Fragment, state *utility.State, cost int) float64 {
	if cost <= 0 {
		cost = 1
	}
	return model.Gain(f, state) / float64(cost)
}

func sortByID(fs []fragment.Fragment) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].ID().Less(fs[j].ID()) })
}

func median(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func withDefaults(opts Options) Options {
	if opts.Tau == 0 {
		opts.Tau = defaultTau
	}
	if opts.OverheadPerFragment == 0 {
		opts.OverheadPerFragment = defaultOverhead
	}
	return opts
}

type densityItem struct {
	frag    fragment.Fragment
	density float64
	r       float64
}

// densityHeap is a max-heap on density, tie-broken by higher PPR then by
// lexicographic (Path, StartLine), matching spec.md §4.8's ordering rule.
type densityHeap []densityItem

func (h densityHeap) Len() int { return len(h) }
func (h densityHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.density != b.density {
		return a.density > b.density
	}
	if a.r != b.r {
		return a.r > b.r
	}
	return a.frag.ID().Less(b.frag.ID())
}
func (h densityHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *densityHeap) Push(x interface{}) { *h = append(*h, x.(densityItem)) }
func (h *densityHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
