// Package utility implements the concept-coverage submodular utility the
// Selector maximizes greedily: U(S) = Σ_z φ(max_{f∈S} a(f,z)), φ=sqrt.
package utility

import (
	"math"

	"ctxlens/internal/concept"
	"ctxlens/internal/fragment"
	"ctxlens/internal/graph"
)

// structuralSentinel is the always-touched member of Z whose per-fragment
// activation is R(f) itself, so a fragment that carries no diff concept
// still gains √R(f) − √current on it (spec.md §4.9). That gain is zero
// once S already holds a fragment whose R is at least R(f).
const structuralSentinel = "\x00structural"

// State holds the current per-concept max activation, current_z in the
// spec's ΔU formula. It is mutated only by Apply, after a fragment has
// actually been added to S — Gain itself never mutates state, which is
// what makes the Selector's lazy revalidation correct: a stale popped
// density is simply recomputed against the live State.
type State struct {
	current map[string]float64
}

// NewState returns the empty state (S = ∅, every current_z = 0).
func NewState() *State {
	return &State{current: make(map[string]float64)}
}

// Model is Z (diff concepts plus the structural sentinel) and R, indexed
// once at construction so Gain only ever walks the concepts a given
// fragment actually touches.
type Model struct {
	Concepts []concept.Concept
	R        graph.RelevanceVector

	touches map[fragment.ID]map[string]struct{}
}

// NewModel builds the fragment -> touched-concept-tokens index used to
// keep Gain at O(|identifiers(f)|) rather than O(|Z|).
func NewModel(concepts []concept.Concept, r graph.RelevanceVector) *Model {
	touches := make(map[fragment.ID]map[string]struct{})
	for _, c := range concepts {
		for _, id := range c.Fragments {
			if touches[id] == nil {
				touches[id] = make(map[string]struct{})
			}
			touches[id][c.Token] = struct{}{}
		}
	}
	return &Model{Concepts: concepts, R: r, touches: touches}
}

// Gain returns ΔU(candidate, S) = Σ_z (√max(current_z, a(f,z)) − √current_z)
// over the concepts candidate touches plus the structural sentinel.
func (m *Model) Gain(candidate fragment.Fragment, state *State) float64 {
	rf := m.R[candidate.ID()]

	var gain float64
	gain += stepGain(state.current[structuralSentinel], rf)

	for tok := range m.touches[candidate.ID()] {
		gain += stepGain(state.current[tok], rf)
	}
	return gain
}

// Apply commits candidate's activation into state after candidate has
// been added to S. Must be called exactly once per selected fragment.
func (s *State) Apply(candidate fragment.Fragment, m *Model) {
	rf := m.R[candidate.ID()]

	if rf > s.current[structuralSentinel] {
		s.current[structuralSentinel] = rf
	}
	for tok := range m.touches[candidate.ID()] {
		if rf > s.current[tok] {
			s.current[tok] = rf
		}
	}
}

func stepGain(current, a float64) float64 {
	next := current
	if a > next {
		next = a
	}
	return math.Sqrt(next) - math.Sqrt(current)
}
