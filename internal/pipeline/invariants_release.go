//go:build !ctxlens_debug

package pipeline

import "ctxlens/internal/fragment"

// assertInvariants is a no-op in release builds; see invariants_debug.go.
func assertInvariants(core map[fragment.ID]bool, selected, universeFrags []fragment.Fragment) {}
