//go:build ctxlens_debug

package pipeline

import (
	"ctxlens/internal/ctxerrors"
	"ctxlens/internal/fragment"
)

func invariantViolation(msg string) *ctxerrors.Error {
	return ctxerrors.New(ctxerrors.InternalInvariantViolation, msg)
}

// assertInvariants checks E0⊆S⊆V at the end of a run. Only compiled into
// debug builds (ctxlens_debug), mirroring the teacher's cgo/!cgo split
// between internal/fragment/treesitter.go and treesitter_stub.go: release
// builds trust the invariant structurally and pay nothing for the check.
func assertInvariants(core map[fragment.ID]bool, selected, universeFrags []fragment.Fragment) {
	inV := make(map[fragment.ID]bool, len(universeFrags))
	for _, f := range universeFrags {
		inV[f.ID()] = true
	}
	inS := make(map[fragment.ID]bool, len(selected))
	for _, f := range selected {
		inS[f.ID()] = true
		if !inV[f.ID()] {
			panic(invariantViolation("selected fragment not present in V: " + f.ID().String()))
		}
	}
	for id := range core {
		if !inS[id] {
			panic(invariantViolation("core fragment missing from S: " + id.String()))
		}
	}
}
