// Package diffmap turns externally supplied diff hunks into the core
// fragment set E0 that seeds PPR's restart distribution.
package diffmap

import "ctxlens/internal/fragment"

// Side identifies which image of a file a hunk's line range refers to.
type Side string

const (
	SidePre  Side = "pre"
	SidePost Side = "post"
)

// Hunk is a single changed line range, as delivered by the external
// diff collaborator (spec §6). Lines are 1-based and inclusive.
type Hunk struct {
	Path      string
	Side      Side
	StartLine int
	EndLine   int
}

// FileFragments holds the two independent fragmentations of one file:
// Pre from its pre-image text (nil if the file was added), Post from its
// post-image text (nil if the file was deleted).
type FileFragments struct {
	Pre  []fragment.Fragment
	Post []fragment.Fragment
}
