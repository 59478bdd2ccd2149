package diffmap

import (
	"sort"

	"ctxlens/internal/ctxerrors"
	"ctxlens/internal/fragment"
)

// CoreSet computes E0: every fragment whose line span intersects a hunk
// on the matching side, plus its enclosing syntactic container. Input is
// keyed by path; a hunk naming a path absent from files, or a line range
// outside the fragmented text, is an InputError recorded in warnings —
// the hunk is skipped, not fatal.
func CoreSet(files map[string]FileFragments, hunks []Hunk) (core []fragment.Fragment, warnings []error) {
	if len(hunks) == 0 {
		return nil, []error{ctxerrors.New(ctxerrors.EmptyDiff, "no hunks supplied")}
	}

	seen := make(map[fragment.ID]bool)
	index := buildIndex(files)

	add := func(f fragment.Fragment) {
		id := f.ID()
		if seen[id] {
			return
		}
		seen[id] = true
		core = append(core, f)
		if c := EnclosingContainer(index, f); c != nil {
			cid := c.ID()
			if !seen[cid] {
				seen[cid] = true
				core = append(core, *c)
			}
		}
	}

	for _, h := range hunks {
		ff, ok := files[h.Path]
		if !ok {
			warnings = append(warnings, ctxerrors.New(ctxerrors.InputError,
				"hunk references a file not present in the input: "+h.Path))
			continue
		}
		var pool []fragment.Fragment
		switch h.Side {
		case SidePost:
			pool = ff.Post
		case SidePre:
			pool = ff.Pre
		default:
			warnings = append(warnings, ctxerrors.New(ctxerrors.InputError,
				"hunk has an unrecognized side for "+h.Path))
			continue
		}
		if pool == nil {
			warnings = append(warnings, ctxerrors.New(ctxerrors.InputError,
				"hunk references a "+string(h.Side)+" image that was not supplied for "+h.Path))
			continue
		}

		matched := false
		for _, f := range pool {
			if f.Overlaps(h.StartLine, h.EndLine) {
				add(f)
				matched = true
			}
		}
		if !matched {
			warnings = append(warnings, ctxerrors.New(ctxerrors.InputError,
				"hunk line range does not intersect any fragment in "+h.Path))
		}
	}

	sort.Slice(core, func(i, j int) bool { return core[i].ID().Less(core[j].ID()) })
	return core, warnings
}

// fragIndex looks up a fragment by ID across both images of every file,
// the lookup EnclosingContainer needs to materialize a Container pointer
// into an actual Fragment value.
type fragIndex map[fragment.ID]fragment.Fragment

func buildIndex(files map[string]FileFragments) fragIndex {
	idx := make(fragIndex)
	for _, ff := range files {
		for _, f := range ff.Pre {
			idx[f.ID()] = f
		}
		for _, f := range ff.Post {
			idx[f.ID()] = f
		}
	}
	return idx
}

// EnclosingContainer resolves f's innermost enclosing syntactic
// container, if the fragmenter recorded one. The Fragmenter's AST
// strategy already sets Container to the nearest ancestor (a class
// header fragment for a method, or the first chunk of a split function
// for its continuation chunks), so resolution here is a single lookup
// rather than a chain walk.
func EnclosingContainer(index fragIndex, f fragment.Fragment) *fragment.Fragment {
	if f.Container == nil {
		return nil
	}
	c, ok := index[*f.Container]
	if !ok {
		return nil
	}
	return &c
}
