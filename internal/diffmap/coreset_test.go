package diffmap

import (
	"testing"

	"ctxlens/internal/fragment"
)

func TestCoreSetEmptyHunksIsWarningNotFatal(t *testing.T) {
	core, warnings := CoreSet(map[string]FileFragments{}, nil)
	if core != nil {
		t.Fatalf("expected nil core for empty hunks, got %v", core)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", warnings)
	}
}

func TestCoreSetMatchesOverlappingFragmentAndContainer(t *testing.T) {
	containerID := fragment.ID{Path: "a.go", StartLine: 1, EndLine: 10}
	method := fragment.Fragment{Path: "a.go", StartLine: 4, EndLine: 6, Container: &containerID}
	container := fragment.Fragment{Path: "a.go", StartLine: 1, EndLine: 10}

	files := map[string]FileFragments{
		"a.go": {Post: []fragment.Fragment{container, method}},
	}
	hunks := []Hunk{{Path: "a.go", Side: SidePost, StartLine: 5, EndLine: 5}}

	core, warnings := CoreSet(files, hunks)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(core) != 2 {
		t.Fatalf("expected the overlapping fragment plus its container, got %d: %v", len(core), core)
	}
}

func TestCoreSetWarnsOnMissingFileAndNoOverlap(t *testing.T) {
	files := map[string]FileFragments{
		"a.go": {Post: []fragment.Fragment{{Path: "a.go", StartLine: 1, EndLine: 3}}},
	}
	hunks := []Hunk{
		{Path: "missing.go", Side: SidePost, StartLine: 1, EndLine: 1},
		{Path: "a.go", Side: SidePost, StartLine: 100, EndLine: 101},
	}

	core, warnings := CoreSet(files, hunks)
	if len(core) != 0 {
		t.Fatalf("expected no matches, got %v", core)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected a warning per unmatched hunk, got %v", warnings)
	}
}

func TestCoreSetDeduplicatesAcrossHunks(t *testing.T) {
	files := map[string]FileFragments{
		"a.go": {Post: []fragment.Fragment{{Path: "a.go", StartLine: 1, EndLine: 10}}},
	}
	hunks := []Hunk{
		{Path: "a.go", Side: SidePost, StartLine: 2, EndLine: 2},
		{Path: "a.go", Side: SidePost, StartLine: 8, EndLine: 8},
	}

	core, _ := CoreSet(files, hunks)
	if len(core) != 1 {
		t.Fatalf("expected the single fragment to be deduplicated, got %d", len(core))
	}
}

func TestEnclosingContainerReturnsNilWithoutContainer(t *testing.T) {
	f := fragment.Fragment{Path: "a.go", StartLine: 1, EndLine: 3}
	idx := buildIndex(map[string]FileFragments{"a.go": {Post: []fragment.Fragment{f}}})
	if c := EnclosingContainer(idx, f); c != nil {
		t.Fatalf("expected nil container, got %v", c)
	}
}
