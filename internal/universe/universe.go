// Package universe expands the changed-file fragment set into the
// candidate universe V the rest of the pipeline operates over.
package universe

import (
	"container/heap"
	"context"
	"sort"
	"strings"

	"ctxlens/internal/concept"
	"ctxlens/internal/fragment"
	"ctxlens/internal/pathrel"
)

// RepoReader gives the Universe Builder read-only access to the
// on-disk repository for structural/manifest expansion, per spec.md
// §6's "optional access to on-disk repository" input. A nil RepoReader
// disables expansion steps 1-4 entirely; Build then returns only the
// core fragments.
type RepoReader interface {
	ListFiles() ([]string, error)
	ReadFile(path string) (string, error)
}

// Config bounds universe expansion.
type Config struct {
	MaxUniverse int // default 5000
}

// DefaultConfig returns the spec's default MaxUniverse.
func DefaultConfig() Config {
	return Config{MaxUniverse: 5000}
}

// Universe is the finalized candidate set V.
type Universe struct {
	Fragments []fragment.Fragment
	ByPath    map[string][]fragment.Fragment
	ByID      map[fragment.ID]fragment.Fragment
	Capped    bool
}

// candidate tracks a fragment plus the priority fields eviction ordering
// needs: core fragments are never evicted; among non-core fragments,
// higher concept overlap and lower structural distance are kept first.
type candidate struct {
	frag        fragment.Fragment
	isCore      bool
	conceptHits int
	structDist  int
}

// Build expands core (E0) into the full candidate universe by reading
// touched files, rare-concept expansion, structural neighbors, and
// manifest cross-references, then caps the result at cfg.MaxUniverse.
func Build(ctx context.Context, core []fragment.Fragment, concepts []concept.Concept, repo RepoReader, cfg Config) (*Universe, error) {
	if cfg.MaxUniverse <= 0 {
		cfg = DefaultConfig()
	}

	byID := make(map[fragment.ID]candidate)
	touchedFiles := make(map[string]bool)

	addCore := func(f fragment.Fragment) {
		touchedFiles[f.Path] = true
		id := f.ID()
		if c, ok := byID[id]; !ok || !c.isCore {
			byID[id] = candidate{frag: f, isCore: true}
		}
	}
	for _, f := range core {
		addCore(f)
	}

	addCandidate := func(f fragment.Fragment, conceptHits, structDist int) {
		id := f.ID()
		existing, ok := byID[id]
		if ok {
			if existing.isCore {
				return
			}
			if conceptHits > existing.conceptHits {
				existing.conceptHits = conceptHits
			}
			if structDist < existing.structDist {
				existing.structDist = structDist
			}
			byID[id] = existing
			return
		}
		byID[id] = candidate{frag: f, conceptHits: conceptHits, structDist: structDist}
	}

	if repo != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Step 1: all fragments of files already touched by the diff,
		// the full fragmentation of the post image, not just the hunk-
		// touched fragments captured in core.
		for path := range touchedFiles {
			fragmentFileInto(repo, path, 0, addCandidate)
		}

		// Step 2: rare-concept expansion via a cheap token->file scan.
		allFiles, err := repo.ListFiles()
		if err != nil {
			return nil, err
		}
		rareFiles := rareConceptFiles(repo, allFiles, concepts, touchedFiles)
		for path, hits := range rareFiles {
			fragmentFileInto(repo, path, hits, addCandidate)
		}

		// Step 3: structurally related files.
		structFiles := structuralNeighbors(allFiles, touchedFiles)
		for path, dist := range structFiles {
			fragmentFileInto(repo, path, 0, func(f fragment.Fragment, _, _ int) {
				addCandidate(f, 0, dist)
			})
		}

		// Step 4: manifest cross-references.
		manifestFiles := manifestReferencers(repo, allFiles, touchedFiles)
		for _, path := range manifestFiles {
			fragmentFileInto(repo, path, 0, addCandidate)
		}
	}

	u := finalize(byID, cfg.MaxUniverse)
	return u, nil
}

func fragmentFileInto(repo RepoReader, path string, hits int, add func(fragment.Fragment, int, int)) {
	text, err := repo.ReadFile(path)
	if err != nil || strings.TrimSpace(text) == "" {
		return
	}
	result := fragment.Split(context.Background(), path, text, fragment.DefaultStrategies())
	for _, f := range result.Fragments {
		add(f, hits, 0)
	}
}

// rareConceptFiles scans every repo file's raw text (not a full AST
// fragmentation — the "cheap global index" spec.md §4.4 calls for) for
// each concept token, and returns the files where a rare token (one
// that, repo-wide, occurs in <=3 files) was found, paired with how many
// distinct rare concepts matched that file.
func rareConceptFiles(repo RepoReader, allFiles []string, concepts []concept.Concept, exclude map[string]bool) map[string]int {
	if len(concepts) == 0 {
		return nil
	}
	tokens := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		tokens[c.Token] = true
	}

	tokenFiles := make(map[string]map[string]bool)
	for _, path := range allFiles {
		text, err := repo.ReadFile(path)
		if err != nil {
			continue
		}
		present := fragment.ExtractIdentifiers(text)
		for tok := range tokens {
			if _, ok := present[tok]; ok {
				if tokenFiles[tok] == nil {
					tokenFiles[tok] = make(map[string]bool)
				}
				tokenFiles[tok][path] = true
			}
		}
	}

	hits := make(map[string]int)
	for tok, files := range tokenFiles {
		if len(files) == 0 || len(files) > 3 {
			continue
		}
		_ = tok
		for path := range files {
			if !exclude[path] {
				hits[path]++
			}
		}
	}
	return hits
}

// structuralNeighbors finds siblings, test/code counterparts, and
// filesystem ancestors/descendants of every touched file, returning a
// structural distance (1 = direct relation) for priority purposes.
func structuralNeighbors(allFiles []string, touched map[string]bool) map[string]int {
	exists := make(map[string]bool, len(allFiles))
	for _, f := range allFiles {
		exists[f] = true
	}

	dist := make(map[string]int)
	consider := func(path string, d int) {
		if touched[path] {
			return
		}
		if cur, ok := dist[path]; !ok || d < cur {
			dist[path] = d
		}
	}

	for t := range touched {
		for _, f := range allFiles {
			if pathrel.IsSibling(t, f) {
				consider(f, 1)
			}
			if pathrel.IsAncestor(t, f) || pathrel.IsAncestor(f, t) {
				consider(f, 2)
			}
		}
		for _, cand := range pathrel.TestPairCandidates(t) {
			if exists[cand] {
				consider(cand, 1)
			}
		}
	}
	return dist
}

// manifestReferencers returns manifest/config files whose path
// references resolve to an already-touched file.
func manifestReferencers(repo RepoReader, allFiles []string, touched map[string]bool) []string {
	var out []string
	for _, path := range allFiles {
		if !pathrel.IsManifestPath(path) {
			continue
		}
		text, err := repo.ReadFile(path)
		if err != nil {
			continue
		}
		for _, ref := range pathrel.ExtractPathReferences(text) {
			if touched[ref] || touched[strings.TrimPrefix(ref, "./")] {
				out = append(out, path)
				break
			}
		}
	}
	return out
}

// candHeap is a max-heap over eviction priority: the worst candidate
// (lowest concept overlap, then highest structural distance, then
// lexicographically last) sorts to the top so it is the first evicted
// when the universe exceeds cfg.MaxUniverse. Core fragments are never
// pushed onto this heap; they are always kept.
type candHeap []candidate

func (h candHeap) Len() int { return len(h) }
func (h candHeap) Less(i, j int) bool {
	// "Less" here means "more evictable" for a max-heap keyed on
	// eviction priority: fewer concept hits, then larger structural
	// distance, then later path, is worse (more evictable).
	a, b := h[i], h[j]
	if a.conceptHits != b.conceptHits {
		return a.conceptHits < b.conceptHits
	}
	if a.structDist != b.structDist {
		return a.structDist > b.structDist
	}
	return !a.frag.ID().Less(b.frag.ID())
}
func (h candHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *candHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func finalize(byID map[fragment.ID]candidate, maxUniverse int) *Universe {
	var core []candidate
	var rest []candidate
	for _, c := range byID {
		if c.isCore {
			core = append(core, c)
		} else {
			rest = append(rest, c)
		}
	}

	capped := false
	budget := maxUniverse - len(core)
	var kept []candidate
	if budget < 0 {
		capped = true
		budget = 0
	}
	if len(rest) > budget {
		capped = true
		h := &candHeap{}
		heap.Init(h)
		for _, c := range rest {
			heap.Push(h, c)
			if h.Len() > budget {
				heap.Pop(h)
			}
		}
		kept = make([]candidate, h.Len())
		copy(kept, *h)
	} else {
		kept = rest
	}

	all := append(core, kept...)
	sort.Slice(all, func(i, j int) bool { return all[i].frag.ID().Less(all[j].frag.ID()) })

	u := &Universe{
		ByPath: make(map[string][]fragment.Fragment),
		ByID:   make(map[fragment.ID]fragment.Fragment),
		Capped: capped,
	}
	for _, c := range all {
		u.Fragments = append(u.Fragments, c.frag)
		u.ByPath[c.frag.Path] = append(u.ByPath[c.frag.Path], c.frag)
		u.ByID[c.frag.ID()] = c.frag
	}
	return u
}
