// Package edges builds the weighted edge set between fragments in the
// universe. Each builder is an independent, pluggable function; the
// Graph Assembler (internal/graph) aggregates their outputs by max.
package edges

import (
	"context"
	"path/filepath"
	"strings"

	"ctxlens/internal/fragment"
	"ctxlens/internal/universe"
)

// Family identifies which of the six builder families produced an edge.
// Retained only for diagnostics; the Assembler drops it once aggregated.
type Family string

const (
	FamilySemantic      Family = "semantic"
	FamilyConfiguration Family = "configuration"
	FamilyStructural    Family = "structural"
	FamilyDocument      Family = "document"
	FamilySimilarity    Family = "similarity"
	FamilyHistory       Family = "history"
)

// Edge is a directed, weighted connection between two fragments produced
// by one builder. builder_id is Family; weight is always in (0,1].
type Edge struct {
	From, To fragment.ID
	Weight   float64
	Family   Family
}

// CommitRecord is one entry of the optional externally supplied commit
// history, newest first.
type CommitRecord struct {
	SHA   string
	Files []string
}

// LanguageWeight is the per-extension tuning for semantic/similarity
// edges: stricter, statically typed languages get higher confidence
// semantic edges and a narrower similarity band; dynamic languages the
// reverse, per spec.md §4.5's example policy.
type LanguageWeight struct {
	Semantic      float64 // forward weight for a name-matched reference
	ReverseFactor float64 // reverse edge = Semantic * ReverseFactor, in [0.4,0.7]
	SimilarityMin float64
	SimilarityMax float64
}

// Policy bundles every builder's tunable parameters, passed immutably
// to each builder call (spec.md §9: avoid global mutable state).
type Policy struct {
	LanguageWeights      map[string]LanguageWeight // keyed by lowercase extension, "" is the default
	SimilarityThreshold  float64
	ConfigWeightMin      float64
	ConfigWeightMax      float64
	StructuralBaseWeight float64
	StructuralReverse    float64
	DocumentMin          float64
	DocumentMax          float64
	CitationWeight       float64
	HistoryMin           float64
	HistoryMax           float64
	MaxCommits           int // default 500
	MaxFilesPerCommit    int // default 30
	Commits              []CommitRecord
}

// DefaultPolicy returns the weight ranges and caps from spec.md §4.5 and
// the resolved Open Question on history caps (spec.md §9): exposed as
// configuration, defaulted to the heuristic values the prototype used.
func DefaultPolicy() Policy {
	return Policy{
		LanguageWeights: map[string]LanguageWeight{
			".rs":  {Semantic: 0.95, ReverseFactor: 0.4, SimilarityMin: 0.10, SimilarityMax: 0.20},
			".go":  {Semantic: 0.85, ReverseFactor: 0.5, SimilarityMin: 0.15, SimilarityMax: 0.25},
			".java": {Semantic: 0.80, ReverseFactor: 0.5, SimilarityMin: 0.15, SimilarityMax: 0.25},
			".kt":  {Semantic: 0.80, ReverseFactor: 0.5, SimilarityMin: 0.15, SimilarityMax: 0.25},
			".ts":  {Semantic: 0.70, ReverseFactor: 0.6, SimilarityMin: 0.20, SimilarityMax: 0.30},
			".tsx": {Semantic: 0.70, ReverseFactor: 0.6, SimilarityMin: 0.20, SimilarityMax: 0.30},
			".js":  {Semantic: 0.60, ReverseFactor: 0.6, SimilarityMin: 0.25, SimilarityMax: 0.35},
			".jsx": {Semantic: 0.60, ReverseFactor: 0.6, SimilarityMin: 0.25, SimilarityMax: 0.35},
			".py":  {Semantic: 0.55, ReverseFactor: 0.7, SimilarityMin: 0.25, SimilarityMax: 0.35},
			"":     {Semantic: 0.65, ReverseFactor: 0.55, SimilarityMin: 0.20, SimilarityMax: 0.30},
		},
		SimilarityThreshold:  0.15,
		ConfigWeightMin:      0.50,
		ConfigWeightMax:      0.80,
		StructuralBaseWeight: 0.60,
		StructuralReverse:    0.5,
		DocumentMin:          0.30,
		DocumentMax:          0.60,
		CitationWeight:       0.25,
		HistoryMin:           0.10,
		HistoryMax:           0.40,
		MaxCommits:           500,
		MaxFilesPerCommit:    30,
	}
}

func (p Policy) weightFor(path string) LanguageWeight {
	ext := strings.ToLower(filepath.Ext(path))
	if w, ok := p.LanguageWeights[ext]; ok {
		return w
	}
	return p.LanguageWeights[""]
}

// Builder is the common signature every edge-building function
// implements, registered in a fixed slice at pipeline construction.
type Builder func(ctx context.Context, u *universe.Universe, policy Policy) ([]Edge, error)

// All returns the six builders in the fixed registration order spec.md
// §9 requires (no dynamic discovery).
func All() []Builder {
	return []Builder{
		SemanticBuilder,
		ConfigReferenceBuilder,
		StructuralBuilder,
		DocumentLinkBuilder,
		SimilarityBuilder,
		HistoryBuilder,
	}
}
