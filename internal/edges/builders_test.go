package edges

import (
	"context"
	"testing"

	"ctxlens/internal/fragment"
)

func TestSemanticBuilderLinksReferenceToDeclaration(t *testing.T) {
	decl := fragment.Fragment{
		Path: "a.go", StartLine: 1, EndLine: 3,
		Kind: fragment.KindFunction, Symbol: "Widget",
	}
	ref := fragment.Fragment{
		Path: "b.go", StartLine: 1, EndLine: 3,
		Identifiers: map[string]struct{}{"widget": {}},
	}
	u := buildUniverse(decl, ref)

	out, err := SemanticBuilder(context.Background(), u, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected a forward and reverse edge, got %d: %v", len(out), out)
	}
}

func TestSemanticBuilderSkipsSelfReference(t *testing.T) {
	decl := fragment.Fragment{
		Path: "a.go", StartLine: 1, EndLine: 3,
		Kind: fragment.KindFunction, Symbol: "Widget",
		Identifiers: map[string]struct{}{"widget": {}},
	}
	u := buildUniverse(decl)

	out, err := SemanticBuilder(context.Background(), u, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no self-referential edges, got %v", out)
	}
}

func TestSimilarityBuilderLinksOverlappingFragments(t *testing.T) {
	a := fragment.Fragment{
		Path: "a.go", StartLine: 1, EndLine: 3,
		Identifiers: map[string]struct{}{"widget": {}, "gadget": {}, "gizmo": {}},
	}
	b := fragment.Fragment{
		Path: "b.go", StartLine: 1, EndLine: 3,
		Identifiers: map[string]struct{}{"widget": {}, "gadget": {}, "gizmo": {}},
	}
	c := fragment.Fragment{
		Path: "c.go", StartLine: 1, EndLine: 3,
		Identifiers: map[string]struct{}{"unrelated": {}},
	}
	u := buildUniverse(a, b, c)

	out, err := SimilarityBuilder(context.Background(), u, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected exactly the a<->b pair, got %d: %v", len(out), out)
	}
	for _, e := range out {
		if e.Family != FamilySimilarity {
			t.Errorf("unexpected family: %s", e.Family)
		}
	}
}

func TestSimilarityBuilderTooFewFragments(t *testing.T) {
	a := fragment.Fragment{Path: "a.go", StartLine: 1, EndLine: 3}
	u := buildUniverse(a)
	out, err := SimilarityBuilder(context.Background(), u, DefaultPolicy())
	if err != nil || out != nil {
		t.Fatalf("expected (nil, nil) with fewer than 2 fragments, got (%v, %v)", out, err)
	}
}

func TestConfigReferenceBuilderLinksManifestToSource(t *testing.T) {
	manifest := fragment.Fragment{
		Path: "Dockerfile", StartLine: 1, EndLine: 3,
		Content: "COPY worker.py /app/worker.py\n",
	}
	source := fragment.Fragment{Path: "worker.py", StartLine: 1, EndLine: 3}
	u := buildUniverse(manifest, source)

	out, err := ConfigReferenceBuilder(context.Background(), u, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected the manifest to link to worker.py, got none")
	}
	for _, e := range out {
		if e.Family != FamilyConfiguration {
			t.Errorf("unexpected family: %s", e.Family)
		}
	}
}

func TestDocumentLinkBuilderResolvesAnchorAndRelativeLinks(t *testing.T) {
	target := fragment.Fragment{
		Path: "README.md", StartLine: 5, EndLine: 8,
		Kind: fragment.KindSection, Symbol: "Usage",
	}
	source := fragment.Fragment{
		Path: "README.md", StartLine: 1, EndLine: 4,
		Kind: fragment.KindSection, Symbol: "Intro",
		Content: "See [usage](#usage) for details.\n",
	}
	other := fragment.Fragment{Path: "docs/guide.md", StartLine: 1, EndLine: 3}
	rel := fragment.Fragment{
		Path: "a.md", StartLine: 1, EndLine: 3,
		Kind: fragment.KindSection, Symbol: "Links",
		Content: "See [guide](docs/guide.md).\n",
	}

	u := buildUniverse(target, source, other, rel)
	out, err := DocumentLinkBuilder(context.Background(), u, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var anchor, relative bool
	for _, e := range out {
		if e.From == source.ID() && e.To == target.ID() {
			anchor = true
		}
		if e.From == rel.ID() && e.To == other.ID() {
			relative = true
		}
	}
	if !anchor {
		t.Errorf("expected an anchor-resolved edge, got %v", out)
	}
	if !relative {
		t.Errorf("expected a relative-link edge, got %v", out)
	}
}

func TestDocumentLinkBuilderLinksSharedCitations(t *testing.T) {
	a := fragment.Fragment{
		Path: "paper.md", StartLine: 1, EndLine: 3,
		Kind: fragment.KindSection, Symbol: "Intro",
		Content: "As shown in [@smith2020], the approach works.\n",
	}
	b := fragment.Fragment{
		Path: "paper.md", StartLine: 5, EndLine: 7,
		Kind: fragment.KindSection, Symbol: "Related",
		Content: "This confirms [@smith2020] and [@jones2019].\n",
	}
	c := fragment.Fragment{
		Path: "paper.md", StartLine: 9, EndLine: 11,
		Kind: fragment.KindSection, Symbol: "Unrelated",
		Content: "No citations here.\n",
	}

	u := buildUniverse(a, b, c)
	out, err := DocumentLinkBuilder(context.Background(), u, DefaultPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var forward, reverse bool
	for _, e := range out {
		if e.Family != FamilyDocument {
			t.Errorf("unexpected family: %s", e.Family)
		}
		if e.From == a.ID() && e.To == b.ID() {
			forward = true
		}
		if e.From == b.ID() && e.To == a.ID() {
			reverse = true
		}
		if e.From == c.ID() || e.To == c.ID() {
			t.Errorf("fragment with no shared citation key must not get a citation edge: %v", e)
		}
	}
	if !forward || !reverse {
		t.Errorf("expected a symmetric citation edge between fragments sharing [@smith2020], got %v", out)
	}
}

func TestHistoryBuilderWeightsByCorrelation(t *testing.T) {
	a := fragment.Fragment{Path: "a.go", StartLine: 1, EndLine: 3}
	b := fragment.Fragment{Path: "b.go", StartLine: 1, EndLine: 3}
	c := fragment.Fragment{Path: "c.go", StartLine: 1, EndLine: 3}
	u := buildUniverse(a, b, c)

	policy := DefaultPolicy()
	policy.Commits = []CommitRecord{
		{SHA: "1", Files: []string{"a.go", "b.go"}},
		{SHA: "2", Files: []string{"a.go", "b.go"}},
		{SHA: "3", Files: []string{"a.go", "c.go"}},
	}

	out, err := HistoryBuilder(context.Background(), u, policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected co-change edges")
	}
	for _, e := range out {
		if e.Family != FamilyHistory {
			t.Errorf("unexpected family: %s", e.Family)
		}
		if e.Weight < policy.HistoryMin || e.Weight > policy.HistoryMax {
			t.Errorf("weight %v out of configured band [%v,%v]", e.Weight, policy.HistoryMin, policy.HistoryMax)
		}
	}
}

func TestHistoryBuilderNoCommitsIsNoop(t *testing.T) {
	u := buildUniverse(fragment.Fragment{Path: "a.go", StartLine: 1, EndLine: 3})
	out, err := HistoryBuilder(context.Background(), u, DefaultPolicy())
	if err != nil || out != nil {
		t.Fatalf("expected (nil, nil) with no commit history, got (%v, %v)", out, err)
	}
}
