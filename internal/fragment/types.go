// Package fragment splits a file into an ordered sequence of semantic
// fragments with stable identity, the unit the rest of the pipeline
// selects over.
package fragment

import "fmt"

// Kind classifies the syntactic nature of a fragment.
type Kind string

const (
	KindFunction    Kind = "function"
	KindClass       Kind = "class"
	KindMethod      Kind = "method"
	KindConfigBlock Kind = "config-block"
	KindSection     Kind = "section"
	KindParagraph   Kind = "paragraph"
	KindGeneric     Kind = "generic"
)

// ID identifies a fragment by its file and line span. Identity is stable
// within a single pipeline run and is comparable, so it can be used
// directly as a map key.
type ID struct {
	Path      string
	StartLine int
	EndLine   int
}

func (id ID) String() string {
	return fmt.Sprintf("%s:%d-%d", id.Path, id.StartLine, id.EndLine)
}

// Less orders IDs by (Path, StartLine, EndLine), the deterministic
// iteration order every stage of the pipeline uses.
func (id ID) Less(other ID) bool {
	if id.Path != other.Path {
		return id.Path < other.Path
	}
	if id.StartLine != other.StartLine {
		return id.StartLine < other.StartLine
	}
	return id.EndLine < other.EndLine
}

// Fragment is a contiguous span of one file.
type Fragment struct {
	Path        string
	StartLine   int // 1-based, inclusive
	EndLine     int // 1-based, inclusive
	Kind        Kind
	Symbol      string // declared name, if any
	Content     string
	Identifiers map[string]struct{}
	TokenCount  int

	// Container, when non-empty, is the ID of the innermost enclosing
	// syntactic unit reported by the strategy that produced this
	// fragment. Populated only by AST-aware strategies.
	Container *ID
}

// ID returns the fragment's stable identity.
func (f Fragment) ID() ID {
	return ID{Path: f.Path, StartLine: f.StartLine, EndLine: f.EndLine}
}

// LineCount returns the number of lines the fragment spans.
func (f Fragment) LineCount() int {
	return f.EndLine - f.StartLine + 1
}

// Overlaps reports whether the fragment's line span intersects [start,end].
func (f Fragment) Overlaps(start, end int) bool {
	return f.StartLine <= end && f.EndLine >= start
}

// HasIdentifier reports whether token is present in the fragment's
// identifier set.
func (f Fragment) HasIdentifier(token string) bool {
	_, ok := f.Identifiers[token]
	return ok
}

// MinLines and MaxLines are the fragment size bounds from the data model:
// a fragment is at least 3 lines unless it is a file's tail, and larger
// semantic units are split at natural sub-boundaries past MaxLines.
const (
	MinLines = 3
	MaxLines = 200
)

// BuildError records a non-fatal failure encountered while fragmenting a
// single file. It is informational only: fragmenting never fails the run
// (see the strategy fallback chain in Split, strategy.go); a BuildError is attached
// to Result.Errors so callers can surface it as an InputError/ParseError
// warning per the error handling design.
type BuildError struct {
	Path     string
	Strategy string
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("fragment: strategy %s failed for %s: %v", e.Strategy, e.Path, e.Err)
}

// Result is the output of fragmenting one file.
type Result struct {
	Fragments []Fragment
	Strategy  string
	Errors    []*BuildError
}
