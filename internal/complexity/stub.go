//go:build !cgo

package complexity

// Parser wraps tree-sitter parsing functionality.
// This is a stub implementation for non-CGO builds.
type Parser struct{}

// NewParser creates a new tree-sitter parser.
// Returns nil when CGO is disabled.
func NewParser() *Parser {
	return nil
}

// IsAvailable returns whether AST-based fragmenting is available.
// Returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}
