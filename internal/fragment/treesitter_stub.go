//go:build !cgo

package fragment

import "context"

// treeSitterStrategy is unavailable without CGO; it never claims a file,
// so DefaultStrategies falls through to markdown/structured-config/text.
type treeSitterStrategy struct{}

func newTreeSitterStrategy() *treeSitterStrategy { return &treeSitterStrategy{} }

func (s *treeSitterStrategy) Name() string            { return "treesitter" }
func (s *treeSitterStrategy) CanHandle(string) bool   { return false }
func (s *treeSitterStrategy) Fragment(context.Context, string, string) ([]Fragment, bool, error) {
	return nil, false, nil
}
