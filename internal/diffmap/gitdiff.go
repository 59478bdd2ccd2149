package diffmap

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// ParseUnifiedDiff is the optional convenience adapter for callers (the
// CLI harness) that hold a unified diff as text rather than an
// already-computed hunk list; the pipeline's library entry point takes
// []Hunk directly and never calls this. Adapted from the teacher's
// GitDiffParser (internal/diff/gitdiff.go), generalized to emit Hunk
// values for both sides instead of the teacher's single-side line-number
// collection.
func ParseUnifiedDiff(text string) ([]Hunk, error) {
	fileDiffs, err := diff.ParseMultiFileDiff([]byte(text))
	if err != nil {
		return nil, err
	}

	var hunks []Hunk
	for _, fd := range fileDiffs {
		path := effectivePath(fd)
		if path == "" || !isSourceFile(path) {
			continue
		}
		for _, h := range fd.Hunks {
			if h.OrigLines > 0 {
				hunks = append(hunks, Hunk{
					Path:      path,
					Side:      SidePre,
					StartLine: int(h.OrigStartLine),
					EndLine:   int(h.OrigStartLine) + int(h.OrigLines) - 1,
				})
			}
			if h.NewLines > 0 {
				hunks = append(hunks, Hunk{
					Path:      path,
					Side:      SidePost,
					StartLine: int(h.NewStartLine),
					EndLine:   int(h.NewStartLine) + int(h.NewLines) - 1,
				})
			}
		}
	}
	return hunks, nil
}

// effectivePath prefers the new path (added/modified files) and falls
// back to the old path (deleted files), stripping the a/ b/ prefixes
// git emits.
func effectivePath(fd *diff.FileDiff) string {
	p := cleanPath(fd.NewName)
	if p == "" || p == "/dev/null" {
		p = cleanPath(fd.OrigName)
	}
	if p == "/dev/null" {
		return ""
	}
	return p
}

func cleanPath(p string) string {
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	return p
}

var skippedDirs = []string{"vendor/", "node_modules/", ".git/", "testdata/"}
var skippedSuffixes = []string{
	".sum", ".lock", ".min.js", ".min.css", ".map", ".pb.go",
	"_generated.go", "-lock.json",
}

// isSourceFile filters out generated/vendored/lock-file paths that would
// otherwise pollute the universe with noise no builder can usefully
// connect anything to.
func isSourceFile(path string) bool {
	for _, d := range skippedDirs {
		if strings.Contains(path, d) {
			return false
		}
	}
	for _, s := range skippedSuffixes {
		if strings.HasSuffix(path, s) {
			return false
		}
	}
	return true
}
