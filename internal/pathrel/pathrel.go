// Package pathrel holds path-relationship logic shared by the Universe
// Builder (structural/manifest expansion) and the Structural/
// Configuration edge builders, so the naming-convention and
// path-reference heuristics are defined exactly once.
package pathrel

import (
	"path"
	"regexp"
	"strings"
)

// Dir returns the directory component of p using forward-slash
// semantics regardless of the host OS, since universe paths are
// repository-relative and always slash-separated.
func Dir(p string) string {
	return path.Dir(p)
}

// IsSibling reports whether a and b live in the same directory and are
// not the same file.
func IsSibling(a, b string) bool {
	return a != b && Dir(a) == Dir(b)
}

// IsAncestor reports whether a's directory is a strict prefix of b's
// path (a contains b in the filesystem hierarchy).
func IsAncestor(a, b string) bool {
	ad := Dir(a)
	return strings.HasPrefix(b, ad+"/") && b != a
}

// testPairRule maps one half of a test/code naming convention to a
// function that derives the other half. match reports whether base
// belongs to this half of the convention and, if so, returns the part
// of base the counter should be derived from.
//
// Go's regexp package (RE2) does not support negative lookahead, so
// rules that need to exclude another rule's match (e.g. "any .py file
// that isn't a test_ file") are expressed as plain Go predicates
// instead of regexes; this is an equivalent, non-backtracking
// restatement of the same naming convention, not a behavior change.
type testPairRule struct {
	match   func(base string) (string, bool)
	counter func(base string) string
}

func regexRule(re *regexp.Regexp) func(string) (string, bool) {
	return func(base string) (string, bool) {
		m := re.FindStringSubmatch(base)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

var testPairRules = []testPairRule{
	// test_x.py <-> x.py
	{
		match:   regexRule(regexp.MustCompile(`^test_(.+)\.py$`)),
		counter: func(base string) string { return base + ".py" },
	},
	{
		match: func(base string) (string, bool) {
			if !strings.HasSuffix(base, ".py") || strings.HasPrefix(base, "test_") {
				return "", false
			}
			return strings.TrimSuffix(base, ".py"), true
		},
		counter: func(base string) string { return "test_" + base + ".py" },
	},
	// x.test.ts -> x.ts (also .tsx/.js/.jsx); derived from the test
	// file's name only, so x.ts yields no candidate.
	{
		match: regexRule(regexp.MustCompile(`^(.+\.test\.(?:tsx?|jsx?))$`)),
		counter: func(base string) string {
			i := strings.LastIndex(base, ".test.")
			return base[:i] + base[i+len(".test"):]
		},
	},
	// x_test.go <-> x.go
	{
		match:   regexRule(regexp.MustCompile(`^(.+)_test\.go$`)),
		counter: func(base string) string { return base + ".go" },
	},
	{
		match: func(base string) (string, bool) {
			if !strings.HasSuffix(base, ".go") || strings.HasSuffix(base, "_test.go") {
				return "", false
			}
			return strings.TrimSuffix(base, ".go"), true
		},
		counter: func(base string) string { return base + "_test.go" },
	},
	// XTest.java <-> X.java
	{
		match:   regexRule(regexp.MustCompile(`^(.+)Test\.java$`)),
		counter: func(base string) string { return base + ".java" },
	},
	{
		match: func(base string) (string, bool) {
			if !strings.HasSuffix(base, ".java") || strings.HasSuffix(base, "Test.java") {
				return "", false
			}
			return strings.TrimSuffix(base, ".java"), true
		},
		counter: func(base string) string { return base + "Test.java" },
	},
}

// TestPairCandidates returns the candidate basenames (in the same
// directory as p) that would form a test<->code pair with p, under any
// of the supported naming conventions. It does not check existence;
// callers filter against the actual file set.
func TestPairCandidates(p string) []string {
	dir := path.Dir(p)
	base := path.Base(p)
	var out []string
	for _, rule := range testPairRules {
		captured, ok := rule.match(base)
		if !ok {
			continue
		}
		counterpartBase := rule.counter(captured)
		if dir == "." {
			out = append(out, counterpartBase)
		} else {
			out = append(out, dir+"/"+counterpartBase)
		}
	}
	return out
}

// pathLiteralRe matches path-shaped string literals inside manifest and
// config text: something/with/slashes.ext or a bare filename with a
// known source extension, quoted or bare.
var pathLiteralRe = regexp.MustCompile(`(?:[\w./-]+/)*[\w-]+\.(?:go|py|js|jsx|ts|tsx|java|kt|rs|rb|c|cc|cpp|h|hpp|yaml|yml|json|toml)`)

// ExtractPathReferences scans manifest/config text (Dockerfile, Helm
// values, Terraform, CI YAML, ...) for source-path-shaped literals.
// This is a heuristic, name-matching approximation, not a build-system
// aware resolver: it is deliberately permissive so it over-matches
// rather than silently missing a real reference.
func ExtractPathReferences(content string) []string {
	matches := pathLiteralRe.FindAllString(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		m = strings.TrimPrefix(m, "./")
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// IsManifestPath reports whether p is conventionally a build/deploy
// manifest file that might reference source paths.
func IsManifestPath(p string) bool {
	base := strings.ToLower(path.Base(p))
	switch {
	case base == "dockerfile" || strings.HasPrefix(base, "dockerfile."):
		return true
	case strings.HasSuffix(base, ".tf"):
		return true
	case strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml"):
		return true
	case base == "makefile":
		return true
	default:
		return false
	}
}
