package fragment

import "strings"

// stopwords are language keywords and very common short tokens excluded
// from identifier sets and diff concepts alike. The list is deliberately
// small: it only needs to keep the truly ubiquitous tokens (control-flow
// keywords, single-letter loop variables normalized out by the length
// filter already) from dominating TF-IDF and concept-coverage scoring.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "not": {}, "with": {}, "from": {},
	"this": {}, "that": {}, "true": {}, "false": {}, "null": {}, "nil": {},
	"var": {}, "let": {}, "const": {}, "func": {}, "def": {}, "class": {},
	"return": {}, "import": {}, "package": {}, "public": {}, "private": {},
	"protected": {}, "static": {}, "void": {}, "int": {}, "str": {},
	"string": {}, "bool": {}, "boolean": {}, "interface": {}, "struct": {},
	"type": {}, "else": {}, "elif": {}, "while": {}, "break": {},
	"continue": {}, "switch": {}, "case": {}, "default": {}, "try": {},
	"catch": {}, "except": {}, "finally": {}, "throw": {}, "throws": {},
	"new": {}, "self": {}, "super": {}, "async": {}, "await": {},
	"export": {}, "module": {}, "extends": {}, "implements": {},
}

// IsStopword reports whether a lowercased token is a stopword.
func IsStopword(token string) bool {
	_, ok := stopwords[strings.ToLower(token)]
	return ok
}

// Tokenize splits text into raw identifier-shaped tokens: first on
// non-alphanumeric boundaries, then each resulting run is further split
// on camelCase and snake_case transitions.
func Tokenize(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, splitCase(cur.String())...)
			cur.Reset()
		}
	}
	for _, r := range text {
		if isIdentRune(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

func isIdentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

// splitCase splits a single non-alphanumeric-delimited run further on
// snake_case underscores and camelCase/PascalCase transitions, e.g.
// "XyzGizmo_thing" -> ["Xyz", "Gizmo", "thing"].
func splitCase(s string) []string {
	parts := strings.Split(s, "_")
	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, splitCamel(p)...)
	}
	return out
}

func splitCamel(s string) []string {
	var out []string
	var cur strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && isUpper(r) {
			prevLower := isLower(runes[i-1])
			nextLower := i+1 < len(runes) && isLower(runes[i+1])
			// Boundary before an uppercase letter that follows a
			// lowercase letter (fooBar -> foo|Bar), or that starts a
			// new word inside an acronym run (HTTPServer -> HTTP|Server).
			if prevLower || (isUpper(runes[i-1]) && nextLower) {
				if cur.Len() > 0 {
					out = append(out, cur.String())
					cur.Reset()
				}
			}
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

// ExtractIdentifiers tokenizes text and returns the set of non-stopword
// tokens of length >= 3, normalized to lowercase.
func ExtractIdentifiers(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		norm := strings.ToLower(tok)
		if len(norm) < 3 {
			continue
		}
		if IsStopword(norm) {
			continue
		}
		out[norm] = struct{}{}
	}
	return out
}
