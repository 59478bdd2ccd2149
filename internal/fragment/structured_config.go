package fragment

import (
	"context"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// structuredConfigStrategy fragments JSON/YAML/TOML files at their
// top-level keys, so a single changed setting selects a small fragment
// rather than the whole manifest. It falls through (ok=false) on parse
// failure rather than erroring, leaving the text strategy to fall back.
type structuredConfigStrategy struct{}

func newStructuredConfigStrategy() *structuredConfigStrategy { return &structuredConfigStrategy{} }

func (s *structuredConfigStrategy) Name() string { return "structured-config" }

func (s *structuredConfigStrategy) CanHandle(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}

func (s *structuredConfigStrategy) Fragment(_ context.Context, path, text string) ([]Fragment, bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return fragmentJSON(path, text)
	case ".yaml", ".yml":
		return fragmentYAML(path, text)
	case ".toml":
		return fragmentTOML(path, text)
	default:
		return nil, false, nil
	}
}

// fragmentJSON splits a top-level JSON object at its keys, computing
// each key's line span from the decoder's byte offsets.
func fragmentJSON(path, text string) ([]Fragment, bool, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, nil
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, false, nil // not a top-level object; fall through
	}

	offsets := lineOffsets(text)
	type key struct {
		name  string
		start int
	}
	var keys []key
	for dec.More() {
		kTok, err := dec.Token()
		if err != nil {
			return nil, false, nil
		}
		name, _ := kTok.(string)
		startByte := int(dec.InputOffset())
		// InputOffset is positioned after the key token; back up to the
		// start of this key's line.
		startLine := lineOf(offsets, startByte)
		keys = append(keys, key{name: name, start: startLine})

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false, nil
		}
	}
	if len(keys) == 0 {
		return nil, false, nil
	}

	lines := strings.Split(text, "\n")
	total := countLines(text)
	var frags []Fragment
	for i, k := range keys {
		end := total
		if i+1 < len(keys) {
			end = keys[i+1].start - 1
		}
		frags = append(frags, newConfigFragment(path, lines, k.name, k.start, end))
	}
	return frags, true, nil
}

// fragmentYAML splits a top-level YAML mapping at its keys using the
// line numbers yaml.v3's Node tree reports for each key scalar.
func fragmentYAML(path, text string) ([]Fragment, bool, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, false, nil
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, false, nil
	}
	mapping := doc.Content[0]

	type key struct {
		name  string
		start int
	}
	var keys []key
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, key{name: mapping.Content[i].Value, start: mapping.Content[i].Line})
	}
	if len(keys) == 0 {
		return nil, false, nil
	}

	lines := strings.Split(text, "\n")
	total := countLines(text)
	var frags []Fragment
	for i, k := range keys {
		end := total
		if i+1 < len(keys) {
			end = keys[i+1].start - 1
		}
		frags = append(frags, newConfigFragment(path, lines, k.name, k.start, end))
	}
	return frags, true, nil
}

var tomlTopLevelRe = regexp.MustCompile(`^([A-Za-z0-9_.-]+)\s*=|^\[([^\]]+)\]`)

// fragmentTOML validates the document parses (via BurntSushi/toml) and
// then splits on top-level key/table lines by regexp, since neither
// BurntSushi/toml nor pelletier/go-toml/v2's decode APIs expose source
// positions for decoded keys.
func fragmentTOML(path, text string) ([]Fragment, bool, error) {
	var probe map[string]interface{}
	if _, err := toml.Decode(text, &probe); err != nil {
		return nil, false, nil
	}

	lines := strings.Split(text, "\n")
	total := countLines(text)
	type key struct {
		name  string
		start int
	}
	var keys []key
	inTable := false
	for i := 1; i <= total; i++ {
		trimmed := strings.TrimSpace(lines[i-1])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := tomlTopLevelRe.FindStringSubmatch(trimmed); m != nil {
			name := m[1]
			if name == "" {
				name = m[2]
				inTable = true
			} else if inTable {
				// A key under a [table] header belongs to that table's
				// fragment, not a top-level split point.
				continue
			}
			keys = append(keys, key{name: name, start: i})
		}
	}
	if len(keys) == 0 {
		return nil, false, nil
	}

	var frags []Fragment
	for i, k := range keys {
		end := total
		if i+1 < len(keys) {
			end = keys[i+1].start - 1
		}
		frags = append(frags, newConfigFragment(path, lines, k.name, k.start, end))
	}
	return frags, true, nil
}

func newConfigFragment(path string, lines []string, name string, start, end int) Fragment {
	content := joinLines(lines, start, end)
	return Fragment{
		Path:        path,
		StartLine:   start,
		EndLine:     end,
		Kind:        KindConfigBlock,
		Symbol:      name,
		Content:     content,
		Identifiers: ExtractIdentifiers(content),
		TokenCount:  estimateTokens(content),
	}
}
