//go:build cgo

package fragment

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"ctxlens/internal/complexity"
)

// treeSitterStrategy produces function/method/class fragments for the
// languages complexity.LanguageFromExtension recognizes, adapted from the
// node-walking approach in internal/symbols.Extractor. Unlike that
// extractor (which returns flat symbol rows), this strategy needs exact
// byte spans so it can gap-fill the untouched lines of a file into
// generic fragments and keep the whole file tiled exactly once.
type treeSitterStrategy struct {
	parser *complexity.Parser
}

func newTreeSitterStrategy() *treeSitterStrategy {
	return &treeSitterStrategy{parser: complexity.NewParser()}
}

func (s *treeSitterStrategy) Name() string { return "treesitter" }

func (s *treeSitterStrategy) CanHandle(path string) bool {
	_, ok := complexity.LanguageFromExtension(strings.ToLower(filepath.Ext(path)))
	return ok
}

// astUnit is a top-level semantic unit discovered by the AST walk, before
// gap-filling and oversize-splitting.
type astUnit struct {
	kind      Kind
	symbol    string
	startLine int
	endLine   int
	startByte uint32
	endByte   uint32
	methods   []astUnit // nested methods, only populated for classes
}

func (s *treeSitterStrategy) Fragment(ctx context.Context, path, text string) ([]Fragment, bool, error) {
	lang, ok := complexity.LanguageFromExtension(strings.ToLower(filepath.Ext(path)))
	if !ok {
		return nil, false, nil
	}

	root, err := s.parser.Parse(ctx, []byte(text), lang)
	if err != nil {
		return nil, false, fmt.Errorf("treesitter parse: %w", err)
	}

	units := collectUnits(root, []byte(text), lang)
	if len(units) == 0 {
		return nil, false, nil
	}

	sort.Slice(units, func(i, j int) bool { return units[i].startLine < units[j].startLine })

	frags := materialize(path, text, units)
	if len(frags) == 0 {
		return nil, false, nil
	}
	return frags, true, nil
}

// collectUnits walks the tree once and returns the non-overlapping
// top-level units: every top-level function/method declaration, and
// every class/type declaration together with the methods tree-sitter
// reports nested inside it.
func collectUnits(root *sitter.Node, source []byte, lang complexity.Language) []astUnit {
	classTypes := classNodeTypes(lang)
	funcTypes := complexity.GetFunctionNodeTypes(lang)
	methodTypes := methodNodeTypes(lang)

	var units []astUnit
	seen := make(map[*sitter.Node]bool)

	var classNodes []*sitter.Node
	walkTop(root, classTypes, &classNodes, nil)
	for _, cn := range classNodes {
		seen[cn] = true
		name := nodeName(cn, source, lang, true)
		unit := astUnit{
			kind:      KindClass,
			symbol:    name,
			startLine: int(cn.StartPoint().Row) + 1,
			endLine:   int(cn.EndPoint().Row) + 1,
			startByte: cn.StartByte(),
			endByte:   cn.EndByte(),
		}
		var methodNodes []*sitter.Node
		walkAll(cn, methodTypes, &methodNodes)
		for _, mn := range methodNodes {
			seen[mn] = true
			unit.methods = append(unit.methods, astUnit{
				kind:      KindMethod,
				symbol:    nodeName(mn, source, lang, false),
				startLine: int(mn.StartPoint().Row) + 1,
				endLine:   int(mn.EndPoint().Row) + 1,
				startByte: mn.StartByte(),
				endByte:   mn.EndByte(),
			})
		}
		sort.Slice(unit.methods, func(i, j int) bool { return unit.methods[i].startLine < unit.methods[j].startLine })
		units = append(units, unit)
	}

	var funcNodes []*sitter.Node
	walkTop(root, funcTypes, &funcNodes, seen)
	for _, fn := range funcNodes {
		if seen[fn] {
			continue
		}
		seen[fn] = true
		units = append(units, astUnit{
			kind:      KindFunction,
			symbol:    nodeName(fn, source, lang, false),
			startLine: int(fn.StartPoint().Row) + 1,
			endLine:   int(fn.EndPoint().Row) + 1,
			startByte: fn.StartByte(),
			endByte:   fn.EndByte(),
		})
	}

	return units
}

// walkTop collects nodes of the given types, not descending into a node
// once it has matched (so a method inside a class is not also reported
// as a top-level function), and skipping any node present in skip.
func walkTop(node *sitter.Node, types []string, out *[]*sitter.Node, skip map[*sitter.Node]bool) {
	if node == nil || len(types) == 0 {
		return
	}
	if skip != nil && skip[node] {
		return
	}
	if containsType(types, node.Type()) {
		*out = append(*out, node)
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTop(node.Child(i), types, out, skip)
	}
}

// walkAll collects every matching node anywhere below (and including)
// node, descending through matches (used to find methods inside a class
// body even when classes can themselves nest, which none of the
// supported languages do in practice).
func walkAll(node *sitter.Node, types []string, out *[]*sitter.Node) {
	if node == nil || len(types) == 0 {
		return
	}
	if containsType(types, node.Type()) {
		*out = append(*out, node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkAll(node.Child(i), types, out)
	}
}

func containsType(types []string, t string) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// materialize turns the discovered units into a tiled fragment list: each
// unit becomes its own fragment unless it exceeds MaxLines, in which case
// a class is split into a header fragment plus its methods, and an
// oversized leaf (function, method, or a class with no methods to split
// on) is chunked at blank-line sub-boundaries. Gaps between units become
// generic fragments so every line is covered exactly once.
func materialize(path, text string, units []astUnit) []Fragment {
	lines := strings.Split(text, "\n")
	totalLines := len(lines)
	if totalLines > 0 && lines[totalLines-1] == "" && strings.HasSuffix(text, "\n") {
		totalLines--
	}

	var frags []Fragment
	cursor := 1 // next uncovered line

	emitGap := func(from, to int) {
		if from > to {
			return
		}
		frags = append(frags, coalesceParagraphs(path, lines, from, to)...)
	}

	for _, u := range units {
		emitGap(cursor, u.startLine-1)

		switch {
		case u.kind == KindClass && u.endLine-u.startLine+1 > MaxLines && len(u.methods) > 0:
			frags = append(frags, splitOversizedClass(path, lines, u)...)
		case u.endLine-u.startLine+1 > MaxLines:
			frags = append(frags, splitOversizedLeaf(path, lines, u)...)
		default:
			frags = append(frags, newUnitFragment(path, lines, u))
		}
		cursor = u.endLine + 1
	}

	emitGap(cursor, totalLines)
	return frags
}

func newUnitFragment(path string, lines []string, u astUnit) Fragment {
	content := joinLines(lines, u.startLine, u.endLine)
	return Fragment{
		Path:        path,
		StartLine:   u.startLine,
		EndLine:     u.endLine,
		Kind:        u.kind,
		Symbol:      u.symbol,
		Content:     content,
		Identifiers: ExtractIdentifiers(content),
		TokenCount:  estimateTokens(content),
	}
}

func splitOversizedClass(path string, lines []string, u astUnit) []Fragment {
	var out []Fragment
	headerEnd := u.methods[0].startLine - 1
	var headerID *ID
	if headerEnd >= u.startLine {
		hf := Fragment{
			Path:        path,
			StartLine:   u.startLine,
			EndLine:     headerEnd,
			Kind:        KindClass,
			Symbol:      u.symbol,
			Content:     joinLines(lines, u.startLine, headerEnd),
			Identifiers: ExtractIdentifiers(joinLines(lines, u.startLine, headerEnd)),
			TokenCount:  estimateTokens(joinLines(lines, u.startLine, headerEnd)),
		}
		id := hf.ID()
		headerID = &id
		out = append(out, hf)
	}

	cursor := headerEnd + 1
	for _, m := range u.methods {
		if m.startLine > cursor {
			out = append(out, coalesceParagraphs(path, lines, cursor, m.startLine-1)...)
		}
		mf := newUnitFragment(path, lines, m)
		mf.Container = headerID
		if mf.EndLine-mf.StartLine+1 > MaxLines {
			sub := splitOversizedLeaf(path, lines, m)
			for j := range sub {
				sub[j].Container = headerID
			}
			out = append(out, sub...)
		} else {
			out = append(out, mf)
		}
		cursor = m.endLine + 1
	}
	if u.endLine >= cursor {
		out = append(out, coalesceParagraphs(path, lines, cursor, u.endLine)...)
	}
	return out
}

// splitOversizedLeaf chunks a single function/method that exceeds
// MaxLines at blank-line sub-boundaries, since tree-sitter does not
// report a finer semantic boundary for a single function body uniformly
// across languages. The first chunk keeps the unit's kind and symbol;
// later chunks are generic continuations chained by Container.
func splitOversizedLeaf(path string, lines []string, u astUnit) []Fragment {
	chunks := coalesceParagraphs(path, lines, u.startLine, u.endLine)
	if len(chunks) == 0 {
		return nil
	}
	chunks[0].Kind = u.kind
	chunks[0].Symbol = u.symbol
	firstID := chunks[0].ID()
	for i := 1; i < len(chunks); i++ {
		chunks[i].Container = &firstID
	}
	return chunks
}

func nodeName(node *sitter.Node, source []byte, lang complexity.Language, isClass bool) string {
	var nameNode *sitter.Node
	switch lang {
	case complexity.LangGo:
		if isClass {
			for i := 0; i < int(node.ChildCount()); i++ {
				c := node.Child(i)
				if c != nil && c.Type() == "type_spec" {
					nameNode = c.ChildByFieldName("name")
					break
				}
			}
		} else {
			nameNode = node.ChildByFieldName("name")
		}
	default:
		nameNode = node.ChildByFieldName("name")
		if nameNode == nil {
			for i := 0; i < int(node.ChildCount()); i++ {
				c := node.Child(i)
				if c != nil && (c.Type() == "identifier" || c.Type() == "type_identifier" || c.Type() == "simple_identifier") {
					nameNode = c
					break
				}
			}
		}
	}
	if nameNode == nil {
		return ""
	}
	return string(source[nameNode.StartByte():nameNode.EndByte()])
}

func classNodeTypes(lang complexity.Language) []string {
	switch lang {
	case complexity.LangGo:
		return []string{"type_declaration"}
	case complexity.LangJavaScript, complexity.LangTypeScript, complexity.LangTSX:
		return []string{"class_declaration", "interface_declaration"}
	case complexity.LangPython:
		return []string{"class_definition"}
	case complexity.LangRust:
		return []string{"struct_item", "enum_item", "trait_item", "impl_item"}
	case complexity.LangJava:
		return []string{"class_declaration", "interface_declaration", "enum_declaration"}
	case complexity.LangKotlin:
		return []string{"class_declaration", "interface_declaration", "object_declaration"}
	default:
		return nil
	}
}

func methodNodeTypes(lang complexity.Language) []string {
	switch lang {
	case complexity.LangGo:
		return nil // Go methods have receivers and live at top level
	case complexity.LangJavaScript, complexity.LangTypeScript, complexity.LangTSX:
		return []string{"method_definition"}
	case complexity.LangPython:
		return []string{"function_definition"}
	case complexity.LangRust:
		return []string{"function_item"}
	case complexity.LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case complexity.LangKotlin:
		return []string{"function_declaration"}
	default:
		return nil
	}
}
