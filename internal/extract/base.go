package extract

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/debug"
	"github.com/standardbeagle/treescan/internal/lang"
	"github.com/standardbeagle/treescan/internal/types"
)

// captureRule maps a container capture name to the element it produces.
type captureRule struct {
	kind      types.ElementKind
	classKind string // Class flavor: class, struct, interface, enum, trait, record, module, type
	isMethod  bool
	isConst   bool
	isField   bool
}

// languageSpec is one language's extraction recipe: a single query
// covering every element kind, rules keyed by container capture name,
// and an optional post hook for language-specific fixups. post may
// return nil to drop an element.
type languageSpec struct {
	lang  types.Language
	query string
	rules map[string]captureRule
	post  func(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement
}

// queryExtractor implements Extractor by running the language's compiled
// query once and assembling elements from its captures.
type queryExtractor struct {
	spec  languageSpec
	query *tree_sitter.Query
}

func newQueryExtractor(spec languageSpec) (*queryExtractor, error) {
	grammar, err := lang.Grammar(spec.lang)
	if err != nil {
		return nil, err
	}
	query, _ := tree_sitter.NewQuery(grammar, spec.query)
	// The binding can return a typed nil error, so the query pointer is
	// the only trustworthy signal.
	if query == nil {
		return nil, fmt.Errorf("built-in query for %s failed to compile", spec.lang)
	}
	return &queryExtractor{spec: spec, query: query}, nil
}

func (e *queryExtractor) Language() types.Language {
	return e.spec.lang
}

func (e *queryExtractor) ExtractFunctions(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return e.extract(tree, src, types.KindFunction)
}

func (e *queryExtractor) ExtractClasses(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return e.extract(tree, src, types.KindClass)
}

func (e *queryExtractor) ExtractVariables(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return e.extract(tree, src, types.KindVariable)
}

func (e *queryExtractor) ExtractImports(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return e.extract(tree, src, types.KindImport)
}

func (e *queryExtractor) ExtractComments(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return e.extract(tree, src, types.KindComment)
}

func (e *queryExtractor) ExtractAll(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return e.extract(tree, src, 0)
}

// extract runs the query and builds elements, keeping only wantKind when
// non-zero. A nil tree or missing root is an empty, successful result.
func (e *queryExtractor) extract(tree *tree_sitter.Tree, src []byte, wantKind types.ElementKind) []types.CodeElement {
	if tree == nil {
		return nil
	}
	root := tree.RootNode()
	if root == nil {
		return nil
	}

	captureNames := e.query.CaptureNames()
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	var out []types.CodeElement
	matches := qc.Matches(e.query, root, src)
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var container *tree_sitter.Node
		var rule captureRule
		var containerName string
		subs := make(map[string]*tree_sitter.Node)

		for i := range match.Captures {
			c := &match.Captures[i]
			name := captureNames[c.Index]
			node := &c.Node
			if dot := strings.IndexByte(name, '.'); dot >= 0 {
				subs[name[dot+1:]] = node
				continue
			}
			if r, ok := e.spec.rules[name]; ok {
				container = node
				rule = r
				containerName = name
			}
		}
		if container == nil {
			continue
		}
		if wantKind != 0 && rule.kind != wantKind {
			continue
		}

		el := e.buildElement(rule, containerName, container, subs, src)
		if el != nil {
			out = append(out, el)
		}
	}

	return out
}

// buildElement assembles one element behind a panic fence: one bad node
// is logged and skipped, never a whole-file failure.
func (e *queryExtractor) buildElement(rule captureRule, captureName string, node *tree_sitter.Node, subs map[string]*tree_sitter.Node, src []byte) (el types.CodeElement) {
	defer func() {
		if r := recover(); r != nil {
			debug.LogExtract("skipping %s node at line %d in %s: %v\n",
				captureName, node.StartPosition().Row+1, e.spec.lang, r)
			el = nil
		}
	}()

	base := baseFor(node, subs["name"], e.spec.lang, src)

	switch rule.kind {
	case types.KindFunction:
		fn := &types.Function{ElementBase: base}
		fn.Parameters = paramsFromNode(node.ChildByFieldName("parameters"), src)
		fn.ReturnType = returnTypeOf(node, src)
		fn.Modifiers = modifiersOf(node, src)
		fn.IsAsync = hasChildToken(node, "async")
		if recv := subs["receiver"]; recv != nil {
			fn.Receiver = strings.Trim(nodeText(recv, src), "()")
			fn.IsMethod = true
		}
		if rule.isMethod {
			fn.IsMethod = true
		}
		el = fn

	case types.KindClass:
		cls := &types.Class{ElementBase: base, ClassKind: rule.classKind}
		if cls.ClassKind == "" {
			cls.ClassKind = "class"
		}
		cls.Bases = basesOf(node, src)
		cls.Modifiers = modifiersOf(node, src)
		el = cls

	case types.KindVariable:
		v := &types.Variable{ElementBase: base, IsConstant: rule.isConst, IsField: rule.isField}
		if t := node.ChildByFieldName("type"); t != nil {
			v.VarType = nodeText(t, src)
		}
		if val := subs["value"]; val != nil {
			v.Value = nodeText(val, src)
		} else if val := node.ChildByFieldName("value"); val != nil {
			v.Value = nodeText(val, src)
		}
		el = v

	case types.KindImport:
		imp := &types.Import{ElementBase: base}
		if srcNode := subs["source"]; srcNode != nil {
			imp.Source = stripStringQuotes(nodeText(srcNode, src))
		} else if pathNode := subs["path"]; pathNode != nil {
			imp.Source = stripStringQuotes(nodeText(pathNode, src))
		}
		if imp.Name == "" {
			if imp.Source != "" {
				imp.Name = imp.Source
			} else {
				imp.Name = firstLine(base.RawText)
			}
		}
		el = imp

	case types.KindComment:
		text := strings.TrimSpace(base.RawText)
		el = &types.Comment{
			ElementBase: base,
			IsDoc: strings.HasPrefix(text, "///") || strings.HasPrefix(text, "/**") ||
				strings.HasPrefix(text, "##"),
		}

	default:
		return nil
	}

	if e.spec.post != nil {
		el = e.spec.post(el, node, src)
	}
	return el
}

// baseFor fills the shared element fields from the container node.
func baseFor(node *tree_sitter.Node, nameNode *tree_sitter.Node, language types.Language, src []byte) types.ElementBase {
	startLine := int(node.StartPosition().Row) + 1
	endPos := node.EndPosition()
	endLine := int(endPos.Row) + 1
	// A node ending at column 0 stops before that row's content (tokens
	// that swallow the trailing newline).
	if endPos.Column == 0 && endLine > startLine {
		endLine--
	}
	if endLine < startLine {
		endLine = startLine
	}

	base := types.ElementBase{
		StartLine: startLine,
		EndLine:   endLine,
		RawText:   lineSpan(src, startLine, endLine),
		Language:  language,
	}
	if nameNode != nil {
		base.Name = nodeText(nameNode, src)
	}
	return base
}

// nodeText slices the node's source text by byte offsets. Out-of-range
// offsets (encoding mismatch between the grammar and the decoded source)
// fall back to row/column line slicing; if both fail the text is empty.
func nodeText(node *tree_sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	start, end := int(node.StartByte()), int(node.EndByte())
	if start >= 0 && end >= start && end <= len(src) {
		return string(src[start:end])
	}

	startPos, endPos := node.StartPosition(), node.EndPosition()
	lines := strings.Split(string(src), "\n")
	row, endRow := int(startPos.Row), int(endPos.Row)
	if row >= len(lines) || endRow >= len(lines) {
		return ""
	}
	if row == endRow {
		line := lines[row]
		sc, ec := int(startPos.Column), int(endPos.Column)
		if sc <= len(line) && ec <= len(line) && sc <= ec {
			return line[sc:ec]
		}
		return ""
	}
	return strings.Join(lines[row:endRow+1], "\n")
}

// lineSpan returns the verbatim source slice covering the 1-indexed
// inclusive line range.
func lineSpan(src []byte, startLine, endLine int) string {
	lines := strings.Split(string(src), "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > len(lines) || endLine < startLine {
		return ""
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// stripStringQuotes removes one layer of surrounding string quotes.
func stripStringQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// paramsFromNode reads formal parameters from a parameter-list node.
// Grammars that field-tag name/type/value (go, python, java, typescript)
// decompose cleanly; anything else keeps its raw text as the name.
func paramsFromNode(params *tree_sitter.Node, src []byte) []types.Parameter {
	if params == nil {
		return nil
	}
	count := params.NamedChildCount()
	if count == 0 {
		return nil
	}
	out := make([]types.Parameter, 0, count)
	for i := uint(0); i < count; i++ {
		child := params.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		p := types.Parameter{}
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			p.Name = nodeText(nameNode, src)
		} else {
			p.Name = nodeText(child, src)
		}
		if typeNode := child.ChildByFieldName("type"); typeNode != nil {
			p.Type = nodeText(typeNode, src)
		}
		if valNode := child.ChildByFieldName("value"); valNode != nil {
			p.Default = nodeText(valNode, src)
		}
		if p.Name != "" {
			out = append(out, p)
		}
	}
	return out
}

func returnTypeOf(node *tree_sitter.Node, src []byte) string {
	for _, field := range []string{"return_type", "result"} {
		if rt := node.ChildByFieldName(field); rt != nil {
			return strings.TrimPrefix(strings.TrimSpace(nodeText(rt, src)), ": ")
		}
	}
	return ""
}

// modifiersOf collects modifier tokens attached directly to the node.
func modifiersOf(node *tree_sitter.Node, src []byte) []string {
	var out []string
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "modifiers", "modifier", "visibility_modifier", "storage_class_specifier":
			out = append(out, strings.Fields(nodeText(child, src))...)
		}
	}
	return out
}

// basesOf finds base classes/interfaces across the grammar-specific
// clause shapes.
func basesOf(node *tree_sitter.Node, src []byte) []string {
	for _, field := range []string{"superclasses", "superclass", "interfaces"} {
		if clause := node.ChildByFieldName(field); clause != nil {
			return collectIdentifiers(clause, src)
		}
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "class_heritage", "base_list", "base_class_clause", "extends_clause", "implements_clause":
			return collectIdentifiers(child, src)
		}
	}
	return nil
}

// hasChildToken reports whether node has a direct child token of the
// given kind ("async" and friends).
func hasChildToken(node *tree_sitter.Node, kind string) bool {
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			return true
		}
	}
	return false
}

// hasAncestorKind walks up the parent chain looking for any of kinds,
// stopping early at stopKinds or the depth bound.
func hasAncestorKind(node *tree_sitter.Node, kinds []string, stopKinds []string) bool {
	current := node.Parent()
	for depth := 0; current != nil && depth < maxWalkDepth; depth++ {
		k := current.Kind()
		for _, stop := range stopKinds {
			if k == stop {
				return false
			}
		}
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		current = current.Parent()
	}
	return false
}
