package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func pythonSpec() languageSpec {
	return languageSpec{
		lang: types.LangPython,
		query: `
        (function_definition name: (identifier) @function.name) @function
        (class_definition name: (identifier) @class.name) @class
        (expression_statement
            (assignment
                left: (identifier) @variable.name
                right: (_) @variable.value)) @variable
        (import_statement) @import
        (import_from_statement) @import
        (comment) @comment
    `,
		rules: map[string]captureRule{
			"function": {kind: types.KindFunction},
			"class":    {kind: types.KindClass},
			"variable": {kind: types.KindVariable},
			"import":   {kind: types.KindImport},
			"comment":  {kind: types.KindComment},
		},
		post: pythonPost,
	}
}

func pythonPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	switch e := el.(type) {
	case *types.Function:
		// A def nested inside a class body is a method; a def nested
		// inside another def is a local function, not a method.
		if hasAncestorKind(node, []string{"class_definition"}, []string{"function_definition"}) {
			e.IsMethod = true
		}
		e.Docstring = pythonDocstring(node, src)
	case *types.Class:
		e.Docstring = pythonDocstring(node, src)
	case *types.Variable:
		if hasAncestorKind(node, []string{"function_definition"}, nil) {
			return nil // locals are noise, not structure
		}
		if hasAncestorKind(node, []string{"class_definition"}, nil) {
			e.IsField = true
		}
		if isUpperSnake(e.Name) {
			e.IsConstant = true
		}
	case *types.Import:
		if e.Source == "" {
			if m := node.ChildByFieldName("module_name"); m != nil {
				e.Source = nodeText(m, src)
			} else if dotted := firstChildOfKind(node, "dotted_name"); dotted != nil {
				e.Source = nodeText(dotted, src)
			}
			if e.Source != "" {
				e.Name = e.Source
			}
		}
	}
	return el
}

// pythonDocstring returns the leading string literal of a def/class body.
func pythonDocstring(node *tree_sitter.Node, src []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	return stripPythonQuotes(nodeText(str, src))
}

func stripPythonQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return stripStringQuotes(s)
}

func isUpperSnake(name string) bool {
	if name == "" {
		return false
	}
	hasLetter := false
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= 'a' && r <= 'z':
			return false
		case r == '_' || (r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return hasLetter
}

func firstChildOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	count := node.NamedChildCount()
	for i := uint(0); i < count; i++ {
		if child := node.NamedChild(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
