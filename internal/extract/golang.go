package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func goSpec() languageSpec {
	return languageSpec{
		lang: types.LangGo,
		query: `
        (function_declaration name: (identifier) @function.name) @function
        (method_declaration
            receiver: (parameter_list) @method.receiver
            name: (field_identifier) @method.name) @method
        (type_declaration (type_spec name: (type_identifier) @class.name)) @class
        (var_declaration (var_spec name: (identifier) @variable.name)) @variable
        (const_declaration (const_spec name: (identifier) @constant.name)) @constant
        (import_spec path: (interpreted_string_literal) @import.path) @import
        (comment) @comment
    `,
		rules: map[string]captureRule{
			"function": {kind: types.KindFunction},
			"method":   {kind: types.KindFunction, isMethod: true},
			"class":    {kind: types.KindClass},
			"variable": {kind: types.KindVariable},
			"constant": {kind: types.KindVariable, isConst: true},
			"import":   {kind: types.KindImport},
			"comment":  {kind: types.KindComment},
		},
		post: goPost,
	}
}

func goPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	switch e := el.(type) {
	case *types.Class:
		// The declared flavor lives on the type_spec's type child.
		count := node.NamedChildCount()
		for i := uint(0); i < count; i++ {
			spec := node.NamedChild(i)
			if spec == nil || spec.Kind() != "type_spec" {
				continue
			}
			if t := spec.ChildByFieldName("type"); t != nil {
				switch t.Kind() {
				case "struct_type":
					e.ClassKind = "struct"
				case "interface_type":
					e.ClassKind = "interface"
				default:
					e.ClassKind = "type"
				}
			}
		}
		if doc := docCommentAbove(node, src); doc != "" {
			e.Docstring = doc
		}
	case *types.Import:
		if alias := node.ChildByFieldName("name"); alias != nil {
			e.Alias = nodeText(alias, src)
		}
	case *types.Function:
		if doc := docCommentAbove(node, src); doc != "" {
			e.Docstring = doc
		}
	}
	return el
}

// docCommentAbove returns the comment immediately above node, the Go and
// Rust doc convention. Comments are tree extras, so they appear as
// siblings at the declaration's level.
func docCommentAbove(node *tree_sitter.Node, src []byte) string {
	prev := node.PrevNamedSibling()
	if prev == nil {
		return ""
	}
	switch prev.Kind() {
	case "comment", "line_comment", "block_comment":
	default:
		return ""
	}
	// Some grammars (rust line_comment) fold the trailing newline into the
	// comment token, ending it at column 0 of the following row.
	end := prev.EndPosition()
	start := node.StartPosition()
	if end.Row+1 != start.Row && !(end.Column == 0 && end.Row == start.Row) {
		return ""
	}
	return strings.TrimSpace(nodeText(prev, src))
}
