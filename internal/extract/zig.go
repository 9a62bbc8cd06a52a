package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func zigSpec() languageSpec {
	return languageSpec{
		lang: types.LangZig,
		query: `
        (function_declaration (identifier) @function.name) @function
        (variable_declaration
            (identifier) @struct.name
            (struct_declaration)) @struct
        (variable_declaration
            (identifier) @struct.name
            (union_declaration)) @struct
        (variable_declaration (identifier) @variable.name) @variable
        (comment) @comment
    `,
		rules: map[string]captureRule{
			"function": {kind: types.KindFunction},
			"struct":   {kind: types.KindClass, classKind: "struct"},
			"variable": {kind: types.KindVariable},
			"comment":  {kind: types.KindComment},
		},
		post: zigPost,
	}
}

func zigPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	if e, ok := el.(*types.Variable); ok {
		// A const holding a struct/union body already surfaced as a class.
		if firstChildOfKind(node, "struct_declaration") != nil ||
			firstChildOfKind(node, "union_declaration") != nil {
			return nil
		}
		if hasChildToken(node, "const") {
			e.IsConstant = true
		}
		// @import("std") bindings read better as imports.
		if firstChildOfKind(node, "builtin_function") != nil {
			text := e.RawText
			if idx := indexOfImportCall(text); idx >= 0 {
				imp := &types.Import{ElementBase: e.ElementBase, Source: importCallArg(text[idx:])}
				if imp.Source != "" {
					imp.Name = e.Name
					return imp
				}
			}
		}
	}
	return el
}

func indexOfImportCall(text string) int {
	const marker = "@import("
	for i := 0; i+len(marker) <= len(text); i++ {
		if text[i:i+len(marker)] == marker {
			return i
		}
	}
	return -1
}

func importCallArg(text string) string {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '"' {
			if start < 0 {
				start = i + 1
			} else {
				return text[start:i]
			}
		}
	}
	return ""
}
