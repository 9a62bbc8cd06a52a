package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func rustSpec() languageSpec {
	return languageSpec{
		lang: types.LangRust,
		query: `
        (function_item name: (identifier) @function.name) @function
        (struct_item name: (type_identifier) @struct.name) @struct
        (enum_item name: (type_identifier) @enum.name) @enum
        (trait_item name: (type_identifier) @trait.name) @trait
        (type_item name: (type_identifier) @type.name) @type
        (mod_item name: (identifier) @module.name) @module
        (const_item name: (identifier) @constant.name) @constant
        (static_item name: (identifier) @static.name) @static
        (use_declaration) @import
        (line_comment) @comment
        (block_comment) @comment
    `,
		rules: map[string]captureRule{
			"function": {kind: types.KindFunction},
			"struct":   {kind: types.KindClass, classKind: "struct"},
			"enum":     {kind: types.KindClass, classKind: "enum"},
			"trait":    {kind: types.KindClass, classKind: "trait"},
			"type":     {kind: types.KindClass, classKind: "type"},
			"module":   {kind: types.KindClass, classKind: "module"},
			"constant": {kind: types.KindVariable, isConst: true},
			"static":   {kind: types.KindVariable},
			"import":   {kind: types.KindImport},
			"comment":  {kind: types.KindComment},
		},
		post: rustPost,
	}
}

func rustPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	switch e := el.(type) {
	case *types.Function:
		if hasAncestorKind(node, []string{"impl_item", "trait_item"}, []string{"function_item"}) {
			e.IsMethod = true
		}
		if mods := firstChildOfKind(node, "function_modifiers"); mods != nil {
			text := nodeText(mods, src)
			e.Modifiers = append(e.Modifiers, strings.Fields(text)...)
			e.IsAsync = strings.Contains(text, "async")
		}
		if doc := docCommentAbove(node, src); doc != "" {
			e.Docstring = doc
		}
	case *types.Class:
		if doc := docCommentAbove(node, src); doc != "" {
			e.Docstring = doc
		}
	case *types.Import:
		if e.Source == "" {
			if arg := node.ChildByFieldName("argument"); arg != nil {
				e.Source = nodeText(arg, src)
				e.Name = e.Source
			}
		}
	}
	return el
}
