package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func phpSpec() languageSpec {
	return languageSpec{
		lang: types.LangPHP,
		query: `
        (class_declaration name: (name) @class.name) @class
        (interface_declaration name: (name) @interface.name) @interface
        (trait_declaration name: (name) @trait.name) @trait
        (enum_declaration name: (name) @enum.name) @enum
        (function_definition name: (name) @function.name) @function
        (method_declaration name: (name) @method.name) @method
        (namespace_definition name: (namespace_name) @module.name) @module
        (namespace_use_declaration) @import
        (property_declaration) @property
        (const_declaration) @constant
        (comment) @comment
    `,
		rules: map[string]captureRule{
			"class":     {kind: types.KindClass},
			"interface": {kind: types.KindClass, classKind: "interface"},
			"trait":     {kind: types.KindClass, classKind: "trait"},
			"enum":      {kind: types.KindClass, classKind: "enum"},
			"function":  {kind: types.KindFunction},
			"method":    {kind: types.KindFunction, isMethod: true},
			"module":    {kind: types.KindClass, classKind: "module"},
			"import":    {kind: types.KindImport},
			"property":  {kind: types.KindVariable, isField: true},
			"constant":  {kind: types.KindVariable, isConst: true},
			"comment":   {kind: types.KindComment},
		},
		post: phpPost,
	}
}

func phpPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	switch e := el.(type) {
	case *types.Variable:
		// Property and const declarations carry no name capture; the
		// declared name sits in a nested variable_name/name node.
		if e.Name == "" {
			walk(node, func(n *tree_sitter.Node, depth int) bool {
				if e.Name != "" {
					return false
				}
				switch n.Kind() {
				case "variable_name":
					e.Name = nodeText(n, src)
					return false
				case "const_element":
					if nameNode := firstChildOfKind(n, "name"); nameNode != nil {
						e.Name = nodeText(nameNode, src)
					}
					return false
				}
				return true
			})
		}
	case *types.Import:
		if e.Source == "" {
			if clause := firstChildOfKind(node, "namespace_use_clause"); clause != nil {
				e.Source = nodeText(clause, src)
				e.Name = e.Source
			}
		}
	}
	return el
}
