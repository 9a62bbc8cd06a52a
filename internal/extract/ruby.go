package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func rubySpec() languageSpec {
	return languageSpec{
		lang: types.LangRuby,
		query: `
        (method name: (identifier) @function.name) @function
        (singleton_method name: (identifier) @function.name) @function
        (class name: (constant) @class.name) @class
        (module name: (constant) @module.name) @module
        (assignment left: (constant) @constant.name) @constant
        (call
            method: (identifier) @import.callee
            arguments: (argument_list (string) @import.source)) @import
        (comment) @comment
    `,
		rules: map[string]captureRule{
			"function": {kind: types.KindFunction},
			"class":    {kind: types.KindClass},
			"module":   {kind: types.KindClass, classKind: "module"},
			"constant": {kind: types.KindVariable, isConst: true},
			"import":   {kind: types.KindImport},
			"comment":  {kind: types.KindComment},
		},
		post: rubyPost,
	}
}

func rubyPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	switch e := el.(type) {
	case *types.Function:
		if hasAncestorKind(node, []string{"class", "module"}, []string{"method", "singleton_method"}) {
			e.IsMethod = true
		}
	case *types.Import:
		// Only require-family calls count as imports; every other call
		// with a string argument matched the pattern too.
		callee := ""
		if m := node.ChildByFieldName("method"); m != nil {
			callee = nodeText(m, src)
		}
		switch callee {
		case "require", "require_relative", "load":
		default:
			return nil
		}
	}
	return el
}
