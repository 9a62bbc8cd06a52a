package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func javascriptSpec() languageSpec {
	return languageSpec{
		lang: types.LangJavaScript,
		query: `
        (function_declaration name: (identifier) @function.name) @function
        (generator_function_declaration name: (identifier) @function.name) @function
        (variable_declarator
            name: (identifier) @function.name
            value: [(arrow_function) (function_expression) (generator_function)]) @function
        (method_definition name: (property_identifier) @method.name) @method
        (class_declaration name: (identifier) @class.name) @class
        (variable_declarator
            name: (identifier) @variable.name
            value: (_) @variable.value) @variable
        (import_statement source: (string) @import.source) @import
        (comment) @comment
    `,
		rules: jsLikeRules(),
		post:  jsLikePost,
	}
}

// typescriptSpec serves both typescript and tsx; the query compiles
// against whichever grammar the language selects.
func typescriptSpec(language types.Language) languageSpec {
	return languageSpec{
		lang: language,
		query: `
        (function_declaration name: (identifier) @function.name) @function
        (generator_function_declaration name: (identifier) @function.name) @function
        (variable_declarator
            name: (identifier) @function.name
            value: [(arrow_function) (function_expression) (generator_function)]) @function
        (method_definition name: (property_identifier) @method.name) @method
        (class_declaration name: (type_identifier) @class.name) @class
        (interface_declaration name: (type_identifier) @interface.name) @interface
        (type_alias_declaration name: (type_identifier) @type.name) @type
        (enum_declaration name: (identifier) @enum.name) @enum
        (variable_declarator
            name: (identifier) @variable.name
            value: (_) @variable.value) @variable
        (import_statement source: (string) @import.source) @import
        (comment) @comment
    `,
		rules: jsLikeRules(),
		post:  jsLikePost,
	}
}

func jsLikeRules() map[string]captureRule {
	return map[string]captureRule{
		"function":  {kind: types.KindFunction},
		"method":    {kind: types.KindFunction, isMethod: true},
		"class":     {kind: types.KindClass},
		"interface": {kind: types.KindClass, classKind: "interface"},
		"type":      {kind: types.KindClass, classKind: "type"},
		"enum":      {kind: types.KindClass, classKind: "enum"},
		"variable":  {kind: types.KindVariable},
		"import":    {kind: types.KindImport},
		"comment":   {kind: types.KindComment},
	}
}

func jsLikePost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	switch e := el.(type) {
	case *types.Function:
		// const f = () => {}: the signature details live on the value.
		if node.Kind() == "variable_declarator" {
			if v := node.ChildByFieldName("value"); v != nil {
				e.Parameters = paramsFromNode(v.ChildByFieldName("parameters"), src)
				e.ReturnType = returnTypeOf(v, src)
				e.IsAsync = hasChildToken(v, "async")
			}
		}
	case *types.Variable:
		if v := node.ChildByFieldName("value"); v != nil {
			switch v.Kind() {
			case "arrow_function", "function_expression", "generator_function":
				return nil // already reported as a function
			}
		}
		if p := node.Parent(); p != nil && p.Kind() == "lexical_declaration" && hasChildToken(p, "const") {
			e.IsConstant = true
		}
	}
	return el
}
