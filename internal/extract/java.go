package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func javaSpec() languageSpec {
	return languageSpec{
		lang: types.LangJava,
		query: `
        (method_declaration name: (identifier) @method.name) @method
        (constructor_declaration name: (identifier) @constructor.name) @constructor
        (class_declaration name: (identifier) @class.name) @class
        (record_declaration name: (identifier) @record.name) @record
        (interface_declaration name: (identifier) @interface.name) @interface
        (enum_declaration name: (identifier) @enum.name) @enum
        (annotation_type_declaration name: (identifier) @annotation.name) @annotation
        (field_declaration declarator: (variable_declarator name: (identifier) @field.name)) @field
        (import_declaration) @import
        (line_comment) @comment
        (block_comment) @comment
    `,
		rules: map[string]captureRule{
			"method":      {kind: types.KindFunction, isMethod: true},
			"constructor": {kind: types.KindFunction, isMethod: true},
			"class":       {kind: types.KindClass},
			"record":      {kind: types.KindClass, classKind: "record"},
			"interface":   {kind: types.KindClass, classKind: "interface"},
			"enum":        {kind: types.KindClass, classKind: "enum"},
			"annotation":  {kind: types.KindClass, classKind: "annotation"},
			"field":       {kind: types.KindVariable, isField: true},
			"import":      {kind: types.KindImport},
			"comment":     {kind: types.KindComment},
		},
		post: javaPost,
	}
}

func javaPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	if e, ok := el.(*types.Import); ok && e.Source == "" {
		s := strings.TrimSpace(firstLine(e.RawText))
		s = strings.TrimPrefix(s, "import")
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
		s = strings.TrimSpace(strings.TrimPrefix(s, "static"))
		e.Source = s
		e.Name = s
	}
	return el
}
