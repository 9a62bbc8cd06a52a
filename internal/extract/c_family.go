package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/types"
)

func cSpec() languageSpec {
	return languageSpec{
		lang: types.LangC,
		query: `
        (function_definition
            declarator: (function_declarator declarator: (identifier) @function.name)) @function
        (struct_specifier name: (type_identifier) @struct.name body: (field_declaration_list)) @struct
        (enum_specifier name: (type_identifier) @enum.name body: (enumerator_list)) @enum
        (type_definition declarator: (type_identifier) @type.name) @type
        (translation_unit
            (declaration declarator: (init_declarator declarator: (identifier) @variable.name)) @variable)
        (preproc_include path: (_) @import.path) @import
        (comment) @comment
    `,
		rules: cFamilyRules(),
		post:  cFamilyPost,
	}
}

func cppSpec() languageSpec {
	return languageSpec{
		lang: types.LangCPP,
		query: `
        (function_definition
            declarator: (function_declarator declarator: (identifier) @function.name)) @function
        (function_definition
            declarator: (function_declarator declarator: (qualified_identifier) @method.name)) @method
        (function_definition
            declarator: (function_declarator declarator: (field_identifier) @method.name)) @method
        (class_specifier name: (type_identifier) @class.name body: (field_declaration_list)) @class
        (struct_specifier name: (type_identifier) @struct.name body: (field_declaration_list)) @struct
        (enum_specifier name: (type_identifier) @enum.name body: (enumerator_list)) @enum
        (type_definition declarator: (type_identifier) @type.name) @type
        (namespace_definition name: (_) @module.name) @module
        (translation_unit
            (declaration declarator: (init_declarator declarator: (identifier) @variable.name)) @variable)
        (preproc_include path: (_) @import.path) @import
        (using_declaration) @import
        (comment) @comment
    `,
		rules: cFamilyRules(),
		post:  cFamilyPost,
	}
}

func cFamilyRules() map[string]captureRule {
	return map[string]captureRule{
		"function": {kind: types.KindFunction},
		"method":   {kind: types.KindFunction, isMethod: true},
		"class":    {kind: types.KindClass},
		"struct":   {kind: types.KindClass, classKind: "struct"},
		"enum":     {kind: types.KindClass, classKind: "enum"},
		"type":     {kind: types.KindClass, classKind: "type"},
		"module":   {kind: types.KindClass, classKind: "module"},
		"variable": {kind: types.KindVariable},
		"import":   {kind: types.KindImport},
		"comment":  {kind: types.KindComment},
	}
}

func cFamilyPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	switch e := el.(type) {
	case *types.Import:
		if e.Source == "" {
			// using namespace foo; / using foo::bar;
			s := strings.TrimSpace(firstLine(e.RawText))
			s = strings.TrimPrefix(s, "using")
			s = strings.TrimSpace(strings.TrimPrefix(s, " namespace"))
			e.Source = strings.TrimSpace(strings.TrimSuffix(s, ";"))
			e.Name = e.Source
		} else {
			// #include <...> or "...": strip the angle brackets too.
			e.Source = strings.Trim(e.Source, "<>")
			e.Name = e.Source
		}
	case *types.Function:
		// fn parameters hang off the function_declarator, not the
		// definition node.
		if decl := node.ChildByFieldName("declarator"); decl != nil {
			e.Parameters = paramsFromNode(decl.ChildByFieldName("parameters"), src)
		}
		if t := node.ChildByFieldName("type"); t != nil {
			e.ReturnType = nodeText(t, src)
		}
	}
	return el
}

func csharpSpec() languageSpec {
	return languageSpec{
		lang: types.LangCSharp,
		query: `
        (method_declaration name: (identifier) @method.name) @method
        (constructor_declaration name: (identifier) @constructor.name) @constructor
        (class_declaration name: (identifier) @class.name) @class
        (interface_declaration name: (identifier) @interface.name) @interface
        (struct_declaration name: (identifier) @struct.name) @struct
        (record_declaration name: (identifier) @record.name) @record
        (enum_declaration name: (identifier) @enum.name) @enum
        (property_declaration name: (identifier) @property.name) @property
        (field_declaration
            (variable_declaration
                (variable_declarator (identifier) @field.name))) @field
        (using_directive (qualified_name) @import.source) @import
        (using_directive (identifier) @import.source) @import
        (namespace_declaration name: (qualified_name) @module.name) @module
        (namespace_declaration name: (identifier) @module.name) @module
        (comment) @comment
    `,
		rules: map[string]captureRule{
			"method":      {kind: types.KindFunction, isMethod: true},
			"constructor": {kind: types.KindFunction, isMethod: true},
			"class":       {kind: types.KindClass},
			"interface":   {kind: types.KindClass, classKind: "interface"},
			"struct":      {kind: types.KindClass, classKind: "struct"},
			"record":      {kind: types.KindClass, classKind: "record"},
			"enum":        {kind: types.KindClass, classKind: "enum"},
			"module":      {kind: types.KindClass, classKind: "module"},
			"property":    {kind: types.KindVariable, isField: true},
			"field":       {kind: types.KindVariable, isField: true},
			"import":      {kind: types.KindImport},
			"comment":     {kind: types.KindComment},
		},
		post: csharpPost,
	}
}

func csharpPost(el types.CodeElement, node *tree_sitter.Node, src []byte) types.CodeElement {
	if e, ok := el.(*types.Function); ok {
		if rt := node.ChildByFieldName("returns"); rt != nil {
			e.ReturnType = nodeText(rt, src)
		} else if t := node.ChildByFieldName("type"); t != nil {
			e.ReturnType = nodeText(t, src)
		}
		e.IsAsync = strings.Contains(strings.Join(e.Modifiers, " "), "async")
	}
	return el
}
