package query

import (
	"fmt"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/lang"
	"github.com/standardbeagle/treescan/internal/types"
)

// Registry holds the built-in structural queries, compiled once per
// language at construction. A compile failure here is a startup bug,
// not a runtime condition.
type Registry struct {
	byLang map[types.Language]map[string]*tree_sitter.Query
}

func NewRegistry() (*Registry, error) {
	r := &Registry{byLang: make(map[types.Language]map[string]*tree_sitter.Query)}
	for language, sources := range builtinQuerySources() {
		grammar, err := lang.Grammar(language)
		if err != nil {
			return nil, err
		}
		compiled := make(map[string]*tree_sitter.Query, len(sources)+1)
		var allParts []string
		for key, source := range sources {
			q, qerr := tree_sitter.NewQuery(grammar, source)
			if q == nil {
				return nil, fmt.Errorf("built-in query %s/%s failed to compile: %v", language, key, qerr)
			}
			compiled[key] = q
			allParts = append(allParts, source)
		}
		sort.Strings(allParts)
		all, qerr := tree_sitter.NewQuery(grammar, strings.Join(allParts, "\n"))
		if all == nil {
			return nil, fmt.Errorf("built-in query %s/all failed to compile: %v", language, qerr)
		}
		compiled["all"] = all
		r.byLang[language] = compiled
	}
	return r, nil
}

// Keys lists the valid query keys for a language, sorted.
func (r *Registry) Keys(language types.Language) []string {
	compiled, ok := r.byLang[language]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(compiled))
	for key := range compiled {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Lookup resolves a query key for a language. Unknown keys carry the
// valid key list and a did-you-mean suggestion.
func (r *Registry) Lookup(language types.Language, key string) (*tree_sitter.Query, error) {
	compiled, ok := r.byLang[language]
	if !ok {
		return nil, errors.NewValidationError("query_key",
			fmt.Sprintf("no built-in queries for language %q", language))
	}
	if q, ok := compiled[key]; ok {
		return q, nil
	}

	keys := r.Keys(language)
	reason := fmt.Sprintf("unknown query key %q", key)
	if suggestion := lang.Suggest(key, keys); suggestion != "" {
		reason = fmt.Sprintf("unknown query key %q (did you mean %q?)", key, suggestion)
	}
	return nil, errors.NewValidationError("query_key", reason).WithAllowed(keys...)
}

// builtinQuerySources maps language to key to query text. The "all" key
// is synthesized from every other key at compile time.
func builtinQuerySources() map[types.Language]map[string]string {
	return map[types.Language]map[string]string{
		types.LangGo: {
			"functions": `(function_declaration name: (identifier) @function.name) @function.definition`,
			"methods": `(method_declaration
                receiver: (parameter_list) @method.receiver
                name: (field_identifier) @method.name) @method.definition`,
			"classes": `(type_declaration (type_spec name: (type_identifier) @type.name)) @type.definition`,
			"variables": `(var_declaration (var_spec name: (identifier) @variable.name)) @variable.definition
                (const_declaration (const_spec name: (identifier) @constant.name)) @constant.definition`,
			"imports":  `(import_spec path: (interpreted_string_literal) @import.path) @import.definition`,
			"comments": `(comment) @comment`,
		},
		types.LangPython: {
			"functions": `(function_definition name: (identifier) @function.name) @function.definition`,
			"methods": `(class_definition
                body: (block (function_definition name: (identifier) @method.name) @method.definition))`,
			"classes":   `(class_definition name: (identifier) @class.name) @class.definition`,
			"variables": `(assignment left: (identifier) @variable.name) @variable.definition`,
			"imports": `(import_statement) @import.definition
                (import_from_statement) @import.definition`,
			"comments": `(comment) @comment`,
		},
		types.LangJavaScript: {
			"functions": `(function_declaration name: (identifier) @function.name) @function.definition
                (generator_function_declaration name: (identifier) @function.name) @function.definition
                (variable_declarator
                    name: (identifier) @function.name
                    value: [(arrow_function) (function_expression)]) @function.definition`,
			"methods":   `(method_definition name: (property_identifier) @method.name) @method.definition`,
			"classes":   `(class_declaration name: (identifier) @class.name) @class.definition`,
			"variables": `(variable_declarator name: (identifier) @variable.name) @variable.definition`,
			"imports":   `(import_statement source: (string) @import.source) @import.definition`,
			"comments":  `(comment) @comment`,
		},
		types.LangTypeScript: typescriptQuerySources(),
		types.LangTSX:        typescriptQuerySources(),
		types.LangJava: {
			"functions": `(method_declaration name: (identifier) @method.name) @method.definition
                (constructor_declaration name: (identifier) @constructor.name) @constructor.definition`,
			"methods": `(method_declaration name: (identifier) @method.name) @method.definition`,
			"classes": `(class_declaration name: (identifier) @class.name) @class.definition
                (interface_declaration name: (identifier) @interface.name) @interface.definition
                (enum_declaration name: (identifier) @enum.name) @enum.definition
                (record_declaration name: (identifier) @record.name) @record.definition`,
			"variables": `(field_declaration declarator: (variable_declarator name: (identifier) @field.name)) @field.definition`,
			"imports":   `(import_declaration) @import.definition`,
			"comments": `(line_comment) @comment
                (block_comment) @comment`,
		},
		types.LangRust: {
			"functions": `(function_item name: (identifier) @function.name) @function.definition`,
			"methods": `(impl_item body: (declaration_list
                (function_item name: (identifier) @method.name) @method.definition))`,
			"classes": `(struct_item name: (type_identifier) @struct.name) @struct.definition
                (enum_item name: (type_identifier) @enum.name) @enum.definition
                (trait_item name: (type_identifier) @trait.name) @trait.definition`,
			"variables": `(const_item name: (identifier) @constant.name) @constant.definition
                (static_item name: (identifier) @static.name) @static.definition`,
			"imports": `(use_declaration) @import.definition`,
			"comments": `(line_comment) @comment
                (block_comment) @comment`,
		},
		types.LangC: {
			"functions": `(function_definition
                declarator: (function_declarator declarator: (identifier) @function.name)) @function.definition`,
			"classes": `(struct_specifier name: (type_identifier) @struct.name body: (field_declaration_list)) @struct.definition
                (enum_specifier name: (type_identifier) @enum.name body: (enumerator_list)) @enum.definition
                (type_definition declarator: (type_identifier) @type.name) @type.definition`,
			"variables": `(translation_unit
                (declaration declarator: (init_declarator declarator: (identifier) @variable.name)) @variable.definition)`,
			"imports":  `(preproc_include path: (_) @import.path) @import.definition`,
			"comments": `(comment) @comment`,
		},
		types.LangCPP: {
			"functions": `(function_definition
                declarator: (function_declarator declarator: (identifier) @function.name)) @function.definition`,
			"methods": `(function_definition
                declarator: (function_declarator declarator: (qualified_identifier) @method.name)) @method.definition
                (function_definition
                    declarator: (function_declarator declarator: (field_identifier) @method.name)) @method.definition`,
			"classes": `(class_specifier name: (type_identifier) @class.name body: (field_declaration_list)) @class.definition
                (struct_specifier name: (type_identifier) @struct.name body: (field_declaration_list)) @struct.definition
                (namespace_definition name: (_) @namespace.name) @namespace.definition`,
			"variables": `(translation_unit
                (declaration declarator: (init_declarator declarator: (identifier) @variable.name)) @variable.definition)`,
			"imports": `(preproc_include path: (_) @import.path) @import.definition
                (using_declaration) @using.definition`,
			"comments": `(comment) @comment`,
		},
		types.LangCSharp: {
			"functions": `(method_declaration name: (identifier) @method.name) @method.definition
                (constructor_declaration name: (identifier) @constructor.name) @constructor.definition`,
			"methods": `(method_declaration name: (identifier) @method.name) @method.definition`,
			"classes": `(class_declaration name: (identifier) @class.name) @class.definition
                (interface_declaration name: (identifier) @interface.name) @interface.definition
                (struct_declaration name: (identifier) @struct.name) @struct.definition
                (record_declaration name: (identifier) @record.name) @record.definition
                (enum_declaration name: (identifier) @enum.name) @enum.definition`,
			"variables": `(field_declaration
                (variable_declaration (variable_declarator (identifier) @field.name))) @field.definition
                (property_declaration name: (identifier) @property.name) @property.definition`,
			"imports": `(using_directive (qualified_name) @import.source) @import.definition
                (using_directive (identifier) @import.source) @import.definition`,
			"comments": `(comment) @comment`,
		},
		types.LangPHP: {
			"functions": `(function_definition name: (name) @function.name) @function.definition`,
			"methods":   `(method_declaration name: (name) @method.name) @method.definition`,
			"classes": `(class_declaration name: (name) @class.name) @class.definition
                (interface_declaration name: (name) @interface.name) @interface.definition
                (trait_declaration name: (name) @trait.name) @trait.definition`,
			"variables": `(property_declaration) @property.definition
                (const_declaration) @constant.definition`,
			"imports":  `(namespace_use_declaration) @import.definition`,
			"comments": `(comment) @comment`,
		},
		types.LangRuby: {
			"functions": `(method name: (identifier) @method.name) @method.definition
                (singleton_method name: (identifier) @method.name) @method.definition`,
			"methods": `(method name: (identifier) @method.name) @method.definition`,
			"classes": `(class name: (constant) @class.name) @class.definition
                (module name: (constant) @module.name) @module.definition`,
			"variables": `(assignment left: (constant) @constant.name) @constant.definition`,
			"imports": `(call
                method: (identifier) @import.callee
                arguments: (argument_list (string) @import.source)) @import.definition`,
			"comments": `(comment) @comment`,
		},
		types.LangZig: {
			"functions": `(function_declaration (identifier) @function.name) @function.definition`,
			"classes": `(variable_declaration
                (identifier) @struct.name
                (struct_declaration)) @struct.definition`,
			"variables": `(variable_declaration (identifier) @variable.name) @variable.definition`,
			"comments":  `(comment) @comment`,
		},
		types.LangHTML: {
			"elements": `(element (start_tag (tag_name) @element.tag)) @element
                (script_element (start_tag (tag_name) @element.tag)) @element
                (style_element (start_tag (tag_name) @element.tag)) @element`,
			"comments": `(comment) @comment`,
		},
		types.LangCSS: {
			"rules":    `(rule_set (selectors) @rule.selector) @rule`,
			"imports":  `(import_statement) @import.definition`,
			"comments": `(comment) @comment`,
		},
	}
}

func typescriptQuerySources() map[string]string {
	return map[string]string{
		"functions": `(function_declaration name: (identifier) @function.name) @function.definition
            (generator_function_declaration name: (identifier) @function.name) @function.definition
            (variable_declarator
                name: (identifier) @function.name
                value: [(arrow_function) (function_expression)]) @function.definition`,
		"methods": `(method_definition name: (property_identifier) @method.name) @method.definition`,
		"classes": `(class_declaration name: (type_identifier) @class.name) @class.definition
            (interface_declaration name: (type_identifier) @interface.name) @interface.definition
            (type_alias_declaration name: (type_identifier) @type.name) @type.definition
            (enum_declaration name: (identifier) @enum.name) @enum.definition`,
		"variables": `(variable_declarator name: (identifier) @variable.name) @variable.definition`,
		"imports":   `(import_statement source: (string) @import.source) @import.definition`,
		"comments":  `(comment) @comment`,
	}
}
