package lang

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/treescan/internal/types"
)

var (
	grammarOnce sync.Once
	grammars    map[types.Language]*tree_sitter.Language
)

func initGrammars() {
	grammars = map[types.Language]*tree_sitter.Language{
		types.LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		types.LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		types.LangJavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		types.LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		types.LangTSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		types.LangJava:       tree_sitter.NewLanguage(tree_sitter_java.Language()),
		types.LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
		types.LangC:          tree_sitter.NewLanguage(tree_sitter_c.Language()),
		types.LangCPP:        tree_sitter.NewLanguage(tree_sitter_cpp.Language()),
		types.LangCSharp:     tree_sitter.NewLanguage(tree_sitter_csharp.Language()),
		types.LangPHP:        tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()),
		types.LangRuby:       tree_sitter.NewLanguage(tree_sitter_ruby.Language()),
		types.LangZig:        tree_sitter.NewLanguage(tree_sitter_zig.Language()),
		types.LangHTML:       tree_sitter.NewLanguage(tree_sitter_html.Language()),
		types.LangCSS:        tree_sitter.NewLanguage(tree_sitter_css.Language()),
	}
}

// Grammar returns the tree-sitter language for lang. Grammars are loaded
// once and shared; a tree_sitter.Language is immutable after creation.
func Grammar(lang types.Language) (*tree_sitter.Language, error) {
	grammarOnce.Do(initGrammars)
	g, ok := grammars[lang]
	if !ok || g == nil {
		return nil, fmt.Errorf("no grammar registered for language %q", lang)
	}
	return g, nil
}
