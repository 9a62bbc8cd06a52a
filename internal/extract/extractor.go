// Package extract turns parsed syntax trees into typed code elements.
// One extractor per language; all of them are stateless between calls.
package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/types"
)

// SchemaVersion participates in cache key derivation. Bump it whenever
// extraction output changes shape or coverage so stale entries die by
// key, not by guesswork.
const SchemaVersion = "v1"

// Extractor extracts typed elements from a parsed tree. A nil tree or a
// tree without a root yields an empty slice, never an error: tree-sitter
// is error tolerant and an unparseable region is simply not reported.
type Extractor interface {
	Language() types.Language
	ExtractFunctions(tree *tree_sitter.Tree, src []byte) []types.CodeElement
	ExtractClasses(tree *tree_sitter.Tree, src []byte) []types.CodeElement
	ExtractVariables(tree *tree_sitter.Tree, src []byte) []types.CodeElement
	ExtractImports(tree *tree_sitter.Tree, src []byte) []types.CodeElement
	ExtractComments(tree *tree_sitter.Tree, src []byte) []types.CodeElement
	ExtractAll(tree *tree_sitter.Tree, src []byte) []types.CodeElement
}

// MarkupExtractor is the capability extension for markup languages.
type MarkupExtractor interface {
	ExtractMarkup(tree *tree_sitter.Tree, src []byte) []types.CodeElement
}

// StyleExtractor is the capability extension for stylesheet languages.
type StyleExtractor interface {
	ExtractStyles(tree *tree_sitter.Tree, src []byte) []types.CodeElement
}

// Registry holds one compiled extractor per language. Construction
// compiles and validates every built-in query; a grammar/query mismatch
// fails here, at startup, not at request time.
type Registry struct {
	byLang map[types.Language]Extractor
}

// NewRegistry compiles all language extractors.
func NewRegistry() (*Registry, error) {
	r := &Registry{byLang: make(map[types.Language]Extractor, len(types.AllLanguages()))}

	for _, spec := range languageSpecs() {
		ex, err := newQueryExtractor(spec)
		if err != nil {
			return nil, err
		}
		r.byLang[spec.lang] = ex
	}

	html, err := newHTMLExtractor()
	if err != nil {
		return nil, err
	}
	r.byLang[types.LangHTML] = html

	css, err := newCSSExtractor()
	if err != nil {
		return nil, err
	}
	r.byLang[types.LangCSS] = css

	return r, nil
}

// For returns the extractor for lang.
func (r *Registry) For(lang types.Language) (Extractor, error) {
	ex, ok := r.byLang[lang]
	if !ok {
		supported := make([]string, 0, len(r.byLang))
		for l := range r.byLang {
			supported = append(supported, l.String())
		}
		return nil, tserrors.NewUnsupportedLanguage(lang.String(), supported)
	}
	return ex, nil
}

// languageSpecs lists the query-driven languages. HTML and CSS use
// walker-based extractors registered separately.
func languageSpecs() []languageSpec {
	return []languageSpec{
		goSpec(),
		pythonSpec(),
		javascriptSpec(),
		typescriptSpec(types.LangTypeScript),
		typescriptSpec(types.LangTSX),
		javaSpec(),
		rustSpec(),
		cSpec(),
		cppSpec(),
		csharpSpec(),
		phpSpec(),
		rubySpec(),
		zigSpec(),
	}
}
