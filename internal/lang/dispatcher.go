// Package lang resolves file paths to languages and owns the tree-sitter
// grammar table and parser pools.
package lang

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/types"
)

// extTable maps file extensions to languages. Dispatch order: explicit
// request, extension, shebang sniff.
var extTable = map[string]types.Language{
	".go":    types.LangGo,
	".py":    types.LangPython,
	".pyw":   types.LangPython,
	".js":    types.LangJavaScript,
	".jsx":   types.LangJavaScript,
	".mjs":   types.LangJavaScript,
	".cjs":   types.LangJavaScript,
	".ts":    types.LangTypeScript,
	".mts":   types.LangTypeScript,
	".cts":   types.LangTypeScript,
	".tsx":   types.LangTSX,
	".java":  types.LangJava,
	".rs":    types.LangRust,
	".c":     types.LangC,
	".h":     types.LangC,
	".cpp":   types.LangCPP,
	".cc":    types.LangCPP,
	".cxx":   types.LangCPP,
	".hpp":   types.LangCPP,
	".hh":    types.LangCPP,
	".hxx":   types.LangCPP,
	".cs":    types.LangCSharp,
	".php":   types.LangPHP,
	".phtml": types.LangPHP,
	".rb":    types.LangRuby,
	".rake":  types.LangRuby,
	".zig":   types.LangZig,
	".html":  types.LangHTML,
	".htm":   types.LangHTML,
	".css":   types.LangCSS,
}

// Extensions returns the extension table keyed by language, for the
// languages listing and the gitignore source-file allowlist.
func Extensions() map[types.Language][]string {
	out := make(map[types.Language][]string)
	for ext, lang := range extTable {
		out[lang] = append(out[lang], ext)
	}
	for _, exts := range out {
		sort.Strings(exts)
	}
	return out
}

// SourceExtensions returns every recognized source extension.
func SourceExtensions() []string {
	out := make([]string, 0, len(extTable))
	for ext := range extTable {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Resolve determines the language for path. An explicit language wins
// after validation; otherwise the extension table is consulted, then a
// shebang sniff of content. Unknown languages come back as
// UnsupportedLanguageError with a did-you-mean suggestion when a near
// miss exists.
func Resolve(path string, explicit string, content string) (types.Language, error) {
	if explicit != "" {
		lang := types.Language(strings.ToLower(explicit))
		if lang.Valid() {
			return lang, nil
		}
		return "", unsupported(explicit)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extTable[ext]; ok {
		return lang, nil
	}

	if lang, ok := sniffShebang(content); ok {
		return lang, nil
	}

	requested := ext
	if requested == "" {
		requested = filepath.Base(path)
	}
	return "", unsupported(requested)
}

// sniffShebang inspects the first line of extensionless scripts.
func sniffShebang(content string) (types.Language, bool) {
	if !strings.HasPrefix(content, "#!") {
		return "", false
	}
	line := content
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	switch {
	case strings.Contains(line, "python"):
		return types.LangPython, true
	case strings.Contains(line, "ruby"):
		return types.LangRuby, true
	case strings.Contains(line, "node"):
		return types.LangJavaScript, true
	case strings.Contains(line, "php"):
		return types.LangPHP, true
	}
	return "", false
}

func unsupported(requested string) error {
	supported := make([]string, 0, len(types.AllLanguages()))
	for _, l := range types.AllLanguages() {
		supported = append(supported, l.String())
	}
	e := tserrors.NewUnsupportedLanguage(requested, supported)
	if s := Suggest(requested, supported); s != "" {
		e = e.WithSuggestion(s)
	}
	return e
}

// Suggest returns the closest candidate to input, or "" when nothing is
// close enough to be a plausible typo.
func Suggest(input string, candidates []string) string {
	needle := strings.ToLower(strings.TrimPrefix(input, "."))
	if needle == "" {
		return ""
	}
	match, err := edlib.FuzzySearchThreshold(needle, candidates, 0.6, edlib.Levenshtein)
	if err != nil {
		return ""
	}
	return match
}
