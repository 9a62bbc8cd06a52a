package types

// Language identifies one of the supported source languages. The set is
// closed: dispatch, extractor registration, and the query registry all key
// on these values, and an unrecognized string is rejected at the dispatch
// boundary rather than flowing through the pipeline.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJava       Language = "java"
	LangRust       Language = "rust"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangPHP        Language = "php"
	LangRuby       Language = "ruby"
	LangZig        Language = "zig"
	LangHTML       Language = "html"
	LangCSS        Language = "css"
)

// AllLanguages returns the supported languages in stable display order.
func AllLanguages() []Language {
	return []Language{
		LangGo, LangPython, LangJavaScript, LangTypeScript, LangTSX,
		LangJava, LangRust, LangC, LangCPP, LangCSharp,
		LangPHP, LangRuby, LangZig, LangHTML, LangCSS,
	}
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case LangGo, LangPython, LangJavaScript, LangTypeScript, LangTSX,
		LangJava, LangRust, LangC, LangCPP, LangCSharp,
		LangPHP, LangRuby, LangZig, LangHTML, LangCSS:
		return true
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// LanguageInfo is one row of the supported-language listing.
type LanguageInfo struct {
	Name       Language `json:"name"`
	Extensions []string `json:"extensions"`
	QueryKeys  []string `json:"query_keys"`
}
