package types

import (
	"fmt"
	"strings"
)

// AnalysisOptions carries the per-request knobs that affect extraction
// output. Anything that changes the produced elements must participate in
// Fingerprint so the cache key reflects it.
type AnalysisOptions struct {
	// IncludeSource echoes the decoded file content on the result.
	IncludeSource bool `json:"include_source,omitempty"`
	// Encoding forces a specific decoder instead of the fallback list.
	Encoding string `json:"encoding,omitempty"`
}

// Fingerprint returns a stable string for cache key derivation. Only
// options that change extraction output are included; IncludeSource does
// not alter elements and is applied after the cache. An empty options set
// fingerprints to the empty string so the common path stays allocation
// free.
func (o AnalysisOptions) Fingerprint() string {
	if o.Encoding == "" {
		return ""
	}
	return "enc=" + strings.ToLower(o.Encoding)
}

// AnalysisRequest names a file to analyze. Language is optional; when
// empty it is inferred from the file extension (or a shebang sniff).
type AnalysisRequest struct {
	FilePath string          `json:"file_path"`
	Language Language        `json:"language,omitempty"`
	Options  AnalysisOptions `json:"options,omitempty"`
}

// Validate checks the request shape without touching the filesystem.
func (r AnalysisRequest) Validate() error {
	if r.FilePath == "" {
		return fmt.Errorf("file_path must not be empty")
	}
	if r.Language != "" && !r.Language.Valid() {
		return fmt.Errorf("unknown language %q", r.Language)
	}
	return nil
}

// AnalysisResult is one pipeline invocation's outcome. Constructed once,
// immutable afterwards: the cache hands out the same pointer to every
// caller, so nothing downstream may mutate Elements.
type AnalysisResult struct {
	FilePath     string        `json:"file_path"`
	Language     Language      `json:"language"`
	Elements     []CodeElement `json:"elements"`
	ElementCount int           `json:"element_count"`
	Success      bool          `json:"success"`
	ErrorMessage string        `json:"error_message,omitempty"`
	SourceCode   string        `json:"source_code,omitempty"`
}

// NewAnalysisResult builds a successful result with elements in source
// order.
func NewAnalysisResult(filePath string, lang Language, elems []CodeElement) *AnalysisResult {
	SortElements(elems)
	return &AnalysisResult{
		FilePath:     filePath,
		Language:     lang,
		Elements:     elems,
		ElementCount: len(elems),
		Success:      true,
	}
}

// FailedAnalysisResult builds the success=false shape the pipeline
// boundary returns for soft failures.
func FailedAnalysisResult(filePath string, lang Language, msg string) *AnalysisResult {
	return &AnalysisResult{
		FilePath:     filePath,
		Language:     lang,
		Success:      false,
		ErrorMessage: msg,
	}
}
