package types

// Batch limit defaults. Limits travel with each request rather than
// living in global state; these are only the values applied when a
// request leaves them zero.
const (
	DefaultMaxBatchFiles = 20 // per-batch file cap
	// Rationale: bounds one batch's worst-case open-file and parse work
	// to something a single tool invocation can absorb.

	DefaultMaxSectionsPerFile = 50 // per-file section cap, checked per file
)

// SectionRequest names a line (and optionally column) range to read.
// Lines and columns are 1-indexed. EndLine 0 means end of file.
type SectionRequest struct {
	StartLine   int `json:"start_line"`
	EndLine     int `json:"end_line,omitempty"`
	StartColumn int `json:"start_column,omitempty"`
	EndColumn   int `json:"end_column,omitempty"`
}

// SectionContent is the resolved text for one SectionRequest.
type SectionContent struct {
	FilePath   string `json:"file_path"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Content    string `json:"content"`
	TotalLines int    `json:"total_lines"`
}

// FileRequest is one batch entry: a file plus the ordered sections to
// read from it.
type FileRequest struct {
	FilePath string           `json:"file_path"`
	Sections []SectionRequest `json:"sections"`
}

// BatchRequest fans out multiple file/section reads under bounded limits.
type BatchRequest struct {
	Requests           []FileRequest `json:"requests"`
	MaxFiles           int           `json:"max_files,omitempty"`
	MaxSectionsPerFile int           `json:"max_sections_per_file,omitempty"`
	FailFast           bool          `json:"fail_fast,omitempty"`
	AllowTruncate      bool          `json:"allow_truncate,omitempty"`
}

// EffectiveMaxFiles returns the request's file cap with the default
// applied.
func (r BatchRequest) EffectiveMaxFiles() int {
	if r.MaxFiles > 0 {
		return r.MaxFiles
	}
	return DefaultMaxBatchFiles
}

// EffectiveMaxSections returns the request's per-file section cap with
// the default applied.
func (r BatchRequest) EffectiveMaxSections() int {
	if r.MaxSectionsPerFile > 0 {
		return r.MaxSectionsPerFile
	}
	return DefaultMaxSectionsPerFile
}

// FileResult is one file's outcome within a batch. Error is set when the
// file failed and the batch was not fail-fast; Sections holds whatever
// succeeded.
type FileResult struct {
	FilePath  string           `json:"file_path"`
	Sections  []SectionContent `json:"sections,omitempty"`
	Error     string           `json:"error,omitempty"`
	Truncated bool             `json:"truncated,omitempty"`
}

// BatchItemError records one failed sub-request with its position in the
// caller's order.
type BatchItemError struct {
	Index    int    `json:"index"`
	FilePath string `json:"file_path"`
	Message  string `json:"message"`
}

// BatchResult preserves the caller's request order in Results regardless
// of completion order. Success is true only if every item succeeded;
// partial results remain available either way.
type BatchResult struct {
	Results        []FileResult     `json:"results"`
	Errors         []BatchItemError `json:"errors,omitempty"`
	Success        bool             `json:"success"`
	Truncated      bool             `json:"truncated,omitempty"`
	FilesRequested int              `json:"files_requested"`
	FilesProcessed int              `json:"files_processed"`
}
