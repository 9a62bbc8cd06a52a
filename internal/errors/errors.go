package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the analysis pipeline
type ErrorType string

const (
	// File loading errors
	ErrorTypeFileNotFound  ErrorType = "file_not_found"
	ErrorTypeNotAFile      ErrorType = "not_a_file"
	ErrorTypeDecodeFailure ErrorType = "decode_failure"

	// Request errors
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeValidation ErrorType = "validation"

	// Pipeline errors
	ErrorTypeUnsupportedLanguage ErrorType = "unsupported_language"
	ErrorTypeParse               ErrorType = "parse"
	ErrorTypeExtraction          ErrorType = "extraction"
	ErrorTypePersistence         ErrorType = "persistence"
)

// FileLoadError represents a failure to read or decode a file.
// Type narrows the cause to file_not_found, not_a_file, or decode_failure.
type FileLoadError struct {
	Type       ErrorType
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewFileNotFound creates a file-not-found load error.
func NewFileNotFound(path string, err error) *FileLoadError {
	return &FileLoadError{Type: ErrorTypeFileNotFound, Path: path, Underlying: err, Timestamp: time.Now()}
}

// NewNotAFile creates a load error for directories, specials, and
// oversized files.
func NewNotAFile(path string, err error) *FileLoadError {
	return &FileLoadError{Type: ErrorTypeNotAFile, Path: path, Underlying: err, Timestamp: time.Now()}
}

// NewDecodeFailure creates a load error carrying the last decoder's
// underlying error.
func NewDecodeFailure(path string, err error) *FileLoadError {
	return &FileLoadError{Type: ErrorTypeDecodeFailure, Path: path, Underlying: err, Timestamp: time.Now()}
}

// Error implements the error interface
func (e *FileLoadError) Error() string {
	switch e.Type {
	case ErrorTypeFileNotFound:
		return fmt.Sprintf("file not found: %s", e.Path)
	case ErrorTypeNotAFile:
		if e.Underlying != nil {
			return fmt.Sprintf("not a readable file: %s: %v", e.Path, e.Underlying)
		}
		return fmt.Sprintf("not a readable file: %s", e.Path)
	case ErrorTypeDecodeFailure:
		return fmt.Sprintf("failed to decode %s with every configured encoding: %v", e.Path, e.Underlying)
	}
	return fmt.Sprintf("file load failed for %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *FileLoadError) Unwrap() error {
	return e.Underlying
}

// SecurityError represents a sandbox violation. Its message always
// contains both "security" and "path": callers pattern-match that text
// to distinguish policy violations from ordinary failures.
type SecurityError struct {
	Path      string
	Root      string
	Reason    string
	Timestamp time.Time
}

// NewSecurityError creates a sandbox violation error.
func NewSecurityError(path, root, reason string) *SecurityError {
	return &SecurityError{Path: path, Root: root, Reason: reason, Timestamp: time.Now()}
}

// Error implements the error interface
func (e *SecurityError) Error() string {
	return fmt.Sprintf("security violation: path %q is outside the project root %q: %s", e.Path, e.Root, e.Reason)
}

// ValidationError represents a malformed request: mutually-exclusive
// field violations, invalid enum values, or limit violations without
// truncate.
type ValidationError struct {
	Field     string
	Reason    string
	Allowed   []string
	Timestamp time.Time
}

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Timestamp: time.Now()}
}

// WithAllowed attaches the set of acceptable values for the field.
func (e *ValidationError) WithAllowed(allowed ...string) *ValidationError {
	e.Allowed = allowed
	return e
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("invalid request: %s: %s (allowed: %v)", e.Field, e.Reason, e.Allowed)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// UnsupportedLanguageError reports a language the dispatcher cannot
// resolve. Suggestion carries a near-miss correction when one exists.
type UnsupportedLanguageError struct {
	Requested  string
	Suggestion string
	Supported  []string
	Timestamp  time.Time
}

// NewUnsupportedLanguage creates an unsupported-language error.
func NewUnsupportedLanguage(requested string, supported []string) *UnsupportedLanguageError {
	return &UnsupportedLanguageError{Requested: requested, Supported: supported, Timestamp: time.Now()}
}

// WithSuggestion attaches a did-you-mean correction.
func (e *UnsupportedLanguageError) WithSuggestion(s string) *UnsupportedLanguageError {
	e.Suggestion = s
	return e
}

// Error implements the error interface
func (e *UnsupportedLanguageError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unsupported language %q (did you mean %q?)", e.Requested, e.Suggestion)
	}
	return fmt.Sprintf("unsupported language %q", e.Requested)
}

// ParseError represents a whole-file parse failure: a grammar panic or a
// tree the parser could not produce. Per-node trouble never becomes a
// ParseError; it is logged and skipped during extraction.
type ParseError struct {
	Path       string
	Language   string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a parse error.
func NewParseError(path, language string, err error) *ParseError {
	return &ParseError{Path: path, Language: language, Underlying: err, Timestamp: time.Now()}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed for %s (%s): %v", e.Path, e.Language, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// PersistenceError represents an output-file write failure. It is
// reported alongside otherwise-successful results, never as a request
// failure.
type PersistenceError struct {
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewPersistenceError creates a persistence error.
func NewPersistenceError(path string, err error) *PersistenceError {
	return &PersistenceError{Path: path, Underlying: err, Timestamp: time.Now()}
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist output to %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *PersistenceError) Unwrap() error {
	return e.Underlying
}

// Category helpers. Callers at the pipeline boundary use these to decide
// which failures surface as hard errors and which fold into a
// success=false result.

// IsNotFound reports whether err is a file-not-found load error.
func IsNotFound(err error) bool {
	var le *FileLoadError
	return errors.As(err, &le) && le.Type == ErrorTypeFileNotFound
}

// IsSecurity reports whether err is a sandbox violation.
func IsSecurity(err error) bool {
	var se *SecurityError
	return errors.As(err, &se)
}

// IsValidation reports whether err is a malformed-request error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnsupportedLanguage reports whether err is an unsupported-language
// error.
func IsUnsupportedLanguage(err error) bool {
	var ue *UnsupportedLanguageError
	return errors.As(err, &ue)
}

// TypeOf maps err to its ErrorType discriminator for structured
// responses; unknown errors map to extraction.
func TypeOf(err error) ErrorType {
	var le *FileLoadError
	if errors.As(err, &le) {
		return le.Type
	}
	if IsSecurity(err) {
		return ErrorTypeSecurity
	}
	if IsValidation(err) {
		return ErrorTypeValidation
	}
	if IsUnsupportedLanguage(err) {
		return ErrorTypeUnsupportedLanguage
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return ErrorTypeParse
	}
	var we *PersistenceError
	if errors.As(err, &we) {
		return ErrorTypePersistence
	}
	return ErrorTypeExtraction
}
