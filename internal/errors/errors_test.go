package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityError_MessageContract(t *testing.T) {
	// Callers pattern-match on "security" and "path" in the message.
	err := NewSecurityError("/etc/passwd", "/home/project", "escapes root")

	msg := err.Error()
	assert.Contains(t, msg, "security")
	assert.Contains(t, msg, "path")
	assert.Contains(t, msg, "/etc/passwd")
	assert.True(t, IsSecurity(err))
	assert.False(t, IsValidation(err))
}

func TestFileLoadError_Types(t *testing.T) {
	tests := []struct {
		name     string
		err      *FileLoadError
		errType  ErrorType
		contains string
	}{
		{"not found", NewFileNotFound("missing.go", nil), ErrorTypeFileNotFound, "file not found"},
		{"not a file", NewNotAFile("somedir", nil), ErrorTypeNotAFile, "not a readable file"},
		{"decode failure", NewDecodeFailure("bin.dat", errors.New("invalid byte")), ErrorTypeDecodeFailure, "every configured encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type)
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.Equal(t, tt.errType, TypeOf(tt.err))
		})
	}
}

func TestIsNotFound_MatchesThroughWrapping(t *testing.T) {
	inner := NewFileNotFound("gone.py", nil)
	wrapped := fmt.Errorf("analyze failed: %w", inner)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("unrelated")))
}

func TestValidationError_AllowedValues(t *testing.T) {
	err := NewValidationError("result_format", "unknown value").WithAllowed("json", "summary")

	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "result_format")
	assert.Contains(t, err.Error(), "json")
}

func TestUnsupportedLanguage_Suggestion(t *testing.T) {
	err := NewUnsupportedLanguage("pyton", []string{"python", "go"}).WithSuggestion("python")

	assert.True(t, IsUnsupportedLanguage(err))
	assert.Contains(t, err.Error(), "did you mean")
	assert.Contains(t, err.Error(), "python")
}

func TestTypeOf_Categories(t *testing.T) {
	tests := []struct {
		err      error
		expected ErrorType
	}{
		{NewSecurityError("p", "r", "escape"), ErrorTypeSecurity},
		{NewValidationError("f", "bad"), ErrorTypeValidation},
		{NewParseError("a.go", "go", errors.New("panic")), ErrorTypeParse},
		{NewPersistenceError("out.json", errors.New("disk full")), ErrorTypePersistence},
		{NewUnsupportedLanguage("cobol", nil), ErrorTypeUnsupportedLanguage},
		{errors.New("anything else"), ErrorTypeExtraction},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			assert.Equal(t, tt.expected, TypeOf(tt.err))
		})
	}
}

func TestErrorMessages_DistinguishCategories(t *testing.T) {
	// Every failure's text must let a caller tell not-found, sandbox
	// violation, and bad request shape apart.
	notFound := NewFileNotFound("x.go", nil).Error()
	security := NewSecurityError("x.go", "/root", "escape").Error()
	validation := NewValidationError("query_key", "both provided").Error()

	assert.False(t, strings.Contains(notFound, "security"))
	assert.False(t, strings.Contains(validation, "security violation"))
	assert.NotEqual(t, notFound, security)
	assert.NotEqual(t, security, validation)
}
