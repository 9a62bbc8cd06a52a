package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/loader"
	"github.com/standardbeagle/treescan/internal/security"
	"github.com/standardbeagle/treescan/internal/types"
)

const goSample = `package main

import "fmt"

const limit = 3

func add(a, b int) int {
	return a + b
}

func sub(a, b int) int {
	return a - b
}

func main() {
	fmt.Println(add(1, 2))
}
`

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	guard, err := security.New(root)
	require.NoError(t, err)
	e, err := NewEngine(guard, loader.New(10<<20, nil))
	require.NoError(t, err)
	return e, root
}

func writeSample(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistryCompiles(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	for _, language := range types.AllLanguages() {
		keys := r.Keys(language)
		assert.NotEmpty(t, keys, language)
		assert.Contains(t, keys, "all", language)
		assert.Contains(t, keys, "comments", language)
	}
}

func TestExecuteWithQueryKey(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	resp, err := e.Execute(context.Background(), Request{
		FilePath: path,
		QueryKey: "functions",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, types.LangGo, resp.Language)
	assert.Equal(t, "functions", resp.Query)

	var names []string
	for _, m := range resp.Results {
		if m.CaptureName == "function.name" {
			names = append(names, m.Content)
		}
	}
	assert.Equal(t, []string{"add", "sub", "main"}, names)

	// Detailed results come back in source order.
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i].StartLine, resp.Results[i-1].StartLine)
	}
}

func TestExecuteQueryKeyXorQueryString(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	tests := []struct {
		name string
		req  Request
	}{
		{"neither", Request{FilePath: path}},
		{"both", Request{FilePath: path, QueryKey: "functions", QueryString: "(comment) @c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, tserrors.IsValidation(err))
			assert.Contains(t, err.Error(), xorMessage)
		})
	}
}

func TestExecuteUnknownKeySuggests(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	_, err := e.Execute(context.Background(), Request{FilePath: path, QueryKey: "function"})
	require.Error(t, err)
	assert.True(t, tserrors.IsValidation(err))
	assert.Contains(t, err.Error(), "functions")
}

func TestExecuteRawQueryString(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	resp, err := e.Execute(context.Background(), Request{
		FilePath:    path,
		QueryString: `(const_spec name: (identifier) @const.name)`,
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "limit", resp.Results[0].Content)
	assert.Equal(t, "identifier", resp.Results[0].NodeType)
}

func TestExecuteMalformedRawQuery(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	_, err := e.Execute(context.Background(), Request{
		FilePath:    path,
		QueryString: `(function_declaration`,
	})
	require.Error(t, err)
	assert.True(t, tserrors.IsValidation(err))
}

func TestExecuteFilters(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	tests := []struct {
		name   string
		filter types.FilterExpression
		want   []string
	}{
		{
			"content eq",
			types.FilterExpression{Field: types.FilterFieldContent, Operator: types.FilterOpEq, Pattern: "add"},
			[]string{"add"},
		},
		{
			"content contains",
			types.FilterExpression{Field: types.FilterFieldContent, Operator: types.FilterOpContains, Pattern: "a"},
			[]string{"add", "main"},
		},
		{
			"content regex",
			types.FilterExpression{Field: types.FilterFieldContent, Operator: types.FilterOpRegex, Pattern: "^(add|sub)$"},
			[]string{"add", "sub"},
		},
		{
			"capture eq",
			types.FilterExpression{Field: types.FilterFieldCapture, Operator: types.FilterOpEq, Pattern: "function.name"},
			[]string{"add", "sub", "main"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.filter
			resp, err := e.Execute(context.Background(), Request{
				FilePath: path,
				QueryKey: "functions",
				Filter:   &filter,
			})
			require.NoError(t, err)
			var got []string
			for _, m := range resp.Results {
				if m.CaptureName == "function.name" {
					got = append(got, m.Content)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecuteInvalidFilter(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	tests := []struct {
		name   string
		filter types.FilterExpression
	}{
		{"bad field", types.FilterExpression{Field: "nope", Operator: types.FilterOpEq, Pattern: "x"}},
		{"bad operator", types.FilterExpression{Field: types.FilterFieldContent, Operator: "nope", Pattern: "x"}},
		{"bad regex", types.FilterExpression{Field: types.FilterFieldContent, Operator: types.FilterOpRegex, Pattern: "("}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := tt.filter
			_, err := e.Execute(context.Background(), Request{
				FilePath: path,
				QueryKey: "functions",
				Filter:   &filter,
			})
			require.Error(t, err)
			assert.True(t, tserrors.IsValidation(err))
		})
	}
}

func TestExecuteSummaryFormat(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	resp, err := e.Execute(context.Background(), Request{
		FilePath:     path,
		QueryKey:     "functions",
		ResultFormat: FormatSummary,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	require.Len(t, resp.Captures, 2)

	byName := map[string]CaptureSummary{}
	for _, c := range resp.Captures {
		byName[c.CaptureName] = c
	}
	require.Contains(t, byName, "function.name")
	require.Contains(t, byName, "function.definition")
	assert.Equal(t, 3, byName["function.name"].Count)
	assert.LessOrEqual(t, len(byName["function.name"].Representatives), summaryRepresentatives)
}

func TestExecuteZeroMatchesIsSuccess(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "empty.go", "package empty\n")

	resp, err := e.Execute(context.Background(), Request{FilePath: path, QueryKey: "functions"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Zero(t, resp.Count)
	assert.Equal(t, "no results", resp.Message)
	assert.Empty(t, resp.Results)
}

func TestExecuteOutsideSandbox(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), Request{FilePath: "/etc/passwd", QueryKey: "functions"})
	require.Error(t, err)
	assert.True(t, tserrors.IsSecurity(err))
}

func TestExecuteCancelledContext(t *testing.T) {
	e, root := newTestEngine(t)
	path := writeSample(t, root, "main.go", goSample)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Execute(ctx, Request{FilePath: path, QueryKey: "functions"})
	assert.ErrorIs(t, err, context.Canceled)
}
