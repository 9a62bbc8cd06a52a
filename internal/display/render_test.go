package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/query"
	"github.com/standardbeagle/treescan/internal/types"
)

func TestRenderDispatch(t *testing.T) {
	v := map[string]int{"answer": 42}

	out, err := Render("", v)
	require.NoError(t, err)
	assert.Contains(t, out, `"answer": 42`)

	out, err = Render(FormatJSON, v)
	require.NoError(t, err)
	assert.Contains(t, out, `"answer": 42`)

	out, err = Render(FormatTOON, v)
	require.NoError(t, err)
	assert.Equal(t, "answer: 42\n", out)

	_, err = Render("yaml", v)
	require.Error(t, err)
	assert.True(t, tserrors.IsValidation(err))
	assert.Contains(t, err.Error(), "toon")
}

func TestTOONScalarsAndNesting(t *testing.T) {
	out, err := TOON(map[string]interface{}{
		"name":    "treescan",
		"count":   3,
		"enabled": true,
		"nested":  map[string]interface{}{"inner": "value"},
	})
	require.NoError(t, err)
	assert.Equal(t, "count: 3\nenabled: true\nname: treescan\nnested:\n  inner: value\n", out)
}

func TestTOONTabularArray(t *testing.T) {
	out, err := TOON(map[string]interface{}{
		"rows": []map[string]interface{}{
			{"name": "add", "line": 3},
			{"name": "sub", "line": 7},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "rows[2]{line,name}:\n  3,add\n  7,sub\n", out)
}

func TestTOONInlineScalarArray(t *testing.T) {
	out, err := TOON(map[string]interface{}{"exts": []string{".go", ".py"}})
	require.NoError(t, err)
	assert.Equal(t, "exts[2]: .go,.py\n", out)
}

func TestTOONEmptyArrayAndQuoting(t *testing.T) {
	out, err := TOON(map[string]interface{}{
		"items":  []string{},
		"tricky": []string{"a,b", "plain"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "items[0]:\n")
	assert.Contains(t, out, `tricky[2]: "a,b",plain`)
}

func TestAnalysisText(t *testing.T) {
	result := types.NewAnalysisResult("main.go", types.LangGo, []types.CodeElement{
		&types.Function{
			ElementBase: types.ElementBase{Name: "Area", StartLine: 5, EndLine: 8},
			Receiver:    "p *Point",
			IsMethod:    true,
		},
		&types.Class{
			ElementBase: types.ElementBase{Name: "Point", StartLine: 1, EndLine: 4},
			ClassKind:   "struct",
		},
		&types.Variable{
			ElementBase: types.ElementBase{Name: "limit", StartLine: 10, EndLine: 10},
			IsConstant:  true,
			VarType:     "int",
		},
	})

	out := AnalysisText(result)
	assert.Contains(t, out, "main.go (go): 3 elements")
	assert.Contains(t, out, "struct Point [1-4]")
	assert.Contains(t, out, "method (p *Point) Area() [5-8]")
	assert.Contains(t, out, "constant limit: int [10-10]")
	// Elements render in source order.
	assert.Less(t, strings.Index(out, "Point"), strings.Index(out, "Area"))
}

func TestAnalysisTextFailure(t *testing.T) {
	out := AnalysisText(types.FailedAnalysisResult("bad.py", types.LangPython, "parse produced no tree"))
	assert.Contains(t, out, "bad.py: FAILED: parse produced no tree")
}

func TestQueryText(t *testing.T) {
	resp := &query.Response{
		Success:  true,
		Count:    2,
		FilePath: "main.go",
		Language: types.LangGo,
		Query:    "functions",
		Results: []types.QueryMatch{
			{CaptureName: "function.name", Content: "add", StartLine: 3, EndLine: 3, NodeType: "identifier"},
			{CaptureName: "function.name", Content: "sub", StartLine: 7, EndLine: 7, NodeType: "identifier"},
		},
	}
	out := QueryText(resp)
	assert.Contains(t, out, `query "functions": 2 matches`)
	assert.Contains(t, out, "function.name (identifier) [3-3]: add")
}

func TestQueryTextZeroMatches(t *testing.T) {
	out := QueryText(&query.Response{Success: true, FilePath: "main.go", Language: types.LangGo, Query: "classes"})
	assert.Contains(t, out, "no results")
}

func TestQueryTextSaveWarning(t *testing.T) {
	out := QueryText(&query.Response{
		Success: true, Count: 1, Query: "functions",
		Results:       []types.QueryMatch{{CaptureName: "f", Content: "x", StartLine: 1, EndLine: 1}},
		FileSaveError: "permission denied",
	})
	assert.Contains(t, out, "output file not written: permission denied")
}

func TestBatchText(t *testing.T) {
	result := &types.BatchResult{
		Success:        false,
		Truncated:      true,
		FilesRequested: 3,
		FilesProcessed: 1,
		Results: []types.FileResult{
			{
				FilePath: "a.txt",
				Sections: []types.SectionContent{{StartLine: 1, EndLine: 2, TotalLines: 5, Content: "one\ntwo"}},
			},
			{FilePath: "b.txt", Error: "file not found: b.txt"},
		},
	}
	out := BatchText(result)
	assert.Contains(t, out, "batch: 1/3 files (truncated)")
	assert.Contains(t, out, "✓ a.txt (1 sections)")
	assert.Contains(t, out, "[1-2 of 5]")
	assert.Contains(t, out, "✗ b.txt: file not found")
}

func TestLanguagesText(t *testing.T) {
	out := LanguagesText([]types.LanguageInfo{
		{Name: types.LangGo, Extensions: []string{".go"}},
		{Name: types.LangPython, Extensions: []string{".py", ".pyi"}},
	})
	assert.Contains(t, out, ".go")
	assert.Contains(t, out, ".py .pyi")
}
