package query

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/debug"
	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/lang"
	"github.com/standardbeagle/treescan/internal/loader"
	"github.com/standardbeagle/treescan/internal/security"
	"github.com/standardbeagle/treescan/internal/types"
)

const (
	FormatDetailed = "detailed"
	FormatSummary  = "summary"

	// summaryRepresentatives caps the sample size per capture group.
	summaryRepresentatives = 3
)

const xorMessage = "exactly one of query_key or query_string must be provided"

// Request describes one structural query over a single file.
type Request struct {
	FilePath     string                  `json:"file_path"`
	Language     string                  `json:"language,omitempty"`
	QueryKey     string                  `json:"query_key,omitempty"`
	QueryString  string                  `json:"query_string,omitempty"`
	Filter       *types.FilterExpression `json:"filter,omitempty"`
	ResultFormat string                  `json:"result_format,omitempty"`

	// Output persistence knobs, handled one layer up: the query engine
	// ignores them, the orchestrating engine writes OutputFile and may
	// clear Results when SuppressOutput is set.
	OutputFile     string `json:"output_file,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
	SuppressOutput bool   `json:"suppress_output,omitempty"`
}

// CaptureSummary is one capture-name group in summary format.
type CaptureSummary struct {
	CaptureName     string             `json:"capture_name"`
	Count           int                `json:"count"`
	Representatives []types.QueryMatch `json:"representatives,omitempty"`
}

// Response carries the query outcome. Results and Captures are mutually
// exclusive by format. The FileSaved fields are filled by the engine
// when output persistence was requested.
type Response struct {
	Success       bool               `json:"success"`
	Count         int                `json:"count"`
	FilePath      string             `json:"file_path"`
	Language      types.Language     `json:"language"`
	Query         string             `json:"query"`
	Results       []types.QueryMatch `json:"results,omitempty"`
	Captures      []CaptureSummary   `json:"captures,omitempty"`
	Message       string             `json:"message,omitempty"`
	OutputFile    string             `json:"output_file,omitempty"`
	FileSaved     bool               `json:"file_saved,omitempty"`
	FileSaveError string             `json:"file_save_error,omitempty"`
}

// Engine executes structural queries: path validation, load, parse, run,
// post-filter, format.
type Engine struct {
	registry *Registry
	guard    *security.PathGuard
	loader   *loader.FileLoader
}

func NewEngine(guard *security.PathGuard, fileLoader *loader.FileLoader) (*Engine, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	return &Engine{registry: registry, guard: guard, loader: fileLoader}, nil
}

// Keys exposes the registry key list for a language.
func (e *Engine) Keys(language types.Language) []string {
	return e.registry.Keys(language)
}

func (e *Engine) Execute(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if (req.QueryKey == "") == (req.QueryString == "") {
		return nil, tserrors.NewValidationError("query", xorMessage)
	}

	path, err := e.guard.Validate(req.FilePath)
	if err != nil {
		return nil, err
	}
	content, err := e.loader.Load(path)
	if err != nil {
		return nil, err
	}
	language, err := lang.Resolve(path, req.Language, content)
	if err != nil {
		return nil, err
	}

	var filter *compiledFilter
	if req.Filter != nil {
		filter, err = compileFilter(req.Filter)
		if err != nil {
			return nil, err
		}
	}

	query, queryText, err := e.resolveQuery(language, req)
	if err != nil {
		return nil, err
	}
	if req.QueryString != "" {
		// Raw queries are compiled per request; the registry's stay alive.
		defer query.Close()
	}

	src := []byte(content)
	tree, err := lang.Parse(path, language, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	matches := runQuery(query, tree, src)
	if filter != nil {
		matches = filter.apply(matches)
	}
	types.SortMatches(matches)
	debug.Log("query", "%s %s: %d matches\n", language, queryText, len(matches))

	resp := &Response{
		Success:  true,
		Count:    len(matches),
		FilePath: req.FilePath,
		Language: language,
		Query:    queryText,
	}
	if len(matches) == 0 {
		resp.Message = "no results"
		return resp, nil
	}

	if req.ResultFormat == FormatSummary {
		resp.Captures = summarize(matches)
	} else {
		resp.Results = matches
	}
	return resp, nil
}

// resolveQuery returns the compiled query and the text echoed back in
// the response.
func (e *Engine) resolveQuery(language types.Language, req Request) (*tree_sitter.Query, string, error) {
	if req.QueryKey != "" {
		q, err := e.registry.Lookup(language, req.QueryKey)
		if err != nil {
			return nil, "", err
		}
		return q, req.QueryKey, nil
	}

	grammar, err := lang.Grammar(language)
	if err != nil {
		return nil, "", err
	}
	q, qerr := tree_sitter.NewQuery(grammar, req.QueryString)
	if q == nil {
		reason := "query failed to compile"
		if qerr != nil {
			reason = fmt.Sprintf("query failed to compile: %s", qerr.Error())
		}
		return nil, "", tserrors.NewValidationError("query_string", reason)
	}
	return q, req.QueryString, nil
}

func runQuery(query *tree_sitter.Query, tree *tree_sitter.Tree, src []byte) []types.QueryMatch {
	root := tree.RootNode()
	if root == nil {
		return nil
	}
	captureNames := query.CaptureNames()
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	var out []types.QueryMatch
	matches := qc.Matches(query, root, src)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for i := range match.Captures {
			c := &match.Captures[i]
			node := &c.Node
			out = append(out, types.QueryMatch{
				CaptureName: captureNames[c.Index],
				Content:     matchText(node, src),
				StartLine:   int(node.StartPosition().Row) + 1,
				EndLine:     int(node.EndPosition().Row) + 1,
				NodeType:    node.Kind(),
			})
		}
	}
	return out
}

func matchText(node *tree_sitter.Node, src []byte) string {
	start, end := int(node.StartByte()), int(node.EndByte())
	if start < 0 || end < start || end > len(src) {
		return ""
	}
	return string(src[start:end])
}

// compiledFilter is a Filter with its regex (if any) compiled once for
// the whole match list.
type compiledFilter struct {
	expr *types.FilterExpression
	re   *regexp.Regexp
}

func compileFilter(expr *types.FilterExpression) (*compiledFilter, error) {
	if err := expr.Validate(); err != nil {
		return nil, tserrors.NewValidationError("filter", err.Error())
	}
	cf := &compiledFilter{expr: expr}
	if expr.Operator == types.FilterOpRegex {
		re, err := regexp.Compile(expr.Pattern)
		if err != nil {
			return nil, tserrors.NewValidationError("filter_pattern",
				fmt.Sprintf("invalid regex: %v", err))
		}
		cf.re = re
	}
	return cf, nil
}

func (f *compiledFilter) apply(matches []types.QueryMatch) []types.QueryMatch {
	var out []types.QueryMatch
	for _, m := range matches {
		if f.keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (f *compiledFilter) keep(m types.QueryMatch) bool {
	var value string
	switch f.expr.Field {
	case types.FilterFieldCapture:
		value = m.CaptureName
	case types.FilterFieldContent:
		value = m.Content
	case types.FilterFieldNodeType:
		value = m.NodeType
	default:
		return false
	}
	switch f.expr.Operator {
	case types.FilterOpEq:
		return value == f.expr.Pattern
	case types.FilterOpContains:
		return strings.Contains(value, f.expr.Pattern)
	case types.FilterOpRegex:
		return f.re.MatchString(value)
	default:
		return false
	}
}

// summarize groups matches by capture name with counts and a few
// representative items each, ordered by capture name.
func summarize(matches []types.QueryMatch) []CaptureSummary {
	grouped := make(map[string][]types.QueryMatch)
	for _, m := range matches {
		grouped[m.CaptureName] = append(grouped[m.CaptureName], m)
	}
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]CaptureSummary, 0, len(names))
	for _, name := range names {
		group := grouped[name]
		reps := group
		if len(reps) > summaryRepresentatives {
			reps = reps[:summaryRepresentatives]
		}
		out = append(out, CaptureSummary{
			CaptureName:     name,
			Count:           len(group),
			Representatives: reps,
		})
	}
	return out
}
