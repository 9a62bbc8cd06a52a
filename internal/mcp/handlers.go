package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/treescan/internal/debug"
	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/query"
	"github.com/standardbeagle/treescan/internal/types"
)

type analyzeParams struct {
	FilePath      string `json:"file_path"`
	Language      string `json:"language,omitempty"`
	IncludeSource bool   `json:"include_source,omitempty"`
	Encoding      string `json:"encoding,omitempty"`
}

type queryParams struct {
	FilePath       string `json:"file_path"`
	Language       string `json:"language,omitempty"`
	QueryKey       string `json:"query_key,omitempty"`
	QueryString    string `json:"query_string,omitempty"`
	FilterField    string `json:"filter_field,omitempty"`
	FilterOperator string `json:"filter_operator,omitempty"`
	FilterPattern  string `json:"filter_pattern,omitempty"`
	ResultFormat   string `json:"result_format,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
	OutputFile     string `json:"output_file,omitempty"`
	SuppressOutput bool   `json:"suppress_output,omitempty"`
}

// readPartialParams covers both modes; the handler enforces their mutual
// exclusion.
type readPartialParams struct {
	FilePath    string `json:"file_path,omitempty"`
	StartLine   int    `json:"start_line,omitempty"`
	EndLine     int    `json:"end_line,omitempty"`
	StartColumn int    `json:"start_column,omitempty"`
	EndColumn   int    `json:"end_column,omitempty"`

	Requests      []types.FileRequest `json:"requests,omitempty"`
	FailFast      bool                `json:"fail_fast,omitempty"`
	AllowTruncate bool                `json:"allow_truncate,omitempty"`
}

type checkGitignoreParams struct {
	Roots       []string `json:"roots"`
	ProjectRoot string   `json:"project_root,omitempty"`
}

func (s *Server) handleAnalyzeStructure(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p analyzeParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResponse("analyze_structure", tserrors.NewValidationError("arguments", err.Error()))
	}

	result, err := s.engine.Analyze(ctx, types.AnalysisRequest{
		FilePath: p.FilePath,
		Language: types.Language(p.Language),
		Options: types.AnalysisOptions{
			IncludeSource: p.IncludeSource,
			Encoding:      p.Encoding,
		},
	})
	if err != nil {
		return errorResponse("analyze_structure", err)
	}
	return jsonResponse(result)
}

func (s *Server) handleQueryStructure(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p queryParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResponse("query_structure", tserrors.NewValidationError("arguments", err.Error()))
	}

	qr := query.Request{
		FilePath:       p.FilePath,
		Language:       p.Language,
		QueryKey:       p.QueryKey,
		QueryString:    p.QueryString,
		ResultFormat:   p.ResultFormat,
		OutputFormat:   p.OutputFormat,
		OutputFile:     p.OutputFile,
		SuppressOutput: p.SuppressOutput,
	}
	if p.FilterField != "" || p.FilterOperator != "" || p.FilterPattern != "" {
		qr.Filter = &types.FilterExpression{
			Field:    types.FilterField(p.FilterField),
			Operator: types.FilterOperator(p.FilterOperator),
			Pattern:  p.FilterPattern,
		}
	}

	resp, err := s.engine.Query(ctx, qr)
	if err != nil {
		return errorResponse("query_structure", err)
	}
	return jsonResponse(resp)
}

func (s *Server) handleReadPartial(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p readPartialParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResponse("read_partial", tserrors.NewValidationError("arguments", err.Error()))
	}

	single := p.FilePath != ""
	batch := len(p.Requests) > 0
	switch {
	case single && batch:
		return errorResponse("read_partial", tserrors.NewValidationError("mode",
			"file_path and requests are mutually exclusive; use one mode per call"))
	case !single && !batch:
		return errorResponse("read_partial", tserrors.NewValidationError("mode",
			"provide file_path for a single read or requests for a batch"))
	}

	if single {
		section, err := s.engine.ReadPartial(ctx, p.FilePath, types.SectionRequest{
			StartLine:   p.StartLine,
			EndLine:     p.EndLine,
			StartColumn: p.StartColumn,
			EndColumn:   p.EndColumn,
		})
		if err != nil {
			return errorResponse("read_partial", err)
		}
		return jsonResponse(section)
	}

	result, err := s.engine.ReadBatch(ctx, types.BatchRequest{
		Requests:      p.Requests,
		FailFast:      p.FailFast,
		AllowTruncate: p.AllowTruncate,
	})
	if err != nil {
		return errorResponse("read_partial", err)
	}
	return jsonResponse(result)
}

func (s *Server) handleCheckGitignore(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p checkGitignoreParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResponse("check_gitignore", tserrors.NewValidationError("arguments", err.Error()))
	}
	if len(p.Roots) == 0 {
		return errorResponse("check_gitignore", tserrors.NewValidationError("roots", "at least one root is required"))
	}
	return jsonResponse(s.engine.GitignoreInfo(p.Roots, p.ProjectRoot))
}

func (s *Server) handleListLanguages(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResponse(map[string]interface{}{
		"languages":   s.engine.Languages(),
		"cache_stats": s.engine.CacheStats(),
	})
}

func jsonResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

// errorResponse folds err into a structured success=false payload. Tool
// failures stay inside the result object with IsError set, never as
// protocol-level errors, so the client model can see them and adjust.
func errorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	debug.LogMCP("%s failed: %v\n", operation, err)

	payload := map[string]interface{}{
		"success":    false,
		"operation":  operation,
		"error":      err.Error(),
		"error_type": string(tserrors.TypeOf(err)),
	}
	if suggestion := suggestionFor(err); suggestion != "" {
		payload["suggestion"] = suggestion
	}

	result, marshalErr := jsonResponse(payload)
	if marshalErr != nil {
		return nil, marshalErr
	}
	result.IsError = true
	return result, nil
}

func suggestionFor(err error) string {
	var ue *tserrors.UnsupportedLanguageError
	if errors.As(err, &ue) && ue.Suggestion != "" {
		return fmt.Sprintf("did you mean %q?", ue.Suggestion)
	}
	return ""
}
