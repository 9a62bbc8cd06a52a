// Package mcp exposes the analysis engine as MCP tools over stdio.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/treescan/internal/config"
	"github.com/standardbeagle/treescan/internal/debug"
	"github.com/standardbeagle/treescan/internal/engine"
	"github.com/standardbeagle/treescan/internal/version"
	"github.com/standardbeagle/treescan/internal/watch"
)

// Server wires the engine behind the five MCP tools.
type Server struct {
	cfg     *config.Config
	engine  *engine.Engine
	server  *mcp.Server
	watcher *watch.Watcher
}

// NewServer builds the MCP server. Stdio carries the protocol, so debug
// output is forced to the log file before anything else can print.
func NewServer(cfg *config.Config) (*Server, error) {
	debug.SetMCPMode(true)

	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		engine: eng,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "treescan-mcp-server",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()

	if cfg.Watch.Enabled {
		watcher, err := watch.New(cfg.Project.Root, cfg.Watch.DebounceMs, func(path string) {
			// Paths arrive from fsnotify already inside the root; validation
			// failures here mean a symlink escaped and are safe to drop.
			if _, err := eng.InvalidateFile(path); err != nil {
				debug.LogMCP("watch invalidate %s: %v\n", path, err)
			}
		})
		if err != nil {
			eng.Close()
			return nil, err
		}
		if err := watcher.Start(); err != nil {
			eng.Close()
			return nil, err
		}
		s.watcher = watcher
	}
	return s, nil
}

// Run serves the stdio transport until ctx ends or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	debug.LogMCP("serving stdio, root=%s\n", s.cfg.Project.Root)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the engine and the watcher.
func (s *Server) Close() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.engine.Close()
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "analyze_structure",
		Description: "Extract the typed structure of one source file: functions, classes, variables, imports, comments. 15 languages via tree-sitter. Results are cached by content, so repeat calls are cheap.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file_path": {
					Type:        "string",
					Description: "Path to the source file, relative to the project root or absolute inside it",
				},
				"language": {
					Type:        "string",
					Description: "Language override; inferred from the extension (or shebang) when omitted",
				},
				"include_source": {
					Type:        "boolean",
					Description: "Echo the decoded file content on the result",
				},
				"encoding": {
					Type:        "string",
					Description: "Force a specific decoder (e.g. shift_jis, latin-1) instead of the fallback list",
				},
			},
			Required: []string{"file_path"},
		},
	}, s.handleAnalyzeStructure)

	s.server.AddTool(&mcp.Tool{
		Name:        "query_structure",
		Description: "Run a tree-sitter structural query against one file. Use a built-in query_key (functions, methods, classes, variables, imports, comments, all) or a raw query_string in s-expression syntax; exactly one of the two.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file_path": {
					Type:        "string",
					Description: "Path to the source file",
				},
				"language": {
					Type:        "string",
					Description: "Language override",
				},
				"query_key": {
					Type:        "string",
					Description: "Built-in query name; mutually exclusive with query_string",
				},
				"query_string": {
					Type:        "string",
					Description: "Raw tree-sitter query; mutually exclusive with query_key",
				},
				"filter_field": {
					Type:        "string",
					Description: "Post-filter field: capture, content, or node_type",
				},
				"filter_operator": {
					Type:        "string",
					Description: "Post-filter operator: eq, contains, or regex",
				},
				"filter_pattern": {
					Type:        "string",
					Description: "Post-filter pattern",
				},
				"result_format": {
					Type:        "string",
					Description: "detailed (every capture) or summary (per-capture counts with representatives)",
				},
				"output_format": {
					Type:        "string",
					Description: "Persisted document format: json or toon",
				},
				"output_file": {
					Type:        "string",
					Description: "Persist the full response to this path inside the project root",
				},
				"suppress_output": {
					Type:        "boolean",
					Description: "Omit result bodies from the reply (useful with output_file)",
				},
			},
			Required: []string{"file_path"},
		},
	}, s.handleQueryStructure)

	s.server.AddTool(&mcp.Tool{
		Name:        "read_partial",
		Description: "Read line/column sections of files without loading whole files into context. Single mode reads one section of one file; batch mode fans out over up to 20 files concurrently. The two modes are mutually exclusive.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file_path": {
					Type:        "string",
					Description: "Single mode: path to the file",
				},
				"start_line": {
					Type:        "integer",
					Description: "Single mode: first line, 1-indexed",
				},
				"end_line": {
					Type:        "integer",
					Description: "Single mode: last line inclusive; 0 or omitted means end of file",
				},
				"start_column": {
					Type:        "integer",
					Description: "Single mode: first column on the first line, 1-indexed",
				},
				"end_column": {
					Type:        "integer",
					Description: "Single mode: last column on the last line, inclusive",
				},
				"requests": {
					Type:        "array",
					Description: "Batch mode: file requests, each {file_path, sections:[{start_line, end_line?, start_column?, end_column?}]}",
					Items:       &jsonschema.Schema{Type: "object"},
				},
				"fail_fast": {
					Type:        "boolean",
					Description: "Batch mode: abort on the first failing sub-request",
				},
				"allow_truncate": {
					Type:        "boolean",
					Description: "Batch mode: clamp oversized batches instead of rejecting them",
				},
			},
		},
	}, s.handleReadPartial)

	s.server.AddTool(&mcp.Tool{
		Name:        "check_gitignore",
		Description: "Detect whether .gitignore patterns would hide source files under the given roots, so a caller can decide to bypass ignore rules when walking the tree.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"roots": {
					Type:        "array",
					Description: "Directories the caller intends to walk; detection applies when this is exactly the project root",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"project_root": {
					Type:        "string",
					Description: "Project root override; defaults to the sandbox root",
				},
			},
			Required: []string{"roots"},
		},
	}, s.handleCheckGitignore)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_languages",
		Description: "List every supported language with its file extensions and built-in query keys, plus cache statistics.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleListLanguages)
}
