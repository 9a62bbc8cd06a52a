// Package engine wires the analysis pipeline together: sandbox guard,
// loader, parser pools, extraction, the result cache, structural queries,
// batch reads, and gitignore interference detection. Every public surface
// (MCP tools, CLI commands) goes through this package.
package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/standardbeagle/treescan/internal/batch"
	"github.com/standardbeagle/treescan/internal/cache"
	"github.com/standardbeagle/treescan/internal/config"
	"github.com/standardbeagle/treescan/internal/debug"
	"github.com/standardbeagle/treescan/internal/display"
	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/extract"
	"github.com/standardbeagle/treescan/internal/gitignore"
	"github.com/standardbeagle/treescan/internal/lang"
	"github.com/standardbeagle/treescan/internal/loader"
	"github.com/standardbeagle/treescan/internal/query"
	"github.com/standardbeagle/treescan/internal/security"
	"github.com/standardbeagle/treescan/internal/types"
)

// Engine is the orchestrator behind every tool and command. It is safe
// for concurrent use; all mutable state lives in the cache.
type Engine struct {
	cfg      *config.Config
	guard    *security.PathGuard
	files    *loader.FileLoader
	registry *extract.Registry
	results  *cache.ResultCache
	queries  *query.Engine
	detector *gitignore.Detector
	batcher  *batch.Coordinator
}

// New builds an engine from a validated configuration.
func New(cfg *config.Config) (*Engine, error) {
	guard, err := security.New(cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("sandbox root: %w", err)
	}

	files := loader.New(cfg.Analysis.MaxFileSize, cfg.Analysis.EncodingFallback)

	registry, err := extract.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("extractor registry: %w", err)
	}

	results, err := cache.New(cfg.Cache.Capacity)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}

	queries, err := query.NewEngine(guard, files)
	if err != nil {
		results.Close()
		return nil, fmt.Errorf("query engine: %w", err)
	}

	detector := gitignore.NewDetector(cfg.Project.Root,
		cfg.Gitignore.AncestorDepth, cfg.Gitignore.ScanDepth, cfg.Gitignore.ExtraExtensions)

	return &Engine{
		cfg:      cfg,
		guard:    guard,
		files:    files,
		registry: registry,
		results:  results,
		queries:  queries,
		detector: detector,
		batcher:  batch.New(guard, files, cfg.Batch.MaxConcurrency),
	}, nil
}

// Root returns the sandbox root every request is confined to.
func (e *Engine) Root() string {
	return e.guard.Root()
}

// Analyze runs the full extraction pipeline for one file.
//
// Failure handling splits two ways: security and validation problems are
// hard errors, while load, language resolution, and parse failures fold
// into a success=false result so a batch of analyses degrades per file
// instead of aborting.
func (e *Engine) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, tserrors.NewValidationError("request", err.Error())
	}

	canonical, err := e.guard.Validate(req.FilePath)
	if err != nil {
		return nil, err
	}

	var content string
	if req.Options.Encoding != "" {
		content, err = e.files.LoadWithEncoding(canonical, req.Options.Encoding)
		if tserrors.IsValidation(err) {
			// Unknown encoding name is a malformed request, not a bad file.
			return nil, err
		}
	} else {
		content, err = e.files.Load(canonical)
	}
	if err != nil {
		return types.FailedAnalysisResult(req.FilePath, req.Language, err.Error()), nil
	}

	language, err := lang.Resolve(canonical, string(req.Language), content)
	if err != nil {
		return types.FailedAnalysisResult(req.FilePath, req.Language, err.Error()), nil
	}

	key := cache.Key(canonical, []byte(content), language, req.Options.Fingerprint())
	result, hit, err := e.results.GetOrCompute(key, canonical, func() (*types.AnalysisResult, error) {
		return e.analyzeContent(req.FilePath, language, content)
	})
	if err != nil {
		if hardError(err) {
			return nil, err
		}
		return types.FailedAnalysisResult(req.FilePath, language, err.Error()), nil
	}
	debug.Log("ENGINE", "analyze %s lang=%s cache_hit=%t elements=%d\n",
		req.FilePath, language, hit, result.ElementCount)

	if req.Options.IncludeSource || e.cfg.Analysis.IncludeSource {
		// Cached results are shared pointers; echoing source must not
		// mutate them.
		copied := *result
		copied.SourceCode = content
		return &copied, nil
	}
	return result, nil
}

func (e *Engine) analyzeContent(filePath string, language types.Language, content string) (*types.AnalysisResult, error) {
	src := []byte(content)
	tree, err := lang.Parse(filePath, language, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	extractor, err := e.registry.For(language)
	if err != nil {
		return nil, err
	}
	return types.NewAnalysisResult(filePath, language, extractor.ExtractAll(tree, src)), nil
}

func hardError(err error) bool {
	return tserrors.IsSecurity(err) || tserrors.IsValidation(err)
}

// Query executes a structural query and optionally persists the response
// to a file inside the sandbox. Persistence failures never fail the
// query; they surface on the response.
func (e *Engine) Query(ctx context.Context, req query.Request) (*query.Response, error) {
	resp, err := e.queries.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.OutputFile != "" {
		e.persistResponse(req, resp)
	}
	if req.SuppressOutput {
		resp.Results = nil
		resp.Captures = nil
	}
	return resp, nil
}

func (e *Engine) persistResponse(req query.Request, resp *query.Response) {
	outPath, err := e.guard.Validate(req.OutputFile)
	if err != nil {
		resp.FileSaveError = tserrors.NewPersistenceError(req.OutputFile, err).Error()
		return
	}
	rendered, err := display.Render(req.OutputFormat, resp)
	if err != nil {
		resp.FileSaveError = tserrors.NewPersistenceError(req.OutputFile, err).Error()
		return
	}
	if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
		resp.FileSaveError = tserrors.NewPersistenceError(req.OutputFile, err).Error()
		return
	}
	resp.OutputFile = outPath
	resp.FileSaved = true
}

// QueryKeys lists the built-in query keys for a language.
func (e *Engine) QueryKeys(language types.Language) []string {
	return e.queries.Keys(language)
}

// ReadPartial reads one section of one file.
func (e *Engine) ReadPartial(ctx context.Context, filePath string, section types.SectionRequest) (*types.SectionContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	canonical, err := e.guard.Validate(filePath)
	if err != nil {
		return nil, err
	}
	content, err := e.files.Load(canonical)
	if err != nil {
		return nil, err
	}
	sc, err := batch.Slice(content, section)
	if err != nil {
		return nil, err
	}
	sc.FilePath = filePath
	return &sc, nil
}

// ReadBatch fans a multi-file section read out across the coordinator.
func (e *Engine) ReadBatch(ctx context.Context, req types.BatchRequest) (*types.BatchResult, error) {
	return e.batcher.Execute(ctx, req)
}

// GitignoreInfo reports whether .gitignore patterns would hide source
// files under the requested roots. An empty projectRoot defaults to the
// sandbox root.
func (e *Engine) GitignoreInfo(roots []string, projectRoot string) gitignore.DetectionInfo {
	if projectRoot == "" {
		projectRoot = e.cfg.Project.Root
	}
	if len(roots) == 0 {
		roots = []string{projectRoot}
	}
	return e.detector.GetDetectionInfo(roots, projectRoot)
}

// Languages lists every supported language with its extensions and
// built-in query keys, in stable display order.
func (e *Engine) Languages() []types.LanguageInfo {
	extensions := lang.Extensions()
	infos := make([]types.LanguageInfo, 0, len(extensions))
	for _, l := range types.AllLanguages() {
		infos = append(infos, types.LanguageInfo{
			Name:       l,
			Extensions: extensions[l],
			QueryKeys:  e.queries.Keys(l),
		})
	}
	return infos
}

// InvalidateFile drops every cached result for one file. Used by the
// watcher and exposed for explicit invalidation.
func (e *Engine) InvalidateFile(path string) (int, error) {
	canonical, err := e.guard.Validate(path)
	if err != nil {
		return 0, err
	}
	n := e.results.Invalidate(canonical)
	if n > 0 {
		debug.Log("ENGINE", "invalidated %d cache entries for %s\n", n, canonical)
	}
	return n, nil
}

// Reset clears the result cache and its statistics.
func (e *Engine) Reset() {
	e.results.Reset()
}

// CacheStats returns a snapshot of cache effectiveness counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.results.Stats()
}

// Close releases cache resources. The engine is unusable afterwards.
func (e *Engine) Close() {
	e.results.Close()
}
