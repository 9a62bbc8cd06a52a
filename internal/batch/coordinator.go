package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/treescan/internal/debug"
	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/loader"
	"github.com/standardbeagle/treescan/internal/security"
	"github.com/standardbeagle/treescan/internal/types"
)

// DefaultConcurrency caps simultaneous file reads when the caller does
// not configure one.
const DefaultConcurrency = 8

// Coordinator fans a batch of section reads across a bounded worker set.
// Results land in index-addressed slots, so caller order survives any
// completion order.
type Coordinator struct {
	guard       *security.PathGuard
	loader      *loader.FileLoader
	concurrency int64
}

func New(guard *security.PathGuard, fileLoader *loader.FileLoader, concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Coordinator{guard: guard, loader: fileLoader, concurrency: int64(concurrency)}
}

// Execute runs the batch. Limit violations without AllowTruncate are
// validation errors up front; with it, the excess is dropped and the
// result marked Truncated. FailFast cancels in-flight work on the first
// failure and propagates it; otherwise failures collect per item.
func (c *Coordinator) Execute(ctx context.Context, req types.BatchRequest) (*types.BatchResult, error) {
	if len(req.Requests) == 0 {
		return nil, tserrors.NewValidationError("requests", "batch must contain at least one file request")
	}

	maxFiles := req.EffectiveMaxFiles()
	maxSections := req.EffectiveMaxSections()

	requests := req.Requests
	truncated := false
	if len(requests) > maxFiles {
		if !req.AllowTruncate {
			return nil, tserrors.NewValidationError("requests",
				fmt.Sprintf("too many files: %d exceeds the limit of %d", len(requests), maxFiles))
		}
		requests = requests[:maxFiles]
		truncated = true
	}
	if !req.AllowTruncate {
		for _, fr := range requests {
			if len(fr.Sections) > maxSections {
				return nil, tserrors.NewValidationError("sections",
					fmt.Sprintf("too many sections for %s: %d exceeds the limit of %d",
						fr.FilePath, len(fr.Sections), maxSections))
			}
		}
	}
	debug.LogBatch("executing %d files (of %d requested), concurrency %d\n",
		len(requests), len(req.Requests), c.concurrency)

	results := make([]types.FileResult, len(requests))
	sem := semaphore.NewWeighted(c.concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for i, fr := range requests {
		i, fr := i, fr
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			result, err := c.readFile(fr, maxSections, req.AllowTruncate)
			if err != nil {
				if req.FailFast {
					return fmt.Errorf("%s: %w", fr.FilePath, err)
				}
				results[i] = types.FileResult{FilePath: fr.FilePath, Error: err.Error()}
				return nil
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &types.BatchResult{
		Results:        results,
		Success:        true,
		Truncated:      truncated,
		FilesRequested: len(req.Requests),
	}
	for i, r := range results {
		if r.Error != "" {
			out.Success = false
			out.Errors = append(out.Errors, types.BatchItemError{
				Index:    i,
				FilePath: r.FilePath,
				Message:  r.Error,
			})
			continue
		}
		out.FilesProcessed++
		if r.Truncated {
			out.Truncated = true
		}
	}
	return out, nil
}

// readFile validates, loads, and slices every requested section of one
// file. Sandbox and load failures fail the whole file.
func (c *Coordinator) readFile(fr types.FileRequest, maxSections int, allowTruncate bool) (types.FileResult, error) {
	path, err := c.guard.Validate(fr.FilePath)
	if err != nil {
		return types.FileResult{}, err
	}
	content, err := c.loader.Load(path)
	if err != nil {
		return types.FileResult{}, err
	}

	sections := fr.Sections
	if len(sections) == 0 {
		// No explicit sections reads the whole file.
		sections = []types.SectionRequest{{StartLine: 1}}
	}
	result := types.FileResult{FilePath: fr.FilePath}
	if len(sections) > maxSections && allowTruncate {
		sections = sections[:maxSections]
		result.Truncated = true
	}

	for _, sr := range sections {
		section, err := Slice(content, sr)
		if err != nil {
			return types.FileResult{}, err
		}
		section.FilePath = fr.FilePath
		result.Sections = append(result.Sections, section)
	}
	return result, nil
}
