package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidationResult carries non-fatal warnings alongside a fatal error.
// Warnings mean the config was adjusted to something usable; an error
// means it cannot be used at all.
type ValidationResult struct {
	Warnings []string
	Err      error
}

func (r *ValidationResult) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks cfg for usability, clamping recoverable values to their
// defaults and reporting each adjustment as a warning.
func Validate(cfg *Config) *ValidationResult {
	r := &ValidationResult{}

	if cfg.Project.Root == "" {
		r.Err = fmt.Errorf("project root must not be empty")
		return r
	}
	if info, err := os.Stat(cfg.Project.Root); err != nil {
		r.Err = fmt.Errorf("project root %q is not accessible: %w", cfg.Project.Root, err)
		return r
	} else if !info.IsDir() {
		r.Err = fmt.Errorf("project root %q is not a directory", cfg.Project.Root)
		return r
	}

	if cfg.Analysis.MaxFileSize <= 0 {
		r.warnf("analysis.max_file_size %d is not positive, using default %d", cfg.Analysis.MaxFileSize, int64(DefaultMaxFileSize))
		cfg.Analysis.MaxFileSize = DefaultMaxFileSize
	}
	if len(cfg.Analysis.EncodingFallback) == 0 {
		r.warnf("analysis.encoding_fallback is empty, using default order")
		cfg.Analysis.EncodingFallback = append([]string(nil), DefaultEncodingFallback...)
	}

	if cfg.Cache.Capacity <= 0 {
		r.warnf("cache.capacity %d is not positive, using default %d", cfg.Cache.Capacity, DefaultCacheCapacity)
		cfg.Cache.Capacity = DefaultCacheCapacity
	}

	if cfg.Batch.MaxFiles <= 0 {
		r.warnf("batch.max_files %d is not positive, using default %d", cfg.Batch.MaxFiles, DefaultBatchMaxFiles)
		cfg.Batch.MaxFiles = DefaultBatchMaxFiles
	}
	if cfg.Batch.MaxSectionsPerFile <= 0 {
		r.warnf("batch.max_sections_per_file %d is not positive, using default %d", cfg.Batch.MaxSectionsPerFile, DefaultBatchMaxSections)
		cfg.Batch.MaxSectionsPerFile = DefaultBatchMaxSections
	}
	if cfg.Batch.MaxConcurrency <= 0 {
		r.warnf("batch.max_concurrency %d is not positive, using default %d", cfg.Batch.MaxConcurrency, DefaultBatchConcurrency)
		cfg.Batch.MaxConcurrency = DefaultBatchConcurrency
	}

	if cfg.Gitignore.AncestorDepth < 0 {
		r.warnf("gitignore.ancestor_depth %d is negative, using default %d", cfg.Gitignore.AncestorDepth, DefaultGitignoreDepth)
		cfg.Gitignore.AncestorDepth = DefaultGitignoreDepth
	}
	if cfg.Gitignore.ScanDepth <= 0 {
		r.warnf("gitignore.scan_depth %d is not positive, using default %d", cfg.Gitignore.ScanDepth, DefaultGitignoreScanDepth)
		cfg.Gitignore.ScanDepth = DefaultGitignoreScanDepth
	}
	for i, ext := range cfg.Gitignore.ExtraExtensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			cfg.Gitignore.ExtraExtensions[i] = "." + ext
		}
	}

	if cfg.Watch.DebounceMs <= 0 {
		r.warnf("watch.debounce_ms %d is not positive, using default %d", cfg.Watch.DebounceMs, DefaultWatchDebounceMs)
		cfg.Watch.DebounceMs = DefaultWatchDebounceMs
	}

	return r
}
