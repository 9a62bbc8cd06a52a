package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default limits. These mirror the code defaults in internal/types so the
// config layer stands alone; the validator keeps them in sync.
const (
	DefaultMaxFileSize        = 10 * 1024 * 1024
	DefaultCacheCapacity      = 2048
	DefaultBatchMaxFiles      = 20
	DefaultBatchMaxSections   = 50
	DefaultBatchConcurrency   = 8
	DefaultGitignoreDepth     = 3
	DefaultGitignoreScanDepth = 6
	DefaultWatchDebounceMs    = 300
)

// DefaultEncodingFallback is the regional decode order tried after UTF-8
// (with and without BOM). The order is a heuristic and stays configurable
// via analysis.encoding_fallback.
var DefaultEncodingFallback = []string{
	"shift_jis", "euc-jp", "euc-kr", "gb18030", "big5", "windows-1252", "latin-1",
}

type Config struct {
	Version   int
	Project   Project
	Analysis  Analysis
	Cache     Cache
	Batch     Batch
	Gitignore Gitignore
	Watch     Watch
}

type Project struct {
	Root string // sandbox root; every validated path must resolve inside it
	Name string
}

type Analysis struct {
	MaxFileSize      int64    // files larger than this are refused before parse
	EncodingFallback []string // decoder names tried after UTF-8, in order
	IncludeSource    bool     // echo source in analysis results by default
}

type Cache struct {
	Capacity int // bounded entry count; eviction is allowed, staleness is not
}

type Batch struct {
	MaxFiles           int
	MaxSectionsPerFile int
	MaxConcurrency     int // semaphore cap on concurrent sub-requests
}

type Gitignore struct {
	AncestorDepth   int      // how many parent directories to search for .gitignore
	ScanDepth       int      // recursion bound for the interfering-pattern scan
	ExtraExtensions []string // source extensions beyond the dispatcher table
}

type Watch struct {
	Enabled    bool // cache-eviction watcher; off for one-shot CLI runs
	DebounceMs int
}

// Default returns the built-in configuration rooted at root.
// An empty root falls back to the current working directory.
func Default(root string) *Config {
	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			root = cwd
		} else {
			root = "."
		}
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	concurrency := DefaultBatchConcurrency
	if n := runtime.NumCPU(); n < concurrency {
		concurrency = n
	}

	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Analysis: Analysis{
			MaxFileSize:      DefaultMaxFileSize,
			EncodingFallback: append([]string(nil), DefaultEncodingFallback...),
			IncludeSource:    false,
		},
		Cache: Cache{Capacity: DefaultCacheCapacity},
		Batch: Batch{
			MaxFiles:           DefaultBatchMaxFiles,
			MaxSectionsPerFile: DefaultBatchMaxSections,
			MaxConcurrency:     concurrency,
		},
		Gitignore: Gitignore{
			AncestorDepth: DefaultGitignoreDepth,
			ScanDepth:     DefaultGitignoreScanDepth,
		},
		Watch: Watch{
			Enabled:    false,
			DebounceMs: DefaultWatchDebounceMs,
		},
	}
}

// Load reads configuration for the given project root.
// Precedence, lowest to highest: code defaults, ~/.treescan.kdl,
// <root>/.treescan.kdl. CLI flags override on top of the result.
func Load(rootDir string) (*Config, error) {
	cfg := Default(rootDir)

	if homeDir, err := os.UserHomeDir(); err == nil {
		if err := applyKDLFile(cfg, filepath.Join(homeDir, ".treescan.kdl")); err != nil {
			return nil, err
		}
	}

	if err := applyKDLFile(cfg, filepath.Join(cfg.Project.Root, ".treescan.kdl")); err != nil {
		return nil, err
	}

	// A root set inside a config file is resolved relative to the directory
	// holding that file, which applyKDLFile already handled. Re-absolutize
	// defensively in case of a bare relative override.
	if !filepath.IsAbs(cfg.Project.Root) {
		if abs, err := filepath.Abs(cfg.Project.Root); err == nil {
			cfg.Project.Root = abs
		}
	}

	return cfg, nil
}

// LoadFile reads a single explicit config file over the code defaults.
// Used by the CLI --config flag; no global merge happens in this path.
func LoadFile(path string, rootDir string) (*Config, error) {
	cfg := Default(rootDir)
	if err := applyKDLFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
