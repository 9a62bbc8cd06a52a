package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// applyKDLFile overlays the settings in a .treescan.kdl file onto cfg.
// A missing file is not an error; a malformed one is.
func applyKDLFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := applyKDL(cfg, string(content)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	// A relative root in a config file is relative to that file's directory.
	if cfg.Project.Root != "" && !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(filepath.Dir(path), cfg.Project.Root))
	}
	return nil
}

func applyKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "analysis":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.MaxFileSize = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Analysis.MaxFileSize = sz
						}
					}
				case "encoding_fallback":
					if names := collectStringArgs(cn); len(names) > 0 {
						cfg.Analysis.EncodingFallback = names
					}
				case "include_source":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Analysis.IncludeSource = b
					}
				}
			}
		case "cache":
			for _, cn := range n.Children {
				if nodeName(cn) == "capacity" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.Capacity = v
					}
				}
			}
		case "batch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_files":
					if v, ok := firstIntArg(cn); ok {
						cfg.Batch.MaxFiles = v
					}
				case "max_sections_per_file":
					if v, ok := firstIntArg(cn); ok {
						cfg.Batch.MaxSectionsPerFile = v
					}
				case "max_concurrency":
					if v, ok := firstIntArg(cn); ok {
						cfg.Batch.MaxConcurrency = v
					}
				}
			}
		case "gitignore":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "ancestor_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Gitignore.AncestorDepth = v
					}
				case "scan_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Gitignore.ScanDepth = v
					}
				case "extra_extensions":
					cfg.Gitignore.ExtraExtensions = append(cfg.Gitignore.ExtraExtensions, collectStringArgs(cn)...)
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		}
	}

	return nil
}

// Helper functions leveraging the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format: each string is a child node whose name is the value,
	// e.g. encoding_fallback { "shift_jis"; "latin-1" }.
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}

// SampleKDL returns a commented starter config for `treescan config init`.
func SampleKDL() string {
	return `// treescan configuration
// Project-local file: .treescan.kdl (this file)
// Global defaults:    ~/.treescan.kdl

project {
    // Sandbox root. Every analyzed path must resolve inside it.
    root "."
}

analysis {
    // Files larger than this are refused before parsing.
    max_file_size "10MB"
    // Decoders tried, in order, when a file is not valid UTF-8.
    encoding_fallback "shift_jis" "euc-jp" "euc-kr" "gb18030" "big5" "windows-1252" "latin-1"
    // Echo file source in analysis results.
    include_source false
}

cache {
    // Bounded entry count for the in-memory result cache.
    capacity 2048
}

batch {
    max_files 20
    max_sections_per_file 50
    max_concurrency 8
}

gitignore {
    // Parent directories searched for .gitignore files.
    ancestor_depth 3
    // Recursion bound when checking whether an ignore pattern covers source files.
    scan_depth 6
    // Source extensions beyond the built-in language table, e.g. ".proto".
    // extra_extensions ".proto"
}

watch {
    // Evict cached results when files change (on by default under mcp).
    enabled false
    debounce_ms 300
}
`
}
