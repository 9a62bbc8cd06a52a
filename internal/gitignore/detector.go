package gitignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/treescan/internal/debug"
	"github.com/standardbeagle/treescan/internal/lang"
)

// DetectionInfo is the detector's verdict for one tool invocation.
type DetectionInfo struct {
	ShouldUseNoIgnore      bool     `json:"should_use_no_ignore"`
	Reason                 string   `json:"reason"`
	DetectedGitignoreFiles []string `json:"detected_gitignore_files,omitempty"`
	InterferingPatterns    []string `json:"interfering_patterns,omitempty"`
}

// Detector decides whether gitignore rules would hide source files the
// caller explicitly asked to see. It is read-only and deterministic:
// same tree, same answer.
type Detector struct {
	ancestorDepth int
	scanDepth     int
	extensions    map[string]bool
}

// NewDetector builds a detector. The recognized-source set is the
// dispatcher's extension table, widened by the project's manifests and
// any configured extras.
func NewDetector(projectRoot string, ancestorDepth, scanDepth int, extraExtensions []string) *Detector {
	exts := make(map[string]bool)
	for _, ext := range lang.SourceExtensions() {
		exts[ext] = true
	}
	for _, ext := range probeManifests(projectRoot) {
		exts[ext] = true
	}
	for _, ext := range extraExtensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[strings.ToLower(ext)] = true
	}
	return &Detector{
		ancestorDepth: ancestorDepth,
		scanDepth:     scanDepth,
		extensions:    exts,
	}
}

// GetDetectionInfo reports whether ignore rules interfere with scanning
// the requested roots. Detection only applies when exactly one root is
// requested and it is the project root itself; anything else keeps
// normal ignore semantics.
func (d *Detector) GetDetectionInfo(roots []string, projectRoot string) DetectionInfo {
	if len(roots) != 1 {
		return DetectionInfo{
			Reason: fmt.Sprintf("detection applies to a single root, got %d", len(roots)),
		}
	}
	root := filepath.Clean(roots[0])
	project := filepath.Clean(projectRoot)
	if root != project {
		return DetectionInfo{
			Reason: "requested root is not the project root",
		}
	}

	info := DetectionInfo{}
	for _, path := range d.gitignorePaths(project) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		matcher := NewMatcher()
		if err := matcher.LoadFile(path); err != nil {
			debug.Log("gitignore", "unreadable %s: %v\n", path, err)
			continue
		}
		info.DetectedGitignoreFiles = append(info.DetectedGitignoreFiles, path)
		for _, p := range matcher.Patterns() {
			if p.Negate {
				continue
			}
			if d.interferes(project, p.Raw) {
				info.InterferingPatterns = append(info.InterferingPatterns, p.Raw)
			}
		}
	}

	if len(info.InterferingPatterns) > 0 {
		info.ShouldUseNoIgnore = true
		info.Reason = fmt.Sprintf("%d ignore patterns hide source directories", len(info.InterferingPatterns))
	} else {
		info.Reason = "no ignore patterns hide source files"
	}
	return info
}

// gitignorePaths lists the project .gitignore plus ancestors up to the
// configured depth.
func (d *Detector) gitignorePaths(project string) []string {
	paths := []string{filepath.Join(project, ".gitignore")}
	dir := project
	for i := 0; i < d.ancestorDepth; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
		paths = append(paths, filepath.Join(dir, ".gitignore"))
	}
	return paths
}

// interferes reports whether the pattern names an existing directory
// under the project that still holds recognizable source files.
func (d *Detector) interferes(project, pattern string) bool {
	name := strings.TrimSuffix(pattern, "/*")
	name = strings.TrimSuffix(name, "/")
	name = strings.TrimPrefix(name, "/")
	if name == "" || strings.ContainsAny(name, "*?[") {
		return false
	}

	dir := filepath.Join(project, filepath.FromSlash(name))
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return false
	}

	found, err := d.containsSource(dir)
	if err != nil {
		// Unreadable trees are treated as interfering; hiding source is
		// worse than a spurious bypass.
		return true
	}
	return found
}

// containsSource runs a bounded, iterative scan for files with a
// recognized source extension.
func (d *Detector) containsSource(root string) (bool, error) {
	type frame struct {
		dir   string
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(f.dir)
		if err != nil {
			return false, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				if f.depth+1 <= d.scanDepth {
					stack = append(stack, frame{filepath.Join(f.dir, entry.Name()), f.depth + 1})
				}
				continue
			}
			if d.extensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				return true, nil
			}
		}
	}
	return false, nil
}
