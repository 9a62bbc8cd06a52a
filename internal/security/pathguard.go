// Package security enforces the path sandbox. Every path accepted from a
// request passes through PathGuard before any file I/O happens.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
)

// PathGuard validates request paths against a sandbox root fixed at
// construction. Validation canonicalizes first (absolute path, symlinks
// resolved) so neither ".." traversal nor a symlink pointing outside the
// root can escape.
type PathGuard struct {
	root string // canonical sandbox root
}

// New creates a PathGuard rooted at root. The root itself must exist.
func New(root string) (*PathGuard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve sandbox root %q: %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve sandbox root %q: %w", root, err)
	}
	return &PathGuard{root: canonical}, nil
}

// Root returns the canonical sandbox root.
func (g *PathGuard) Root() string {
	return g.root
}

// Validate canonicalizes path and verifies it stays inside the sandbox
// root. Relative paths are resolved against the root. The returned path
// is the canonical form callers should use for file I/O and cache keys.
// Violations come back as *errors.SecurityError.
func (g *PathGuard) Validate(path string) (string, error) {
	if path == "" {
		return "", tserrors.NewSecurityError(path, g.root, "empty path")
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(g.root, abs)
	}
	abs = filepath.Clean(abs)

	canonical, err := canonicalize(abs)
	if err != nil {
		return "", tserrors.NewSecurityError(path, g.root, fmt.Sprintf("cannot resolve: %v", err))
	}

	rel, err := filepath.Rel(g.root, canonical)
	if err != nil {
		return "", tserrors.NewSecurityError(path, g.root, fmt.Sprintf("cannot relate to root: %v", err))
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", tserrors.NewSecurityError(path, g.root, "escapes the sandbox root")
	}

	return canonical, nil
}

// canonicalize resolves symlinks in abs. When the leaf does not exist yet
// (output files, dangling paths) the deepest existing ancestor is resolved
// and the missing suffix re-attached, so a dangling path still cannot
// point outside the root through a symlinked parent.
func canonicalize(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	dir := abs
	var suffix []string
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing ancestor for %q", abs)
		}
		suffix = append([]string{filepath.Base(dir)}, suffix...)
		dir = parent

		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(append([]string{resolved}, suffix...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
}
