package security

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
)

func newGuard(t *testing.T) (*PathGuard, string) {
	t.Helper()
	root := t.TempDir()
	g, err := New(root)
	require.NoError(t, err)
	return g, g.Root()
}

func TestValidateInsideRoot(t *testing.T) {
	g, root := newGuard(t)
	inside := filepath.Join(root, "src", "main.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(inside), 0755))
	require.NoError(t, os.WriteFile(inside, []byte("package main"), 0644))

	got, err := g.Validate(inside)
	require.NoError(t, err)
	assert.Equal(t, inside, got)
}

func TestValidateRelativeResolvedAgainstRoot(t *testing.T) {
	g, root := newGuard(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1"), 0644))

	got, err := g.Validate("a.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.py"), got)
}

func TestValidateTraversalEscape(t *testing.T) {
	g, root := newGuard(t)

	for _, path := range []string{
		filepath.Join(root, "..", "outside.go"),
		"../outside.go",
		"/etc/passwd",
	} {
		_, err := g.Validate(path)
		require.Error(t, err, path)
		assert.True(t, tserrors.IsSecurity(err), path)
		assert.Contains(t, err.Error(), "security", path)
		assert.Contains(t, err.Error(), "path", path)
	}
}

func TestValidateSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	g, root := newGuard(t)
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(target, []byte("s"), 0644))
	link := filepath.Join(root, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	_, err := g.Validate(link)
	require.Error(t, err)
	assert.True(t, tserrors.IsSecurity(err))
}

func TestValidateDanglingLeafInsideRoot(t *testing.T) {
	g, root := newGuard(t)

	// Output files do not exist yet; the deepest existing ancestor anchors
	// the containment check.
	got, err := g.Validate(filepath.Join(root, "out", "results.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, root))
}

func TestValidateDanglingLeafOutsideRoot(t *testing.T) {
	g, _ := newGuard(t)
	_, err := g.Validate(filepath.Join(os.TempDir(), "nope-treescan", "results.json"))
	require.Error(t, err)
	assert.True(t, tserrors.IsSecurity(err))
}

func TestValidateEmptyPath(t *testing.T) {
	g, _ := newGuard(t)
	_, err := g.Validate("")
	require.Error(t, err)
	assert.True(t, tserrors.IsSecurity(err))
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
