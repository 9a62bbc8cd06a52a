package gitignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherPatterns(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		path    string
		isDir   bool
		ignored bool
	}{
		{"exact file", []string{"secret.txt"}, "secret.txt", false, true},
		{"exact nested", []string{"secret.txt"}, "a/b/secret.txt", false, true},
		{"suffix glob", []string{"*.log"}, "build/out.log", false, true},
		{"suffix glob miss", []string{"*.log"}, "build/out.txt", false, false},
		{"directory only dir", []string{"build/"}, "build", true, true},
		{"directory only file inside", []string{"build/"}, "build/main.o", false, true},
		{"directory only plain file", []string{"build"}, "build", false, true},
		{"anchored", []string{"/top.txt"}, "top.txt", false, true},
		{"anchored not nested", []string{"/top.txt"}, "sub/top.txt", false, false},
		{"negation", []string{"*.log", "!keep.log"}, "keep.log", false, false},
		{"negation order", []string{"!keep.log", "*.log"}, "keep.log", false, true},
		{"double star", []string{"docs/**/*.md"}, "docs/a/b/guide.md", false, true},
		{"double star zero dirs", []string{"docs/**/*.md"}, "docs/guide.md", false, true},
		{"middle slash anchors", []string{"src/gen"}, "other/src/gen", false, false},
		{"question mark", []string{"file?.txt"}, "file1.txt", false, true},
		{"char class", []string{"file[0-9].txt"}, "file7.txt", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher()
			for _, line := range tt.lines {
				m.Add(line)
			}
			assert.Equal(t, tt.ignored, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcherLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("# build output\n\n*.log\nnode_modules/\n"), 0o644))

	m := NewMatcher()
	require.NoError(t, m.LoadFile(path))
	assert.Len(t, m.Patterns(), 2)
	assert.True(t, m.Match("x.log", false))
	assert.True(t, m.Match("node_modules/react/index.js", false))
}

func TestMatcherLoadMissingFile(t *testing.T) {
	m := NewMatcher()
	require.NoError(t, m.LoadFile(filepath.Join(t.TempDir(), ".gitignore")))
	assert.Empty(t, m.Patterns())
}

func setupProject(t *testing.T, gitignore string, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if gitignore != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(gitignore), 0o644))
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestDetectorBypassWhenSourceDirIgnored(t *testing.T) {
	root := setupProject(t, "src/\n", map[string]string{
		"src/app.py":  "print('hi')\n",
		"src/util.py": "pass\n",
	})

	d := NewDetector(root, 3, 6, nil)
	info := d.GetDetectionInfo([]string{root}, root)
	assert.True(t, info.ShouldUseNoIgnore)
	assert.Contains(t, info.InterferingPatterns, "src")
	require.Len(t, info.DetectedGitignoreFiles, 1)
}

func TestDetectorNoBypassForLogPattern(t *testing.T) {
	root := setupProject(t, "*.log\n", map[string]string{
		"src/app.py": "print('hi')\n",
	})

	d := NewDetector(root, 3, 6, nil)
	info := d.GetDetectionInfo([]string{root}, root)
	assert.False(t, info.ShouldUseNoIgnore)
	assert.Empty(t, info.InterferingPatterns)
	assert.NotEmpty(t, info.Reason)
}

func TestDetectorIgnoredDirWithoutSource(t *testing.T) {
	root := setupProject(t, "assets/\n", map[string]string{
		"assets/logo.png": "\x89PNG",
	})

	d := NewDetector(root, 3, 6, nil)
	info := d.GetDetectionInfo([]string{root}, root)
	assert.False(t, info.ShouldUseNoIgnore)
}

func TestDetectorMultipleRootsNotApplicable(t *testing.T) {
	root := setupProject(t, "src/\n", map[string]string{"src/app.py": "pass\n"})

	d := NewDetector(root, 3, 6, nil)
	info := d.GetDetectionInfo([]string{root, root}, root)
	assert.False(t, info.ShouldUseNoIgnore)
	assert.Contains(t, info.Reason, "single root")
}

func TestDetectorRootMismatchNotApplicable(t *testing.T) {
	root := setupProject(t, "src/\n", map[string]string{"src/app.py": "pass\n"})

	d := NewDetector(root, 3, 6, nil)
	info := d.GetDetectionInfo([]string{filepath.Join(root, "src")}, root)
	assert.False(t, info.ShouldUseNoIgnore)
}

func TestDetectorScanDepthBounds(t *testing.T) {
	root := setupProject(t, "deep/\n", map[string]string{
		"deep/a/b/c/d/e/f/g/app.py": "pass\n",
	})

	// Scan depth 2 never reaches the source file seven levels down.
	d := NewDetector(root, 3, 2, nil)
	info := d.GetDetectionInfo([]string{root}, root)
	assert.False(t, info.ShouldUseNoIgnore)

	deep := NewDetector(root, 3, 10, nil)
	info = deep.GetDetectionInfo([]string{root}, root)
	assert.True(t, info.ShouldUseNoIgnore)
}

func TestDetectorExtraExtensions(t *testing.T) {
	root := setupProject(t, "proto/\n", map[string]string{
		"proto/api.proto": "syntax = \"proto3\";\n",
	})

	plain := NewDetector(root, 3, 6, nil)
	assert.False(t, plain.GetDetectionInfo([]string{root}, root).ShouldUseNoIgnore)

	widened := NewDetector(root, 3, 6, []string{"proto"})
	assert.True(t, widened.GetDetectionInfo([]string{root}, root).ShouldUseNoIgnore)
}

func TestProbeManifests(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"),
		[]byte("[package]\nname = \"demo\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"),
		[]byte(`{"devDependencies":{"typescript":"^5.0.0"}}`), 0o644))

	exts := probeManifests(root)
	assert.Contains(t, exts, ".rs")
	assert.Contains(t, exts, ".js")
	assert.Contains(t, exts, ".ts")
	assert.NotContains(t, exts, ".py")
}

func TestProbeManifestsMalformedToml(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cargo.toml"),
		[]byte("not [valid toml\n"), 0o644))

	assert.NotContains(t, probeManifests(root), ".rs")
}
