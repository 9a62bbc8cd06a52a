package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/standardbeagle/treescan/internal/errors"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func defaultFallback() []string {
	return []string{"shift_jis", "euc-jp", "euc-kr", "gb18030", "big5", "windows-1252", "latin-1"}
}

func TestLoadUTF8(t *testing.T) {
	l := New(0, defaultFallback())
	path := writeTemp(t, "a.go", []byte("package main\n"))

	content, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)
}

func TestLoadUTF8BOMStripped(t *testing.T) {
	l := New(0, defaultFallback())
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("x = 1\n")...)
	path := writeTemp(t, "a.py", data)

	content, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", content)
}

func TestLoadShiftJISFallback(t *testing.T) {
	l := New(0, defaultFallback())
	// "こんにちは" in Shift_JIS.
	sjis := []byte{0x82, 0xB1, 0x82, 0xF1, 0x82, 0xC9, 0x82, 0xBF, 0x82, 0xCD}
	path := writeTemp(t, "a.txt", append([]byte("# "), sjis...))

	content, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "# こんにちは", content)
}

func TestLoadLatin1Fallback(t *testing.T) {
	l := New(0, []string{"latin-1"})
	// 0xE9 is é in ISO 8859-1 and invalid standalone UTF-8.
	path := writeTemp(t, "a.txt", []byte{'c', 'a', 'f', 0xE9})

	content, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "café", content)
}

func TestLoadDecodeFailure(t *testing.T) {
	// No fallback configured: invalid UTF-8 cannot be decoded at all.
	l := New(0, nil)
	path := writeTemp(t, "a.txt", []byte{0xFF, 0xFE, 0xFD})

	_, err := l.Load(path)
	require.Error(t, err)
	assert.Equal(t, tserrors.ErrorTypeDecodeFailure, tserrors.TypeOf(err))
}

func TestLoadNotFound(t *testing.T) {
	l := New(0, defaultFallback())
	_, err := l.Load(filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)
	assert.True(t, tserrors.IsNotFound(err))
}

func TestLoadDirectory(t *testing.T) {
	l := New(0, defaultFallback())
	_, err := l.Load(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, tserrors.ErrorTypeNotAFile, tserrors.TypeOf(err))
}

func TestLoadOversize(t *testing.T) {
	l := New(4, defaultFallback())
	path := writeTemp(t, "big.go", []byte("package main\n"))

	_, err := l.Load(path)
	require.Error(t, err)
	assert.Equal(t, tserrors.ErrorTypeNotAFile, tserrors.TypeOf(err))
}

func TestExistsAndSize(t *testing.T) {
	l := New(0, defaultFallback())
	path := writeTemp(t, "a.go", []byte("hi"))

	assert.True(t, l.Exists(path))
	assert.False(t, l.Exists(path+".nope"))

	size, err := l.Size(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	_, err = l.Size(path + ".nope")
	assert.True(t, tserrors.IsNotFound(err))
}

func TestLoadWithEncoding(t *testing.T) {
	l := New(0, nil)
	path := writeTemp(t, "latin.txt", []byte{'c', 'a', 'f', 0xE9})

	content, err := l.LoadWithEncoding(path, "latin-1")
	require.NoError(t, err)
	assert.Equal(t, "café", content)
}

func TestLoadWithUnknownEncoding(t *testing.T) {
	l := New(0, nil)
	path := writeTemp(t, "a.txt", []byte("hello"))

	_, err := l.LoadWithEncoding(path, "klingon")
	require.Error(t, err)
	assert.True(t, tserrors.IsValidation(err))
	assert.Contains(t, err.Error(), "latin-1")
}

func TestKnownEncodings(t *testing.T) {
	names := KnownEncodings()
	assert.Contains(t, names, "shift_jis")
	assert.Contains(t, names, "latin-1")
	assert.IsIncreasing(t, names)
}
