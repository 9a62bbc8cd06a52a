// Package loader reads source files into UTF-8 strings, trying a
// configurable list of legacy encodings when a file is not valid UTF-8.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/standardbeagle/treescan/internal/debug"
	tserrors "github.com/standardbeagle/treescan/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decoders maps config encoding names to x/text decoders. Aliases cover
// the spellings that show up in editor metadata and HTTP charsets.
var decoders = map[string]encoding.Encoding{
	"shift_jis":    japanese.ShiftJIS,
	"shift-jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"euc_jp":       japanese.EUCJP,
	"euc-kr":       korean.EUCKR,
	"euc_kr":       korean.EUCKR,
	"gb18030":      simplifiedchinese.GB18030,
	"gbk":          simplifiedchinese.GBK,
	"big5":         traditionalchinese.Big5,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"latin-1":      charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
}

// FileLoader reads files under a size limit, decoding non-UTF-8 content
// through an ordered fallback list. It holds no per-file state and is
// safe for concurrent use.
type FileLoader struct {
	maxFileSize int64
	fallback    []string
}

// New creates a FileLoader. fallback names unknown to the decoder table
// are skipped at decode time with a debug log, not rejected here.
func New(maxFileSize int64, fallback []string) *FileLoader {
	return &FileLoader{maxFileSize: maxFileSize, fallback: fallback}
}

// Exists reports whether path names an existing regular file.
func (l *FileLoader) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Size returns the file size, with the same not-found semantics as Load.
func (l *FileLoader) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, tserrors.NewFileNotFound(path, err)
		}
		return 0, tserrors.NewNotAFile(path, err)
	}
	if !info.Mode().IsRegular() {
		return 0, tserrors.NewNotAFile(path, fmt.Errorf("not a regular file"))
	}
	return info.Size(), nil
}

// KnownEncodings lists every accepted encoding name, sorted.
func KnownEncodings() []string {
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads the file at path and returns its content as UTF-8.
// Decode order: UTF-8 with BOM (stripped), plain UTF-8, then each
// configured fallback encoding. The first decoder producing clean output
// wins; if all fail, a DecodeFailure carries the last underlying error.
func (l *FileLoader) Load(path string) (string, error) {
	data, err := l.read(path)
	if err != nil {
		return "", err
	}
	return l.decode(path, data)
}

// LoadWithEncoding reads the file and decodes it with the single named
// encoding, bypassing UTF-8 detection and the fallback list. An unknown
// name is a validation error listing the accepted encodings.
func (l *FileLoader) LoadWithEncoding(path, name string) (string, error) {
	enc, ok := decoders[strings.ToLower(name)]
	if !ok {
		return "", tserrors.NewValidationError("encoding",
			fmt.Sprintf("unknown encoding %q", name)).WithAllowed(KnownEncodings()...)
	}
	data, err := l.read(path)
	if err != nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", tserrors.NewDecodeFailure(path, fmt.Errorf("%s: %w", name, err))
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", tserrors.NewDecodeFailure(path, fmt.Errorf("%s: invalid byte sequence", name))
	}
	return string(decoded), nil
}

func (l *FileLoader) read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tserrors.NewFileNotFound(path, err)
		}
		return nil, tserrors.NewNotAFile(path, err)
	}
	if info.IsDir() {
		return nil, tserrors.NewNotAFile(path, fmt.Errorf("is a directory"))
	}
	if !info.Mode().IsRegular() {
		return nil, tserrors.NewNotAFile(path, fmt.Errorf("not a regular file"))
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return nil, tserrors.NewNotAFile(path, fmt.Errorf("file size %d exceeds limit %d", info.Size(), l.maxFileSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tserrors.NewFileNotFound(path, err)
		}
		return nil, tserrors.NewNotAFile(path, err)
	}
	return data, nil
}

func (l *FileLoader) decode(path string, data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		stripped := data[len(utf8BOM):]
		if utf8.Valid(stripped) {
			return string(stripped), nil
		}
		// BOM on non-UTF-8 content; fall through to the fallback list.
		data = stripped
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	var lastErr error
	for _, name := range l.fallback {
		enc, ok := decoders[strings.ToLower(name)]
		if !ok {
			debug.Log("LOADER", "unknown encoding %q in fallback list, skipping\n", name)
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", name, err)
			continue
		}
		// x/text decoders substitute U+FFFD instead of erroring on most
		// invalid input; treat substitution as a failed attempt so a later
		// encoding gets its chance.
		if bytes.ContainsRune(decoded, utf8.RuneError) {
			lastErr = fmt.Errorf("%s: invalid byte sequence", name)
			continue
		}
		debug.Log("LOADER", "decoded %s as %s\n", path, name)
		return string(decoded), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no usable encoding in fallback list %v", l.fallback)
	}
	return "", tserrors.NewDecodeFailure(path, lastErr)
}
