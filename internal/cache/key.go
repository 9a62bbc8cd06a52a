package cache

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/treescan/internal/extract"
	"github.com/standardbeagle/treescan/internal/types"
)

var keySep = []byte{0}

// Key derives the cache identity for one analysis: the canonical file
// path, the exact decoded content, the resolved language, the extraction
// schema revision, and any option fingerprint that changes output. Any
// difference in these produces a different key, so stale entries become
// unreachable rather than needing invalidation.
func Key(canonicalPath string, content []byte, language types.Language, fingerprint string) string {
	d := xxhash.New()
	_, _ = d.WriteString(canonicalPath)
	_, _ = d.Write(keySep)
	_, _ = d.Write(content)
	_, _ = d.Write(keySep)
	_, _ = d.WriteString(string(language))
	_, _ = d.Write(keySep)
	_, _ = d.WriteString(extract.SchemaVersion)
	if fingerprint != "" {
		_, _ = d.Write(keySep)
		_, _ = d.WriteString(fingerprint)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
