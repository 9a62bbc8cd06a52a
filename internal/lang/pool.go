package lang

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/debug"
	tserrors "github.com/standardbeagle/treescan/internal/errors"
	"github.com/standardbeagle/treescan/internal/types"
)

// parserPools holds one sync.Pool of configured parsers per language.
// A tree-sitter parser is not reentrant, so concurrent parses of the same
// language each check out their own instance.
var parserPools sync.Map // types.Language -> *sync.Pool

func poolFor(lang types.Language) (*sync.Pool, error) {
	if p, ok := parserPools.Load(lang); ok {
		return p.(*sync.Pool), nil
	}
	grammar, err := Grammar(lang)
	if err != nil {
		return nil, err
	}
	pool := &sync.Pool{
		New: func() interface{} {
			parser := tree_sitter.NewParser()
			if err := parser.SetLanguage(grammar); err != nil {
				// Grammar/runtime ABI mismatch; surfaces as a nil parser
				// and a ParseError on use.
				debug.Log("LANG", "SetLanguage failed for %s: %v\n", lang, err)
				return (*tree_sitter.Parser)(nil)
			}
			return parser
		},
	}
	actual, _ := parserPools.LoadOrStore(lang, pool)
	return actual.(*sync.Pool), nil
}

// Parse parses content with the grammar for lang. The content is copied
// before it crosses into the grammar: the CGO layer may retain or scribble
// on the buffer it is handed. Grammar panics are recovered and converted
// to ParseError. A nil tree or nil root is not an error here; extraction
// treats it as an empty file.
//
// The caller owns the returned tree and must Close it.
func Parse(path string, lang types.Language, content []byte) (tree *tree_sitter.Tree, err error) {
	pool, perr := poolFor(lang)
	if perr != nil {
		return nil, tserrors.NewParseError(path, lang.String(), perr)
	}

	parser, _ := pool.Get().(*tree_sitter.Parser)
	if parser == nil {
		return nil, tserrors.NewParseError(path, lang.String(), fmt.Errorf("parser unavailable for %s", lang))
	}
	defer pool.Put(parser)

	buf := make([]byte, len(content))
	copy(buf, content)

	defer func() {
		if r := recover(); r != nil {
			debug.Log("LANG", "grammar panic parsing %s as %s: %v\n", path, lang, r)
			if tree != nil {
				tree.Close()
				tree = nil
			}
			err = tserrors.NewParseError(path, lang.String(), fmt.Errorf("grammar panic: %v", r))
		}
	}()

	tree = parser.Parse(buf, nil)
	return tree, nil
}
