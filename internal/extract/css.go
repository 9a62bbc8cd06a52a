package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/lang"
	"github.com/standardbeagle/treescan/internal/types"
)

// cssExtractor walks rule sets and at-rules; nested rules inside media
// queries surface as their own elements.
type cssExtractor struct{}

func newCSSExtractor() (*cssExtractor, error) {
	if _, err := lang.Grammar(types.LangCSS); err != nil {
		return nil, err
	}
	return &cssExtractor{}, nil
}

func (e *cssExtractor) Language() types.Language {
	return types.LangCSS
}

func (e *cssExtractor) ExtractFunctions(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return nil
}

func (e *cssExtractor) ExtractClasses(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return nil
}

func (e *cssExtractor) ExtractVariables(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return nil
}

func (e *cssExtractor) ExtractImports(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	if tree == nil || tree.RootNode() == nil {
		return nil
	}
	var out []types.CodeElement
	walk(tree.RootNode(), func(n *tree_sitter.Node, depth int) bool {
		if n.Kind() != "import_statement" {
			return true
		}
		base := baseFor(n, nil, types.LangCSS, src)
		imp := &types.Import{ElementBase: base}
		if value := firstChildOfKind(n, "string_value"); value != nil {
			imp.Source = stripStringQuotes(nodeText(value, src))
		} else if call := firstChildOfKind(n, "call_expression"); call != nil {
			imp.Source = strings.TrimSpace(nodeText(call, src))
		}
		imp.Name = imp.Source
		out = append(out, imp)
		return false
	})
	return out
}

func (e *cssExtractor) ExtractComments(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return commentsByWalk(tree, src, types.LangCSS)
}

func (e *cssExtractor) ExtractStyles(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	if tree == nil || tree.RootNode() == nil {
		return nil
	}

	var out []types.CodeElement
	walk(tree.RootNode(), func(n *tree_sitter.Node, depth int) bool {
		switch n.Kind() {
		case "rule_set":
			if el := ruleSetElement(n, src); el != nil {
				out = append(out, el)
			}
			return false
		case "media_statement", "supports_statement", "keyframes_statement", "charset_statement":
			base := baseFor(n, nil, types.LangCSS, src)
			base.Name = firstLine(base.RawText)
			out = append(out, &types.StyleElement{ElementBase: base, Selector: base.Name})
			// Descend: nested rule sets are elements of their own.
			return true
		}
		return true
	})
	return out
}

func (e *cssExtractor) ExtractAll(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	out := e.ExtractStyles(tree, src)
	out = append(out, e.ExtractImports(tree, src)...)
	return append(out, e.ExtractComments(tree, src)...)
}

func ruleSetElement(n *tree_sitter.Node, src []byte) types.CodeElement {
	selectors := firstChildOfKind(n, "selectors")
	if selectors == nil {
		return nil
	}
	selector := strings.TrimSpace(nodeText(selectors, src))

	props := map[string]string{}
	if block := firstChildOfKind(n, "block"); block != nil {
		count := block.NamedChildCount()
		for i := uint(0); i < count; i++ {
			decl := block.NamedChild(i)
			if decl == nil || decl.Kind() != "declaration" {
				continue
			}
			name, value := declarationParts(decl, src)
			if name != "" {
				props[name] = value
			}
		}
	}
	if len(props) == 0 {
		props = nil
	}

	base := baseFor(n, nil, types.LangCSS, src)
	base.Name = selector
	return &types.StyleElement{ElementBase: base, Selector: selector, Properties: props}
}

func declarationParts(decl *tree_sitter.Node, src []byte) (string, string) {
	name := ""
	var values []string
	count := decl.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := decl.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Kind() == "property_name" {
			name = nodeText(child, src)
			continue
		}
		if text := strings.TrimSpace(nodeText(child, src)); text != "" {
			values = append(values, text)
		}
	}
	return name, strings.Join(values, " ")
}

var _ StyleExtractor = (*cssExtractor)(nil)
