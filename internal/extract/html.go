package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/treescan/internal/lang"
	"github.com/standardbeagle/treescan/internal/types"
)

// htmlExtractor walks the document tree directly: markup structure is
// positional and nested, which suits the iterative walker better than a
// flat capture query.
type htmlExtractor struct{}

func newHTMLExtractor() (*htmlExtractor, error) {
	if _, err := lang.Grammar(types.LangHTML); err != nil {
		return nil, err
	}
	return &htmlExtractor{}, nil
}

func (e *htmlExtractor) Language() types.Language {
	return types.LangHTML
}

func (e *htmlExtractor) ExtractFunctions(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return nil
}

func (e *htmlExtractor) ExtractClasses(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return nil
}

func (e *htmlExtractor) ExtractVariables(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return nil
}

func (e *htmlExtractor) ExtractImports(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return nil
}

func (e *htmlExtractor) ExtractComments(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return commentsByWalk(tree, src, types.LangHTML)
}

func (e *htmlExtractor) ExtractMarkup(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	if tree == nil || tree.RootNode() == nil {
		return nil
	}

	var out []types.CodeElement
	walk(tree.RootNode(), func(n *tree_sitter.Node, depth int) bool {
		switch n.Kind() {
		case "element", "script_element", "style_element":
			if el := markupFromNode(n, src); el != nil {
				out = append(out, el)
			}
		}
		return true
	})
	return out
}

func (e *htmlExtractor) ExtractAll(tree *tree_sitter.Tree, src []byte) []types.CodeElement {
	return append(e.ExtractMarkup(tree, src), e.ExtractComments(tree, src)...)
}

func markupFromNode(n *tree_sitter.Node, src []byte) types.CodeElement {
	var openTag *tree_sitter.Node
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if k := child.Kind(); k == "start_tag" || k == "self_closing_tag" {
			openTag = child
			break
		}
	}
	if openTag == nil {
		return nil
	}

	tag := ""
	attrs := map[string]string{}
	tagChildren := openTag.NamedChildCount()
	for i := uint(0); i < tagChildren; i++ {
		child := openTag.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "tag_name":
			tag = nodeText(child, src)
		case "attribute":
			name, value := attributeParts(child, src)
			if name != "" {
				attrs[name] = value
			}
		}
	}
	if tag == "" {
		return nil
	}
	if len(attrs) == 0 {
		attrs = nil
	}

	base := baseFor(n, nil, types.LangHTML, src)
	base.Name = tag
	return &types.MarkupElement{ElementBase: base, Tag: tag, Attributes: attrs}
}

func attributeParts(attr *tree_sitter.Node, src []byte) (string, string) {
	name, value := "", ""
	count := attr.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := attr.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "attribute_name":
			name = nodeText(child, src)
		case "attribute_value":
			value = nodeText(child, src)
		case "quoted_attribute_value":
			value = stripStringQuotes(nodeText(child, src))
		}
	}
	return name, value
}

// commentsByWalk collects comment nodes without a query; shared by the
// walker-based extractors.
func commentsByWalk(tree *tree_sitter.Tree, src []byte, language types.Language) []types.CodeElement {
	if tree == nil || tree.RootNode() == nil {
		return nil
	}
	var out []types.CodeElement
	walk(tree.RootNode(), func(n *tree_sitter.Node, depth int) bool {
		if n.Kind() == "comment" {
			base := baseFor(n, nil, language, src)
			out = append(out, &types.Comment{ElementBase: base})
			return false
		}
		return true
	})
	return out
}

var _ MarkupExtractor = (*htmlExtractor)(nil)
