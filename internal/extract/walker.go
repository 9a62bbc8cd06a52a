package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// maxWalkDepth bounds tree traversal. Source deeper than this is almost
// certainly generated or adversarial; nodes below the bound are skipped.
const maxWalkDepth = 512

// walk visits root and its descendants iteratively: explicit stack, a
// visited set keyed on node id, and a depth bound. visit returns false to
// prune the subtree. Tree-sitter trees are acyclic by construction; the
// visited set is a fence against a misbehaving grammar handing back the
// same node twice.
func walk(root *tree_sitter.Node, visit func(n *tree_sitter.Node, depth int) bool) {
	if root == nil {
		return
	}

	type frame struct {
		node  *tree_sitter.Node
		depth int
	}

	visited := make(map[uintptr]struct{})
	stack := []frame{{node: root, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > maxWalkDepth {
			continue
		}
		if _, seen := visited[f.node.Id()]; seen {
			continue
		}
		visited[f.node.Id()] = struct{}{}

		if !visit(f.node, f.depth) {
			continue
		}

		// Push in reverse so children pop in source order.
		count := f.node.ChildCount()
		for i := count; i > 0; i-- {
			child := f.node.Child(i - 1)
			if child != nil {
				stack = append(stack, frame{node: child, depth: f.depth + 1})
			}
		}
	}
}

// collectIdentifiers gathers identifier-like descendant text, used for
// base-class lists where the surrounding clause shape varies by grammar.
func collectIdentifiers(node *tree_sitter.Node, src []byte) []string {
	if node == nil {
		return nil
	}
	var out []string
	walk(node, func(n *tree_sitter.Node, depth int) bool {
		switch n.Kind() {
		case "identifier", "type_identifier", "constant", "name",
			"scoped_type_identifier", "scoped_identifier", "qualified_name",
			"generic_type", "member_expression":
			if text := nodeText(n, src); text != "" {
				out = append(out, text)
			}
			return false
		}
		return true
	})
	return out
}
