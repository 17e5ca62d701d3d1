package query

import (
	"strings"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/tree"
)

// Select evaluates a query against a document. It is a shortcut for
// compiling the query and calling Select on the result.
func Select(root *dom.Element, expr string) ([]*dom.Element, error) {
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return e.Select(root)
}

// Select evaluates the expression against a document. Relative paths use
// the root element as context. Matches are returned in document order.
func (e *Expression) Select(root *dom.Element) ([]*dom.Element, error) {
	if root == nil {
		return nil, nil
	}
	var nodes []*tree.Node[*dom.Element]
	for _, path := range e.Paths {
		for _, m := range evalPath(root, path) {
			nodes = append(nodes, m.TreeNode())
		}
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	sorted, err := tree.NewSelectionWalker(nodes).InDocumentOrder().Promise()()
	if err != nil {
		return nil, err
	}
	matches := make([]*dom.Element, len(sorted))
	for i, n := range sorted {
		matches[i] = dom.ElementOf(n)
	}
	tracer().Debugf("query %q selected %d element(s)", e.source, len(matches))
	return matches, nil
}

// nodeSet is a set of nodes, where nil represents the document node, i.e.
// the (virtual) parent of the root element.
type nodeSet []*dom.Element

func evalPath(root *dom.Element, path Path) []*dom.Element {
	ctx := nodeSet{root}
	if path.Absolute {
		ctx = nodeSet{nil}
	}
	for _, step := range path.Steps {
		next := nodeSet{}
		seen := make(map[*dom.Element]bool)
		for _, c := range ctx {
			for _, n := range evalStep(root, c, step) {
				if !seen[n] {
					seen[n] = true
					next = append(next, n)
				}
			}
		}
		ctx = next
		if len(ctx) == 0 {
			break
		}
	}
	var result []*dom.Element
	for _, n := range ctx {
		if n != nil {
			result = append(result, n)
		} else if len(path.Steps) == 0 {
			result = append(result, root) // "/"
		}
	}
	return result
}

func evalStep(root, c *dom.Element, step Step) nodeSet {
	var candidates nodeSet
	switch step.Axis {
	case AxisSelf:
		candidates = nodeSet{c}
	case AxisParent:
		if c == root {
			candidates = nodeSet{nil}
		} else if c != nil {
			parents, _ := tree.NewWalker(c.TreeNode()).Parent().Promise()()
			candidates = elements(parents)
		}
	case AxisDescendantOrSelf:
		candidates = nodeSet{c}
		start := c
		if c == nil {
			candidates = append(candidates, root)
			start = root
		}
		all, _ := tree.NewWalker(start.TreeNode()).AllDescendents().Promise()()
		return append(candidates, elements(all)...) // node() test, no predicates
	case AxisChild:
		if c == nil {
			if matchesTest(root, step.Test) {
				candidates = nodeSet{root}
			}
		} else {
			children, _ := tree.NewWalker(c.TreeNode()).ChildrenWith(testPredicate(step.Test)).Promise()()
			candidates = elements(children)
		}
	}
	if step.Axis != AxisChild {
		candidates = filterByTest(candidates, step.Test)
	}
	for _, pred := range step.Predicates {
		candidates = applyPredicate(candidates, pred)
	}
	return candidates
}

func elements(nodes []*tree.Node[*dom.Element]) nodeSet {
	r := make(nodeSet, len(nodes))
	for i, n := range nodes {
		r[i] = dom.ElementOf(n)
	}
	return r
}

// filterByTest keeps the candidates passing a node test. The document node
// passes every test.
func filterByTest(candidates nodeSet, test NodeTest) nodeSet {
	var filtered nodeSet
	var nodes []*tree.Node[*dom.Element]
	for _, n := range candidates {
		if n == nil {
			filtered = append(filtered, nil)
		} else {
			nodes = append(nodes, n.TreeNode())
		}
	}
	matched, _ := tree.NewSelectionWalker(nodes).Filter(testPredicate(test)).Promise()()
	return append(filtered, elements(matched)...)
}

func matchesTest(e *dom.Element, test NodeTest) bool {
	return test.Any || e.Tag() == test.Local
}

func testPredicate(test NodeTest) tree.Predicate[*dom.Element] {
	return func(n, _ *tree.Node[*dom.Element]) (*tree.Node[*dom.Element], error) {
		if matchesTest(dom.ElementOf(n), test) {
			return n, nil
		}
		return nil, nil
	}
}

func applyPredicate(candidates nodeSet, pred Predicate) nodeSet {
	switch pred.Kind {
	case PredPosition:
		if pred.Position <= len(candidates) {
			return nodeSet{candidates[pred.Position-1]}
		}
		return nil
	case PredLast:
		if len(candidates) > 0 {
			return nodeSet{candidates[len(candidates)-1]}
		}
		return nil
	}
	var r nodeSet
	for _, n := range candidates {
		if n != nil && matchesPredicate(n, pred) {
			r = append(r, n)
		}
	}
	return r
}

func matchesPredicate(e *dom.Element, pred Predicate) bool {
	if pred.Kind == PredTextEquals {
		return e.Text().WithDefault("") == pred.Value
	}
	v, ok := e.Attr(pred.Key)
	switch pred.Kind {
	case PredAttrExists:
		return ok
	case PredAttrEquals:
		return ok && v == pred.Value
	case PredAttrNotEquals:
		return ok && v != pred.Value
	case PredStartsWith:
		return ok && strings.HasPrefix(v, pred.Value)
	case PredContains:
		return ok && strings.Contains(v, pred.Value)
	}
	return false
}
