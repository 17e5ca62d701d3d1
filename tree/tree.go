package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
)

// ErrInvalidFilter is thrown if a filter step is defunct.
var ErrInvalidFilter = errors.New("filter stage is invalid")

// ErrEmptyTree is thrown if a Walker is called with an empty tree. Refer to
// the documentation of NewWalker() for details about this scenario.
var ErrEmptyTree = errors.New("cannot walk empty tree")

// ErrNoMoreFiltersAccepted is thrown if a client already called Promise(), but tried to
// re-use a walker with another filter.
var ErrNoMoreFiltersAccepted = errors.New("in promise mode; will not accept new filters; use a new walker")

// Walker holds information for operating on trees: finding nodes and
// doing work on them. Clients usually create a Walker for a (sub-)tree
// to search for a selection of nodes matching certain criteria, and
// then perform some operation on this selection.
//
// A Walker will eventually return two client-level values:
// A slice of tree nodes and the first error occured.
// These are accessed through a Promise-object.
//
// A typical usage of a Walker looks like this ("FindNodesAndDoSomething()" is
// a placeholder for a sequence of function calls, see below):
//
//    w := NewWalker(node)
//    futureResult := w.FindNodesAndDoSomething(...).Promise()
//    nodes, err := futureResult()
//
// Every filter stage is applied to the complete selection of the preceding
// stage before the next stage starts. Nodes occur at most once in a selection;
// a stage keeps the order in which nodes are first reached.
// Once a stage reports an error, all subsequent stages are skipped.
type Walker[T comparable] struct {
	initial   *Node[T]   // initial node of (sub-)tree
	selection []*Node[T] // current selection
	err       error      // first error of a filter stage
	promising bool       // client has called Promise()
}

// NewWalker creates a Walker for the initial node of a (sub-)tree.
// The first subsequent call to a node filter function will have this
// initial node as input.
//
// If initial is nil, NewWalker will return a nil-Walker, resulting
// in a NOP-chain of operations, resulting in an empty set of nodes
// and an error (ErrEmptyTree).
func NewWalker[T comparable](initial *Node[T]) *Walker[T] {
	if initial == nil {
		return nil
	}
	tracer().Debugf("new tree-walker, initial node = %v", initial)
	return &Walker[T]{initial: initial, selection: []*Node[T]{initial}}
}

// NewSelectionWalker creates a Walker starting with a selection of nodes.
// nil nodes are ignored; duplicates are removed.
func NewSelectionWalker[T comparable](nodes []*Node[T]) *Walker[T] {
	w := &Walker[T]{}
	sel := newSelection[T](len(nodes))
	for _, n := range nodes {
		if n != nil {
			sel.add(n)
		}
	}
	w.selection = sel.nodes
	if len(w.selection) > 0 {
		w.initial = w.selection[0]
	}
	return w
}

// stage applies a task to every node of the current selection and collects
// the nodes the task emits.
func (w *Walker[T]) stage(task func(node *Node[T], emit func(*Node[T])) error) *Walker[T] {
	if w == nil {
		return nil
	}
	if w.promising {
		tracer().Errorf(ErrNoMoreFiltersAccepted.Error())
		panic(ErrNoMoreFiltersAccepted)
	}
	if w.err != nil {
		return w
	}
	sel := newSelection[T](len(w.selection))
	for _, node := range w.selection {
		if err := task(node, sel.add); err != nil {
			tracer().Debugf("walker stage returned error: %v", err)
			w.err = err
			break
		}
	}
	w.selection = sel.nodes
	return w
}

// Promise is the synchronisation point of a walker chain.
// Clients will call the Promise (which is of function type) to receive a slice
// of nodes and a possible error value. After Promise() has been called, the
// walker will not accept further filters.
func (w *Walker[T]) Promise() func() ([]*Node[T], error) {
	if w == nil {
		// empty Walker => return nil set and an error
		return func() ([]*Node[T], error) {
			return nil, ErrEmptyTree
		}
	}
	w.promising = true
	selection, err := w.selection, w.err
	if err != nil {
		selection = nil
	}
	return func() ([]*Node[T], error) {
		return selection, err
	}
}

// ----------------------------------------------------------------------

// Predicate is a function type to match against nodes of a tree.
// Is is used as an argument for various Walker functions to
// collect a selection of nodes.
// test is the node under test, node is the input node.
type Predicate[T comparable] func(test *Node[T], node *Node[T]) (match *Node[T], err error)

// Whatever is a predicate to match anything (see type Predicate).
// It is useful to match the first node in a given direction.
func Whatever[T comparable]() Predicate[T] {
	return func(test *Node[T], node *Node[T]) (*Node[T], error) {
		return test, nil
	}
}

// ----------------------------------------------------------------------

// Parent returns the parent node.
// If a node is the tree root node, it will not produce a result.
//
// If w is nil, Parent will return nil.
func (w *Walker[T]) Parent() *Walker[T] {
	return w.stage(func(node *Node[T], emit func(*Node[T])) error {
		if p := node.Parent(); p != nil {
			emit(p)
		}
		return nil
	})
}

// AncestorWith finds an ancestor matching the given predicate.
// The search does not include the start node.
//
// If w is nil, AncestorWith will return nil.
func (w *Walker[T]) AncestorWith(predicate Predicate[T]) *Walker[T] {
	if w != nil && predicate == nil {
		w.err = ErrInvalidFilter
		return w
	}
	return w.stage(func(node *Node[T], emit func(*Node[T])) error {
		for anc := node.Parent(); anc != nil; anc = anc.Parent() {
			matchedNode, err := predicate(anc, node)
			if err != nil {
				return err
			}
			if matchedNode != nil {
				emit(matchedNode)
				return nil
			}
		}
		return nil // no matching ancestor found, not an error
	})
}

// ChildrenWith finds direct children matching a predicate, in child order.
//
// If w is nil, ChildrenWith will return nil.
func (w *Walker[T]) ChildrenWith(predicate Predicate[T]) *Walker[T] {
	if w != nil && predicate == nil {
		w.err = ErrInvalidFilter
		return w
	}
	return w.stage(func(node *Node[T], emit func(*Node[T])) error {
		for _, ch := range node.children {
			matchedNode, err := predicate(ch, node)
			if err != nil {
				return err
			}
			if matchedNode != nil {
				emit(matchedNode)
			}
		}
		return nil
	})
}

// DescendentsWith finds descendents matching a predicate.
// The search does not include the start node. Descendents are visited
// depth first, in pre-order.
//
// If w is nil, DescendentsWith will return nil.
func (w *Walker[T]) DescendentsWith(predicate Predicate[T]) *Walker[T] {
	if w != nil && predicate == nil {
		w.err = ErrInvalidFilter
		return w
	}
	return w.stage(func(node *Node[T], emit func(*Node[T])) error {
		return descendentsWith(node, node, predicate, emit)
	})
}

func descendentsWith[T comparable](node, origin *Node[T], predicate Predicate[T], emit func(*Node[T])) error {
	for _, ch := range node.children {
		matchedNode, err := predicate(ch, origin)
		tracer().Debugf("Predicate for node %s returned: %v, err=%v", ch, matchedNode, err)
		if err != nil {
			return err // do not descend further
		}
		if matchedNode != nil {
			emit(matchedNode)
		}
		if err := descendentsWith(ch, origin, predicate, emit); err != nil {
			return err
		}
	}
	return nil
}

// AllDescendents traverses all descendents.
// The traversal does not include the start node.
// This is just a wrapper around `w.DescendentsWith(Whatever)`.
//
// If w is nil, AllDescendents will return nil.
func (w *Walker[T]) AllDescendents() *Walker[T] {
	return w.DescendentsWith(Whatever[T]())
}

// Filter calls a client-provided function on each node of the selection.
// The user function should return the input node if it is accepted and
// nil otherwise.
//
// If w is nil, Filter will return nil.
func (w *Walker[T]) Filter(f Predicate[T]) *Walker[T] {
	if w != nil && f == nil {
		w.err = ErrInvalidFilter
		return w
	}
	return w.stage(func(node *Node[T], emit func(*Node[T])) error {
		n, err := f(node, node)
		if n != nil && err == nil {
			emit(n) // forward filtered node to next stage
		}
		return err
	})
}

// Action is a function type to operate on tree nodes.
// Resulting nodes will be pushed to the next stage, if
// no error occured.
type Action[T comparable] func(n *Node[T], parent *Node[T], position int) (*Node[T], error)

// TopDown traverses a tree starting at (and including) the selected nodes.
// The traversal guarantees that parents are always processed before
// their children.
//
// If the action function returns an error for a node,
// the walk is aborted and the error will be reported by the promise.
//
// If w is nil, TopDown will return nil.
func (w *Walker[T]) TopDown(action Action[T]) *Walker[T] {
	if w != nil && action == nil {
		w.err = ErrInvalidFilter
		return w
	}
	return w.stage(func(node *Node[T], emit func(*Node[T])) error {
		position := 0
		if p := node.Parent(); p != nil {
			position = p.IndexOfChild(node)
		}
		return topDown(node, node.Parent(), position, action, emit)
	})
}

func topDown[T comparable](node, parent *Node[T], position int, action Action[T], emit func(*Node[T])) error {
	result, err := action(node, parent, position)
	if err != nil {
		return err
	}
	if result != nil {
		emit(result) // result -> next stage
	}
	for i, ch := range node.children {
		if err := topDown(ch, node, i, action, emit); err != nil {
			return err
		}
	}
	return nil
}

// InDocumentOrder sorts the current selection by the position of the nodes
// within their tree (pre-order). All nodes of the selection are expected to
// share a common root; the ranks of the tree's nodes are re-calculated.
//
// If w is nil, InDocumentOrder will return nil.
func (w *Walker[T]) InDocumentOrder() *Walker[T] {
	if w == nil || w.err != nil || len(w.selection) < 2 {
		return w
	}
	root := w.selection[0].Root()
	CalcRank(root)
	w.selection = sortByRank(w.selection)
	return w
}

// CalcRank calculates the 'rank'-member for each node of the tree below root,
// meaning: the position of the node in a pre-order traversal starting with 1.
func CalcRank[T comparable](root *Node[T]) uint32 {
	var serial uint32
	root.Each(func(n *Node[T]) bool {
		serial++
		n.Rank = serial
		return true
	})
	return serial
}
