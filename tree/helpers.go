package tree

import (
	"sort"
)

// selection collects nodes without duplicates, keeping the order of insertion.
type selection[T comparable] struct {
	nodes []*Node[T]
	seen  map[*Node[T]]struct{}
}

func newSelection[T comparable](capacity int) *selection[T] {
	return &selection[T]{
		nodes: make([]*Node[T], 0, capacity),
		seen:  make(map[*Node[T]]struct{}, capacity),
	}
}

func (sel *selection[T]) add(n *Node[T]) {
	if n == nil {
		return
	}
	if _, ok := sel.seen[n]; ok {
		return
	}
	sel.seen[n] = struct{}{}
	sel.nodes = append(sel.nodes, n)
}

// --------------------------------------------------------------------------------

// a helper struct for ordering the resulting nodes and their serials
type resultSlices[T comparable] struct {
	nodes   []*Node[T]
	serials []uint32
}

func (rs resultSlices[T]) Len() int           { return len(rs.nodes) }
func (rs resultSlices[T]) Less(i, j int) bool { return rs.serials[i] < rs.serials[j] }
func (rs resultSlices[T]) Swap(i, j int) {
	rs.nodes[i], rs.nodes[j] = rs.nodes[j], rs.nodes[i]
	rs.serials[i], rs.serials[j] = rs.serials[j], rs.serials[i]
}

// sortByRank returns a copy of nodes, sorted by rank. The sort is stable.
func sortByRank[T comparable](nodes []*Node[T]) []*Node[T] {
	rs := resultSlices[T]{
		nodes:   make([]*Node[T], len(nodes)),
		serials: make([]uint32, len(nodes)),
	}
	copy(rs.nodes, nodes)
	for i, n := range rs.nodes {
		rs.serials[i] = n.Rank
	}
	sort.Stable(rs)
	return rs.nodes
}
