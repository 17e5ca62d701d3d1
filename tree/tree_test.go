package tree

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// buildTree creates
//
//	root
//	├── a
//	│   ├── a1
//	│   └── a2
//	└── b
//	    └── b1
func buildTree() (*Node[string], map[string]*Node[string]) {
	nodes := make(map[string]*Node[string])
	for _, name := range []string{"root", "a", "a1", "a2", "b", "b1"} {
		nodes[name] = NewNode(name)
	}
	nodes["root"].AddChild(nodes["a"]).AddChild(nodes["b"])
	nodes["a"].AddChild(nodes["a1"]).AddChild(nodes["a2"])
	nodes["b"].AddChild(nodes["b1"])
	return nodes["root"], nodes
}

func payloads(nodes []*Node[string]) []string {
	p := make([]string, len(nodes))
	for i, n := range nodes {
		p[i] = n.Payload
	}
	return p
}

func TestNodeInsertAndIsolate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	root, nodes := buildTree()
	if root.ChildCount() != 2 {
		t.Fatalf("expected root to have 2 children, has %d", root.ChildCount())
	}
	x := NewNode("x")
	root.InsertChildAt(1, x)
	if ch, ok := root.Child(1); !ok || ch != x {
		t.Errorf("expected x to be at position 1, is %v", ch)
	}
	if ch, _ := root.Child(2); ch != nodes["b"] {
		t.Errorf("expected b to be shifted to position 2, is %v", ch)
	}
	x.Isolate()
	if root.ChildCount() != 2 || root.IndexOfChild(nodes["b"]) != 1 {
		t.Errorf("expected gap to be closed after isolate, children are %v", payloads(root.Children()))
	}
	if x.Parent() != nil {
		t.Errorf("expected isolated node to have no parent")
	}
}

func TestNodeReparent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	_, nodes := buildTree()
	nodes["b"].AddChild(nodes["a1"])
	if nodes["a"].ChildCount() != 1 {
		t.Errorf("expected a to have 1 child left, has %d", nodes["a"].ChildCount())
	}
	if nodes["a1"].Parent() != nodes["b"] {
		t.Errorf("expected a1 to be a child of b")
	}
}

func TestNodeCycleIsRejected(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	root, nodes := buildTree()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected cycle to panic, did not")
		}
	}()
	nodes["a1"].AddChild(root)
}

func TestWalkerDescendents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	root, _ := buildTree()
	nodes, err := NewWalker(root).AllDescendents().Promise()()
	if err != nil {
		t.Fatal(err)
	}
	got := payloads(nodes)
	want := []string{"a", "a1", "a2", "b", "b1"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, is %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected node #%d to be %s, is %s", i, want[i], got[i])
		}
	}
}

func TestWalkerLeafsAndParents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	root, _ := buildTree()
	isLeaf := func(test, _ *Node[string]) (*Node[string], error) {
		if test.ChildCount() == 0 {
			return test, nil
		}
		return nil, nil
	}
	nodes, err := NewWalker(root).DescendentsWith(isLeaf).Parent().Promise()()
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Errorf("expected parents of leafs to be de-duplicated to 2 nodes, are %v", payloads(nodes))
	}
}

func TestWalkerAncestor(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	_, nodes := buildTree()
	isRoot := func(test, n *Node[string]) (*Node[string], error) {
		if test.Payload == "root" {
			return test, nil
		}
		return nil, nil
	}
	found, err := NewWalker(nodes["b1"]).AncestorWith(isRoot).Promise()()
	if err != nil || len(found) != 1 || found[0].Payload != "root" {
		t.Errorf("expected to find root as ancestor, is %v (err=%v)", payloads(found), err)
	}
}

func TestWalkerDocumentOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	_, nodes := buildTree()
	w := NewSelectionWalker([]*Node[string]{nodes["b1"], nodes["a2"], nodes["a"], nodes["b1"]})
	sorted, err := w.InDocumentOrder().Promise()()
	if err != nil {
		t.Fatal(err)
	}
	got := payloads(sorted)
	if len(got) != 3 || got[0] != "a" || got[1] != "a2" || got[2] != "b1" {
		t.Errorf("expected [a a2 b1], is %v", got)
	}
}

func TestWalkerError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	root, _ := buildTree()
	boom := errors.New("boom")
	count := 0
	action := func(n, parent *Node[string], pos int) (*Node[string], error) {
		count++
		if n.Payload == "a2" {
			return nil, boom
		}
		return n, nil
	}
	nodes, err := NewWalker(root).TopDown(action).Filter(Whatever[string]()).Promise()()
	if !errors.Is(err, boom) {
		t.Errorf("expected error to be reported by promise, is %v", err)
	}
	if nodes != nil {
		t.Errorf("expected no nodes on error, are %v", payloads(nodes))
	}
	if count != 4 {
		t.Errorf("expected top down walk to stop after 4 nodes, visited %d", count)
	}
}

func TestWalkerNil(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.tree")
	defer teardown()
	//
	var w *Walker[string] = NewWalker[string](nil)
	_, err := w.Parent().AllDescendents().Promise()()
	if err != ErrEmptyTree {
		t.Errorf("expected ErrEmptyTree for nil walker, is %v", err)
	}
}

func TestCalcRank(t *testing.T) {
	root, nodes := buildTree()
	if n := CalcRank(root); n != 6 {
		t.Errorf("expected 6 nodes to be ranked, are %d", n)
	}
	if nodes["b"].Rank != 5 {
		t.Errorf("expected rank of b to be 5, is %d", nodes["b"].Rank)
	}
}
