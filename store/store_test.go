package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/ident"
	"github.com/npillmayer/manifest/maybe"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	dto "github.com/prometheus/client_model/go"
)

const doc = `<manifest>
  <project id="a3f7b2c1" topic="work">
    <task id="b5e8d9a2" topic="a">one</task>
    <task id="c1d2e3f4" topic="b">two</task>
  </project>
  <note>plain</note>
</manifest>`

func setup(t *testing.T) *Store {
	root, err := dom.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	return New(root, nil, DefaultOptions())
}

func verify(t *testing.T, st *Store) {
	t.Helper()
	if err := st.Index().Verify(st.Root()); err != nil {
		t.Errorf("expected index to be consistent, is %v", err)
	}
}

// unchanged checks that a failed operation left tree and index untouched.
func unchanged(t *testing.T, st *Store, tree *dom.Element, entries map[string]string) {
	t.Helper()
	if !dom.Equal(st.Root(), tree) {
		t.Errorf("expected tree to be unchanged after failure, is %s", st.Root())
	}
	if !reflect.DeepEqual(st.Index().Entries(), entries) {
		t.Errorf("expected index to be unchanged after failure")
	}
	if st.InTransaction() {
		t.Errorf("expected transaction to be closed")
	}
}

func TestInsertIntoEmptyStore(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := New(nil, nil, DefaultOptions())
	out, err := st.Insert(Sel(""), Template{Tag: "task"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || len(out.IDs) != 1 {
		t.Fatalf("expected exactly 1 insertion with 1 id, is %d/%v", out.Count, out.IDs)
	}
	id := out.IDs[0]
	if !ident.IsCanonical(id, ident.DefaultLength) {
		t.Errorf("expected a canonical id, is %q", id)
	}
	loc, ok := st.Index().Get(id)
	if !ok || loc != "/manifest/task[@id='"+id+"']" {
		t.Errorf("expected index entry for %s, is %q", id, loc)
	}
	if out.TxID == "" {
		t.Errorf("expected outcome to carry a transaction id")
	}
	verify(t, st)
}

func TestInsertIntoManyParents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	out, err := st.Insert(Sel("//task"), Template{
		Tag:   "note",
		Attrs: []dom.KeyValue{{Key: "topic", Value: "x"}},
		Text:  maybe.Just("remember"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.IDs) != 2 || out.IDs[0] == out.IDs[1] {
		t.Errorf("expected 2 insertions with distinct ids, is %d/%v", out.Count, out.IDs)
	}
	for _, task := range st.Root().Descendents() {
		if task.Tag() != "task" {
			continue
		}
		if task.ChildCount() != 1 {
			t.Fatalf("expected every task to have a note, %s has not", task)
		}
		note := task.Children()[0]
		if note.Text().WithDefault("") != "remember" {
			t.Errorf("expected note text to be set, is %v", note.Text())
		}
	}
	verify(t, st)
}

func TestInsertNoIDAndCustomID(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	out, err := st.Insert(Sel(""), Template{Tag: "location", ID: ident.None})
	if err != nil || len(out.IDs) != 0 {
		t.Errorf("expected insertion without id, is %v/%v", out.IDs, err)
	}
	out, err = st.Insert(ByID("a3f7b2c1"), Template{Tag: "task", ID: ident.Custom("my-task")})
	if err != nil {
		t.Fatal(err)
	}
	if !st.Index().Has("my-task") {
		t.Errorf("expected custom id to be indexed")
	}
	verify(t, st)
}

func TestInsertFailures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	tree, entries := dom.Clone(st.Root()), st.Index().Entries()
	_, err := st.Insert(Sel("//task"), Template{Tag: "note", ID: ident.Custom("shared")})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected custom id for 2 parents to fail, is %v", err)
	}
	_, err = st.Insert(Sel(""), Template{Tag: "task", ID: ident.Custom("b5e8d9a2")})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected existing custom id to fail, is %v", err)
	}
	_, err = st.Insert(Sel(""), Template{Tag: "1task"})
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrValidation) {
		t.Errorf("expected invalid tag to fail validation, is %v", err)
	}
	_, err = st.Insert(Sel("//nothing"), Template{Tag: "task"})
	if !errors.Is(err, ErrSelectorEmpty) {
		t.Errorf("expected missing parent to fail, is %v", err)
	}
	_, err = st.Insert(Sel(""), Template{Tag: "task", Attrs: []dom.KeyValue{{Key: "status", Value: "bogus"}}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected invalid status to fail, is %v", err)
	}
	unchanged(t, st, tree, entries)
}

func TestUpdatePreservesOtherAttributes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	out, err := st.Update(Sel("//task"), Patch{
		Attrs: map[string]maybe.Maybe[string]{"status": maybe.Just("done")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 {
		t.Errorf("expected count=2, is %d", out.Count)
	}
	topics := map[string]string{"b5e8d9a2": "a", "c1d2e3f4": "b"}
	for id, topic := range topics {
		res, err := st.Resolve(ByID(id))
		if err != nil {
			t.Fatal(err)
		}
		e := res.Nodes[0]
		if v, _ := e.Attr("topic"); v != topic {
			t.Errorf("expected topic of %s to be %q, is %q", id, topic, v)
		}
		if v, _ := e.Attr("status"); v != "done" {
			t.Errorf("expected status of %s to be done, is %q", id, v)
		}
	}
	verify(t, st)
}

func TestUpdateRemovalsAndText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	_, err := st.Update(ByID("b5e8d9a2"), Patch{
		Attrs: map[string]maybe.Maybe[string]{"topic": maybe.Nothing[string]()},
		Text:  maybe.Nothing[string](),
	})
	if err != nil {
		t.Fatal(err)
	}
	res, _ := st.Resolve(ByID("b5e8d9a2"))
	e := res.Nodes[0]
	if e.AttributeSet().IsSet("topic") || e.Text().IsJust() {
		t.Errorf("expected topic and text to be removed, is %s", e)
	}
	_, err = st.Update(ByID("c1d2e3f4"), Patch{Text: maybe.Just("three")})
	if err != nil {
		t.Fatal(err)
	}
	res, _ = st.Resolve(ByID("c1d2e3f4"))
	if res.Nodes[0].Text().WithDefault("") != "three" {
		t.Errorf("expected text to be replaced, is %v", res.Nodes[0].Text())
	}
}

func TestUpdateID(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	_, err := st.Update(ByID("a3f7b2c1"), Patch{
		Attrs: map[string]maybe.Maybe[string]{"id": maybe.Just("work")},
	})
	if err != nil {
		t.Fatal(err)
	}
	idx := st.Index()
	if idx.Has("a3f7b2c1") || !idx.Has("work") {
		t.Errorf("expected id to be re-registered, is %v", idx.IDs())
	}
	if loc, _ := idx.Get("b5e8d9a2"); loc != "/manifest/project[@id='work']/task[@id='b5e8d9a2']" {
		t.Errorf("expected subtree to be relocated, is %q", loc)
	}
	verify(t, st)
	tree, entries := dom.Clone(st.Root()), idx.Entries()
	_, err = st.Update(ByID("work"), Patch{
		Attrs: map[string]maybe.Maybe[string]{"id": maybe.Just("c1d2e3f4")},
	})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected colliding id to fail, is %v", err)
	}
	_, err = st.Update(ByID("work"), Patch{
		Attrs: map[string]maybe.Maybe[string]{"id": maybe.Just("a/b")},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected id with metacharacters to fail, is %v", err)
	}
	unchanged(t, st, tree, entries)
}

func TestRemoveSubtree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	out, err := st.Remove(ByID("a3f7b2c1"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || len(out.IDs) != 3 {
		t.Errorf("expected 1 removal with 3 ids, is %d/%v", out.Count, out.IDs)
	}
	verify(t, st)
	for _, id := range []string{"a3f7b2c1", "b5e8d9a2", "c1d2e3f4"} {
		if st.Index().Has(id) {
			t.Errorf("expected %s to be gone from the index", id)
		}
	}
}

func TestRemoveNestedTargets(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	out, err := st.Remove(Sel("//project|//task"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 3 {
		t.Errorf("expected 3 matched elements, is %d", out.Count)
	}
	if st.Root().ChildCount() != 1 || st.Index().Len() != 0 {
		t.Errorf("expected only the note to remain, is %s", st.Root())
	}
	_, err = st.Remove(Sel("/manifest"))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected removal of root to fail, is %v", err)
	}
}

func TestWrap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	root, _ := dom.Parse([]byte(`<manifest><a/><b/><c/></manifest>`))
	st := New(root, nil, DefaultOptions())
	out, err := st.Wrap("archive")
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 3 || root.ChildCount() != 1 {
		t.Fatalf("expected root to have exactly 1 child, is %s", root)
	}
	archive := root.Children()[0]
	if archive.Tag() != "archive" {
		t.Errorf("expected wrapper tag to be archive, is %s", archive.Tag())
	}
	var tags []string
	for _, ch := range archive.Children() {
		tags = append(tags, ch.Tag())
	}
	if !reflect.DeepEqual(tags, []string{"a", "b", "c"}) {
		t.Errorf("expected original order a,b,c, is %v", tags)
	}
	if _, err := New(nil, nil, DefaultOptions()).Wrap("archive"); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected wrapping an empty document to fail, is %v", err)
	}
	if _, err := st.Wrap("xml-archive"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected invalid wrapper tag to fail, is %v", err)
	}
}

func TestEnsureIDs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	out, err := st.EnsureIDs(false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || st.Index().Len() != 4 {
		t.Errorf("expected the note to get an id, is %d/%d", out.Count, st.Index().Len())
	}
	old := st.Index().IDs()
	out, err = st.EnsureIDs(true)
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 4 {
		t.Errorf("expected 4 ids to be replaced, is %d", out.Count)
	}
	for _, id := range old {
		if st.Index().Has(id) {
			t.Errorf("expected old id %s to be replaced", id)
		}
	}
	if _, ok := st.Root().ID(); ok {
		t.Errorf("expected root element to stay without id")
	}
	verify(t, st)
}

func TestMergeFailsAtomically(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	before, _ := dom.Serialize(st.Root())
	entries := st.Index().Entries()
	src, _ := dom.Parse([]byte(`<manifest><task id="b5e8d9a2">dup</task><task id="fresh">new</task></manifest>`))
	_, err := st.Merge(src, FailOnCollision)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected merge to fail with duplicate id, is %v", err)
	}
	after, _ := dom.Serialize(st.Root())
	if string(before) != string(after) {
		t.Errorf("expected target to be byte-identical after failed merge")
	}
	if !reflect.DeepEqual(st.Index().Entries(), entries) {
		t.Errorf("expected index to be unchanged after failed merge")
	}
}

func TestMergeRemap(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	src, _ := dom.Parse([]byte(`<manifest><task id="b5e8d9a2">dup</task><task id="fresh">new</task></manifest>`))
	reference := dom.Clone(src)
	out, err := st.Merge(src, RemapCollisions)
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.Remapped) != 1 || out.Remapped[0].Old != "b5e8d9a2" {
		t.Fatalf("expected 2 merged elements and 1 remap, is %d/%v", out.Count, out.Remapped)
	}
	if !st.Index().Has(out.Remapped[0].New) || !st.Index().Has("fresh") {
		t.Errorf("expected merged ids to be indexed, is %v", st.Index().IDs())
	}
	if !dom.Equal(src, reference) {
		t.Errorf("expected merge source to be unmodified")
	}
	verify(t, st)
}

func TestMergeCollisionsWithinSource(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	src, _ := dom.Parse([]byte(`<manifest><a id="x1"/><b id="x1"/></manifest>`))
	if _, err := st.Merge(src, FailOnCollision); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected duplicate within source to fail, is %v", err)
	}
	out, err := st.Merge(src, RemapCollisions)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Remapped) != 1 || !st.Index().Has("x1") {
		t.Errorf("expected the second x1 to be remapped, is %v", out.Remapped)
	}
	verify(t, st)
}

func TestTransactionRollback(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	tree, entries := dom.Clone(st.Root()), st.Index().Entries()
	boom := errors.New("boom")
	err := st.Transaction(func(tx *Tx) error {
		if _, err := tx.Insert(Sel(""), Template{Tag: "task"}); err != nil {
			return err
		}
		if _, err := tx.Remove(ByID("a3f7b2c1")); err != nil {
			return err
		}
		if _, err := tx.Wrap("archive"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected error of transaction, is %v", err)
	}
	unchanged(t, st, tree, entries)
}

func TestRollbackOfDirectEdits(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	tree, entries := dom.Clone(st.Root()), st.Index().Entries()
	boom := errors.New("boom")
	err := st.Transaction(func(tx *Tx) error {
		tx.Root().Children()[0].SetAttr("status", "done")
		tx.Root().AppendChild(dom.MustElement("extra"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected error of transaction, is %v", err)
	}
	unchanged(t, st, tree, entries)
	err = st.Transaction(func(tx *Tx) error {
		e := dom.MustElement("task")
		e.SetAttr("id", "direct")
		tx.Root().AppendChild(e)
		// edits through the root are visible to selectors of the same transaction
		_, err := tx.Update(ByID("direct"), Patch{Attrs: map[string]maybe.Maybe[string]{
			"topic": maybe.Just("x"),
		}})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.Index().Get("direct"); !ok {
		t.Errorf("expected id of directly added element to be committed to the index")
	}
	verify(t, st)
}

func TestTransactionBatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	var committed *Tx
	err := st.Transaction(func(tx *Tx) error {
		committed = tx
		out, err := tx.Insert(Sel(""), Template{Tag: "project"})
		if err != nil {
			return err
		}
		// the new id is not yet known to the index
		_, err = tx.Insert(ByID(out.IDs[0]), Template{Tag: "task"})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if !committed.Done() || len(committed.Delta().Added) != 2 {
		t.Errorf("expected commit to add 2 ids, is %s", committed.Delta())
	}
	if _, err := committed.Insert(Sel(""), Template{Tag: "task"}); !errors.Is(err, ErrTxDone) {
		t.Errorf("expected finished transaction to refuse operations, is %v", err)
	}
	verify(t, st)
}

func TestNestedTransactions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	tree, entries := dom.Clone(st.Root()), st.Index().Entries()
	err := st.Transaction(func(tx *Tx) error {
		if _, err := tx.Insert(Sel(""), Template{Tag: "task"}); err != nil {
			return err
		}
		_ = st.Transaction(func(inner *Tx) error {
			if inner != tx {
				t.Errorf("expected nested transaction to join the outer one")
			}
			return errors.New("inner failure")
		})
		return nil // outer ignores the failure
	})
	if !errors.Is(err, ErrTxAborted) {
		t.Errorf("expected outer transaction to be aborted, is %v", err)
	}
	unchanged(t, st, tree, entries)
	err = st.Transaction(func(tx *Tx) error {
		return st.Transaction(func(inner *Tx) error {
			_, err := inner.Insert(Sel(""), Template{Tag: "task"})
			return err
		})
	})
	if err != nil || st.Index().Len() != len(entries)+1 {
		t.Errorf("expected nested insert to be committed, is %v", err)
	}
}

func TestTransactionPanic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	tree, entries := dom.Clone(st.Root()), st.Index().Entries()
	var r interface{}
	func() {
		defer func() { r = recover() }()
		_ = st.Transaction(func(tx *Tx) error {
			if _, err := tx.Remove(Sel("//task")); err != nil {
				return err
			}
			panic("bad")
		})
	}()
	if r != "bad" {
		t.Errorf("expected panic to be re-raised, is %v", r)
	}
	unchanged(t, st, tree, entries)
}

func TestResolve(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	res, err := st.Resolve(Sel("a3f"))
	if err != nil || len(res.Nodes) != 1 || res.Nodes[0].Tag() != "project" {
		t.Errorf("expected prefix a3f to resolve to the project, is %v/%v", res.Nodes, err)
	}
	if _, err = st.Resolve(Sel("//nothing")); !errors.Is(err, ErrSelectorEmpty) {
		t.Errorf("expected empty query result to be an error, is %v", err)
	}
	if _, err = st.Resolve(ByID("ffff")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected unknown id to be not found, is %v", err)
	}
	if _, err = st.Resolve(Sel("//task[")); !errors.Is(err, ErrSyntax) {
		t.Errorf("expected syntax error, is %v", err)
	}
	if _, err = st.Resolve(Sel("  ")); !errors.Is(err, ErrValidation) {
		t.Errorf("expected blank selector to be invalid, is %v", err)
	}
}

func TestIndexDisabled(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	opts := DefaultOptions()
	opts.IndexEnabled = false
	st := New(nil, nil, opts)
	if st.Index() != nil {
		t.Fatalf("expected no index")
	}
	out, err := st.Insert(Sel(""), Template{Tag: "task"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := st.Resolve(ByID(out.IDs[0]))
	if err != nil || len(res.Nodes) != 1 {
		t.Errorf("expected id lookup without index to succeed, is %v", err)
	}
}

func TestAutoIDDisabled(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	opts := DefaultOptions()
	opts.AutoID = false
	st := New(nil, nil, opts)
	out, err := st.Insert(Sel(""), Template{Tag: "task"})
	if err != nil || len(out.IDs) != 0 {
		t.Errorf("expected insert without id, is %v/%v", out.IDs, err)
	}
}

func TestMergePolicyParsing(t *testing.T) {
	for s, p := range map[string]MergePolicy{"": FailOnCollision, "fail": FailOnCollision, "Remap": RemapCollisions} {
		if got, err := ParseMergePolicy(s); err != nil || got != p {
			t.Errorf("expected %q to parse as %s, is %s", s, p, got)
		}
	}
	if _, err := ParseMergePolicy("ignore"); err == nil {
		t.Errorf("expected unknown policy to be rejected")
	}
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "manifest.store")
	defer teardown()
	//
	st := setup(t)
	commits := counterValue(t, txCommits)
	rollbacks := counterValue(t, txRollbacks.WithLabelValues("error"))
	_, _ = st.Insert(Sel(""), Template{Tag: "task"})
	_, _ = st.Insert(Sel("//nothing"), Template{Tag: "task"})
	if counterValue(t, txCommits) != commits+1 {
		t.Errorf("expected one more commit")
	}
	if counterValue(t, txRollbacks.WithLabelValues("error")) != rollbacks+1 {
		t.Errorf("expected one more rollback")
	}
}
