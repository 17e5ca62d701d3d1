package dom

// Clone creates a deep copy of the (sub-)tree starting at e. The copy is
// unattached.
func Clone(e *Element) *Element {
	if e == nil {
		return nil
	}
	c := newElement(e.tag)
	c.attrs = e.attrs.clone()
	c.text = e.text
	for _, ch := range e.Children() {
		c.AppendChild(Clone(ch))
	}
	return c
}

// Equal compares two trees for deep equality: tags, attributes (ignoring their
// order), texts and children (respecting their order).
func Equal(a, b *Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.tag != b.tag || a.text != b.text || !a.attrs.Equal(&b.attrs) {
		return false
	}
	if a.ChildCount() != b.ChildCount() {
		return false
	}
	ach, bch := a.Children(), b.Children()
	for i := range ach {
		if !Equal(ach[i], bch[i]) {
			return false
		}
	}
	return true
}

// Restore replaces tag, attributes, text and children of dst with those of
// src. The children of src are moved to dst, leaving src empty. Restore keeps
// the identity of dst, which is useful for rolling back a document root to a
// snapshot.
func Restore(dst, src *Element) {
	assertThat(dst != nil && src != nil, "cannot restore from or to nil")
	dst.tag = src.tag
	dst.attrs = src.attrs
	dst.text = src.text
	src.attrs = Attributes{}
	for _, ch := range dst.Children() {
		ch.Detach()
	}
	for _, ch := range src.Children() {
		dst.AppendChild(ch)
	}
}
