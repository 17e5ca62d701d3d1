package dom

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"

	"github.com/npillmayer/manifest/maybe"
	"github.com/npillmayer/manifest/tree"
)

// RootTag is the tag of every document root.
const RootTag = "manifest"

// IDKey is the attribute key for element identifiers.
const IDKey = "id"

// Element is the building block of a document.
type Element struct {
	tree.Node[*Element] // we build on top of general purpose tree
	tag                 string
	attrs               Attributes
	text                string // normalized, empty means no text
}

// NewElement creates an unattached element with a validated tag.
func NewElement(tag string) (*Element, error) {
	if err := ValidateTag(tag); err != nil {
		return nil, err
	}
	return newElement(tag), nil
}

// MustElement is like NewElement, but panics for invalid tags.
func MustElement(tag string) *Element {
	e, err := NewElement(tag)
	if err != nil {
		panic(err)
	}
	return e
}

func newElement(tag string) *Element {
	e := &Element{tag: tag}
	e.Payload = e // Payload will always reference the element itself
	return e
}

// NewDocument creates an empty document, i.e. a single root element.
func NewDocument() *Element {
	return newElement(RootTag)
}

// ElementOf gets the element from a generic tree node.
func ElementOf(n *tree.Node[*Element]) *Element {
	if n == nil {
		return nil
	}
	return n.Payload
}

// TreeNode returns the generic tree node of an element, nil-safe.
func (e *Element) TreeNode() *tree.Node[*Element] {
	if e == nil {
		return nil
	}
	return &e.Node
}

func (e *Element) String() string {
	if id, ok := e.ID(); ok {
		return fmt.Sprintf("<%s id=%s>", e.tag, id)
	}
	return "<" + e.tag + ">"
}

// Tag returns the element's tag.
func (e *Element) Tag() string {
	return e.tag
}

// SetTag changes the tag of an element.
func (e *Element) SetTag(tag string) error {
	if err := ValidateTag(tag); err != nil {
		return err
	}
	e.tag = tag
	return nil
}

// --- Attributes ------------------------------------------------------------

// Attr returns the value of an attribute.
func (e *Element) Attr(key string) (string, bool) {
	return e.attrs.Get(key)
}

// SetAttr sets an attribute. The key is validated, the value sanitized.
func (e *Element) SetAttr(key, value string) error {
	if err := ValidateAttrKey(key); err != nil {
		return err
	}
	e.attrs.Set(key, Sanitize(value))
	return nil
}

// RemoveAttr deletes an attribute, if present.
func (e *Element) RemoveAttr(key string) bool {
	return e.attrs.Delete(key)
}

// Attributes returns the element's attributes in insertion order.
func (e *Element) Attributes() []KeyValue {
	return e.attrs.Properties()
}

// AttributeSet gives read access to the attribute set.
func (e *Element) AttributeSet() *Attributes {
	return &e.attrs
}

// ID returns the identifier of an element, if it has one.
func (e *Element) ID() (string, bool) {
	return e.attrs.Get(IDKey)
}

// --- Text ------------------------------------------------------------------

// Text returns the optional text payload.
func (e *Element) Text() maybe.Maybe[string] {
	if e.text == "" {
		return maybe.Nothing[string]()
	}
	return maybe.Just(e.text)
}

// SetText replaces the text payload. Nothing (or nil) clears the text.
// Text is sanitized and trimmed.
func (e *Element) SetText(text maybe.Maybe[string]) {
	if text == nil {
		e.text = ""
		return
	}
	e.text = normalizeText(text.WithDefault(""))
}

func normalizeText(s string) string {
	return strings.TrimSpace(Sanitize(s))
}

// --- Structure -------------------------------------------------------------

// ParentElement returns the parent element, or nil for the root.
func (e *Element) ParentElement() *Element {
	return ElementOf(e.Parent())
}

// Children returns the child elements in order.
func (e *Element) Children() []*Element {
	nodes := e.Node.Children()
	children := make([]*Element, len(nodes))
	for i, n := range nodes {
		children[i] = n.Payload
	}
	return children
}

// AppendChild appends ch to the children of e. ch is detached from a
// previous parent, if any.
func (e *Element) AppendChild(ch *Element) *Element {
	assertThat(ch != nil, "cannot append nil child")
	e.AddChild(&ch.Node)
	return e
}

// InsertChild inserts ch at position i.
func (e *Element) InsertChild(i int, ch *Element) *Element {
	assertThat(ch != nil, "cannot insert nil child")
	e.InsertChildAt(i, &ch.Node)
	return e
}

// Detach removes e from its parent.
func (e *Element) Detach() *Element {
	e.Isolate()
	return e
}

// Document returns the root element of the tree e belongs to.
func (e *Element) Document() *Element {
	return ElementOf(e.Root())
}

// Walk calls f for e and all of its descendents, in document order.
// Walking stops if f returns false.
func (e *Element) Walk(f func(*Element) bool) {
	e.Each(func(n *tree.Node[*Element]) bool {
		return f(n.Payload)
	})
}

// Descendents returns all elements below e in document order, excluding e.
func (e *Element) Descendents() []*Element {
	var r []*Element
	e.Walk(func(d *Element) bool {
		if d != e {
			r = append(r, d)
		}
		return true
	})
	return r
}

// IDs returns the ids of e and its descendents, in document order.
func (e *Element) IDs() []string {
	var ids []string
	e.Walk(func(d *Element) bool {
		if id, ok := d.ID(); ok {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}
