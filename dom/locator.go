package dom

import (
	"strings"
)

// Locator returns the structural address of an element: the absolute path of
// steps from the root, where id-bearing elements are addressed by their id.
//
//	/manifest/project[@id='a3f7b2c1']/task[@id='b5e8d9a2']
//
// Evaluating a locator as a path query yields the element, as long as ids
// are unique within the document.
func Locator(e *Element) string {
	var steps []string
	for n := e; n != nil; n = n.ParentElement() {
		steps = append(steps, step(n))
	}
	var b strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(steps[i])
	}
	return b.String()
}

func step(e *Element) string {
	if id, ok := e.ID(); ok {
		q := "'"
		if strings.Contains(id, q) {
			q = `"`
		}
		return e.tag + "[@id=" + q + id + q + "]"
	}
	return e.tag
}

// Locators collects the locators of all id-bearing elements at or below e,
// keyed by id. If ids are not unique, the element first in document order
// wins and the remaining ids are returned as duplicates.
func Locators(e *Element) (locs map[string]string, duplicates []string) {
	locs = make(map[string]string)
	prefix := ""
	if p := e.ParentElement(); p != nil {
		prefix = Locator(p)
	}
	var walk func(el *Element, path string)
	walk = func(el *Element, path string) {
		path = path + "/" + step(el)
		if id, ok := el.ID(); ok {
			if _, dup := locs[id]; dup {
				duplicates = append(duplicates, id)
			} else {
				locs[id] = path
			}
		}
		for _, ch := range el.Children() {
			walk(ch, path)
		}
	}
	walk(e, prefix)
	return locs, duplicates
}
