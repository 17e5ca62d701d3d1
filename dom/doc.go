/*
Package dom provides the element model of manifest documents.

Overview

A manifest document is a tree of labeled elements. Each element carries a tag,
an ordered set of attributes, an optional text payload and an ordered list of
child elements. The root element of a document is tagged "manifest":

	<manifest>
	  <project id="a3f7b2c1" topic="garden">
	    <task id="b5e8d9a2" status="active">Buy seeds</task>
	  </project>
	</manifest>

Elements with an "id" attribute are addressable by identifier. Ids are unique
across a document; package dom does not enforce this while editing (this is the
job of package store), but CheckTree will report duplicates.

Tree Implementation

We implement elements on top of the general purpose tree type of package tree.
In a fully object oriented programming language we would subclass the tree
node type, but in Go we resort to composition, thus including a generic tree
node in every element. The payload of the tree node always references the
element itself, so clients may switch between the two views:

	e := dom.NewDocument()
	n := &e.Node          // generic tree view, usable with tree.Walker
	e = dom.ElementOf(n)  // back to the element

Serialization

Documents are serialized as indented XML (UTF-8, with declaration). Text
payloads are normalized: control characters are removed and surrounding
whitespace is trimmed. An empty text is the same as no text at all.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package dom

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer will return a tracer. We are tracing to 'manifest.dom'
func tracer() tracing.Trace {
	return tracing.Select("manifest.dom")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("dom: "+msg, msgargs...)
		panic(msg)
	}
}
