/*
Package tree implements an all-purpose ordered tree type.

Nodes carry a payload of a comparable type, keep a link to their parent and an
ordered slice of children. Higher level trees (see package dom) are built on top
of this type by composition: they embed a Node and let its payload reference the
embedding struct.

All operations are synchronous. A document store built on this package serves
exactly one session, therefore nodes are not guarded by locks.

Walkers

We support a set of search & filter functions on tree nodes. Clients will chain
these to perform tasks on nodes (see examples below).
You may think of the set of operations to form a small
Domain Specific Language (DSL), similar in concept to JQuery, but
of course with a much smaller set of functions.

Navigation functions:

   Parent()                     // find parent for all selected nodes
   AncestorWith(predicate)      // find ancestor with a given predicate
   ChildrenWith(predicate)      // find children with a given predicate
   DescendentsWith(predicate)   // find descendents with a given predicate
   TopDown(action)              // traverse all nodes top down (depth first, pre-order)

Filter functions:

   Filter(userfunc)             // apply a user-provided filter function
   InDocumentOrder()            // sort the selection by position in the tree

A chain is terminated by Promise(), which hands out the selection together with
the first error that occured.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tree

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.tree'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.tree")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("tree: "+msg, msgargs...)
		panic(msg)
	}
}
