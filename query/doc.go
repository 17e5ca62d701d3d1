/*
Package query implements path queries on document trees.

The query language is a small subset of XPath 1.0, restricted to element
selection:

	/manifest/project        absolute path; the first step matches the root
	//task                   any task element in the document
	project/task             relative path; the context is the root element
	.  ..  *                 self, parent, any tag
	task[@status='done']     attribute equality (also !=)
	task[@due]               attribute presence
	task[starts-with(@id,'a3')]
	task[contains(@topic,'garden')]
	task[text()='Buy seeds']
	task[2]  task[last()]    positional predicates, 1-based
	//task | //note          unions

Results are returned in document order, without duplicates. Malformed
queries result in an error wrapping ErrSyntax.

Evaluation is built on the walker DSL of package tree.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package query

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.query'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.query")
}
