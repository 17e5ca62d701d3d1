/*
Package store implements the mutable document store of a manifest.

A Store owns the root element of a document together with its identifier
index. Every mutation runs within a transaction:

	err := st.Transaction(func(tx *store.Tx) error {
	    if _, err := tx.Insert(store.Sel("/manifest"), tmpl); err != nil {
	        return err
	    }
	    _, err := tx.Remove(store.Sel("a3f7"))
	    return err
	})

A transaction snapshots the tree when it begins. If the function returns an
error or panics, the snapshot is restored and the index is left untouched.
Otherwise the net effect on the index is computed as a sidecar.Delta, checked
against the index and applied to it. Nested calls to Transaction join the
outermost transaction; a failing inner transaction dooms the outer one.

The convenience methods of Store (Insert, Update, Remove, Wrap, Merge and
EnsureIDs) each run in a transaction of their own.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package store

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.store'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.store")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("store: "+msg, msgargs...)
		panic(msg)
	}
}
