/*
Package sidecar implements the identifier index of a document.

The index maps element ids to locators (see dom.Locator). It is kept apart
from the document tree: package store informs the index about the net
effect of a committed transaction by handing over a Delta. Applying a
delta is two-phased: Check validates a delta against the current index
without modifying it, Apply performs it.

The index is a bijection between id-bearing elements of a document and the
keys of the index. Verify confirms this; Rebuild re-establishes it with a
single walk over the document. The index never repairs itself silently:
how to react to corruption is a policy decision of the caller.

Indexes are persisted through a Backend: a JSON file next to the document
(the "sidecar" file), a badger key-value store, or memory only.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package sidecar

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.sidecar'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.sidecar")
}
