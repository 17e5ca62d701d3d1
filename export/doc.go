/*
Package export converts elements of a manifest into formats for other tools:
iCalendar files for elements carrying a due date, and a flat table (CSV),
which can be edited elsewhere and read back.

	n, err := export.WriteCalendar(w, tasks, export.CalendarOptions{Name: "Q3"})

Tables list one element per row. The columns id, parent_id and tag (and
optionally text) come first, followed by one column per attribute key in
alphabetical order. Elements without an id are referenced by a row key of
the form "@<row>", which is never a valid id.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package export

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.export'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.export")
}
