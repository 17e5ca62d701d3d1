/*
Package workspace implements editing sessions on manifest files.

A session locks a document file, loads it together with its identifier index
and checks both for consistency. Mutations are delegated to a document store;
saving writes the document and flushes the index if it has changed.

If the index turns out to be inconsistent with the document, the configured
corruption policy decides whether the index is rebuilt, possibly after asking
the user. A session which keeps an inconsistent index is degraded: it accepts
queries, but refuses mutations until the index is rebuilt.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package workspace

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.workspace'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.workspace")
}

var (
	// ErrDegraded is returned for mutations while the index is inconsistent.
	ErrDegraded = errors.New("index is inconsistent; rebuild it before modifying the document")

	// ErrClosed is returned for operations on a closed session.
	ErrClosed = errors.New("session is closed")

	// ErrExternalChange is returned by Verify if the document file has been
	// modified by someone else since it was loaded or saved.
	ErrExternalChange = errors.New("document has been changed outside of this session")

	// ErrRolledBack marks batch commands which succeeded but have been
	// rolled back because a later command failed.
	ErrRolledBack = errors.New("rolled back")

	// ErrSkipped marks batch commands which have not been run.
	ErrSkipped = errors.New("skipped")
)
