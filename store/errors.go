package store

import (
	"errors"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/query"
	"github.com/npillmayer/manifest/selector"
	"github.com/npillmayer/manifest/sidecar"
)

// Errors of the store. Some of them are re-exported from the packages which
// produce them, so clients may check all errors against this package.
var (
	ErrValidation      = dom.ErrValidation
	ErrSyntax          = query.ErrSyntax
	ErrNotFound        = selector.ErrNotFound
	ErrAmbiguous       = selector.ErrAmbiguous
	ErrDuplicateID     = sidecar.ErrDuplicateID
	ErrIndexCorruption = sidecar.ErrIndexCorruption

	// ErrSelectorEmpty is returned if a selector did not match any element.
	ErrSelectorEmpty = errors.New("selector matched nothing")

	// ErrEmptyDocument is returned when wrapping a document without content.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrRollbackFailed is the panic value if a restored snapshot turns out
	// to be invalid. The session cannot continue after it.
	ErrRollbackFailed = errors.New("rollback failed")

	// ErrTxDone is returned for operations on a transaction which has ended.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")

	// ErrTxAborted is returned by an outer transaction if one of its nested
	// transactions failed.
	ErrTxAborted = errors.New("transaction aborted by nested transaction")
)

// Structured error types, re-exported.
type (
	ValidationError = dom.ValidationError
	AmbiguousError  = selector.AmbiguousError
	CorruptionError = sidecar.CorruptionError
)
