/*
Package storage implements byte-level persistence of documents.

Documents are stored either as plain files or as encrypted archives
(extension ".mfz"). An archive consists of

	magic "MFZ1" | salt (16 bytes) | nonce (12 bytes) | ciphertext

where the ciphertext is the zstd-compressed document, sealed with
AES-256-GCM. The key is derived from a password with scrypt
(N=32768, r=8, p=1). Header bytes are authenticated as additional data.

All writes are atomic: data goes to a temporary file in the target
directory, which is then renamed. Package storage further provides
advisory file locks and backups.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package storage

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.storage'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.storage")
}

// ErrPasswordRequired is returned when accessing an archive without a password.
var ErrPasswordRequired = errors.New("password required")

// ErrBadPassword is returned when an archive cannot be decrypted, either
// because of a wrong password or because the archive is damaged.
var ErrBadPassword = errors.New("wrong password or damaged archive")

// ErrInvalidPath is returned for unusable file paths.
var ErrInvalidPath = errors.New("invalid path")

// ErrLocked is returned if a document is locked by another process.
var ErrLocked = errors.New("document is locked by another process")

// ErrExists is returned if a backup would overwrite an existing file.
var ErrExists = errors.New("file exists")
