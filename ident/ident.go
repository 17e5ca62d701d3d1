/*
Package ident allocates and validates element identifiers.

Generated ids are random lowercase hexadecimal strings of fixed length
(8 characters by default, i.e. a space of 2^32). Custom ids may have other
shapes, but must not contain characters which would break locators or
selector classification.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.ident'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.ident")
}

// DefaultLength is the length of generated ids.
const DefaultLength = 8

// MaxAttempts bounds the number of retries on collisions.
const MaxAttempts = 64

// ErrExhausted is returned if no unused id could be found.
var ErrExhausted = errors.New("id space exhausted")

// Set is a set of ids which are already in use.
type Set interface {
	Has(id string) bool
}

// MapSet is a simple Set.
type MapSet map[string]struct{}

// NewSet creates a set from a list of ids.
func NewSet(ids ...string) MapSet {
	s := make(MapSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s MapSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s MapSet) Add(id string) {
	s[id] = struct{}{}
}

// Generate creates a random hex id of the given length (DefaultLength for
// length <= 0) which is not in existing.
func Generate(existing Set, length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, (length+1)/2)
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		id := hex.EncodeToString(buf)[:length]
		if existing == nil || !existing.Has(id) {
			return id, nil
		}
		tracer().Debugf("id collision on %s, retrying", id)
	}
	return "", fmt.Errorf("%w: no free id of length %d after %d attempts", ErrExhausted, length, MaxAttempts)
}

// Metachars are characters forbidden in custom ids.
const Metachars = dom.IDMetachars

// ValidateCustom checks a caller-supplied id: it must be non-empty, must not
// contain whitespace, control characters or locator metacharacters, and
// must not be "." or "..".
func ValidateCustom(id string) error {
	return dom.ValidateID(id)
}

// IsCanonical is a predicate: is id a lowercase hex string of the given length?
func IsCanonical(id string, length int) bool {
	if length <= 0 {
		length = DefaultLength
	}
	return len(id) == length && IsLowerHex(id)
}

// IsLowerHex is a predicate: does s consist of lowercase hex digits only?
func IsLowerHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

// --- Modes -----------------------------------------------------------------

type modeKind int

const (
	autoMode modeKind = iota
	customMode
	noneMode
)

// Mode selects how an inserted element gets its id.
type Mode struct {
	kind modeKind
	id   string
}

// Auto generates a fresh id. This is the zero value of Mode.
var Auto = Mode{kind: autoMode}

// None omits the id attribute.
var None = Mode{kind: noneMode}

// Custom uses a caller-supplied id.
func Custom(id string) Mode {
	return Mode{kind: customMode, id: id}
}

func (m Mode) IsAuto() bool { return m.kind == autoMode }
func (m Mode) IsNone() bool { return m.kind == noneMode }

// CustomID returns the id of a custom mode.
func (m Mode) CustomID() (string, bool) {
	return m.id, m.kind == customMode
}

func (m Mode) String() string {
	switch m.kind {
	case customMode:
		return "custom(" + m.id + ")"
	case noneMode:
		return "none"
	}
	return "auto"
}
