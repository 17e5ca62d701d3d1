/*
Package selector resolves user-supplied selector strings to elements.

A selector is either an element id, a prefix of an element id, or a path
query (see package query). Classification is deterministic, the first
matching rule wins:

 1. A mode forced by the caller (id-only or query-only).
 2. A selector containing query metacharacters, or consisting of "." or "..",
    is a query.
 3. A lowercase hex string with a length within the prefix bounds (3 to 8 by
    default) is an exact id if registered, else an id prefix.
 4. A registered id is an exact id (this covers custom ids).
 5. Everything else is a query.

Resolving an id prefix which matches more than one registered id is not an
error of the session: the resolution carries the ordered candidate list,
together with an AmbiguousError.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/ident"
	"github.com/npillmayer/manifest/query"
	"github.com/npillmayer/manifest/sidecar"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'manifest.selector'.
func tracer() tracing.Trace {
	return tracing.Select("manifest.selector")
}

// ErrNotFound is returned for ids (or id prefixes) which are not registered.
var ErrNotFound = errors.New("id not found")

// ErrAmbiguous is the sentinel matched by AmbiguousError.
var ErrAmbiguous = errors.New("ambiguous id prefix")

// AmbiguousError carries the registered ids matching a prefix, sorted.
type AmbiguousError struct {
	Prefix     string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous id prefix '%s' matches %d ids: %s",
		e.Prefix, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Is makes AmbiguousErrors match ErrAmbiguous.
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// Kind is the classification of a selector.
type Kind int

const (
	ExactID Kind = iota
	IDPrefix
	Query
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case ExactID:
		return "exact-id"
	case IDPrefix:
		return "id-prefix"
	case Query:
		return "query"
	case Ambiguous:
		return "ambiguous"
	}
	return "?"
}

// Force overrides classification.
type Force int

const (
	NoForce    Force = iota
	ForceID          // treat the selector as id or id prefix
	ForceQuery       // treat the selector as path query
)

// Options configure classification.
type Options struct {
	Force     Force
	PrefixMin int // minimum length of id prefixes, default 3
	PrefixMax int // maximum length of id prefixes, default 8
}

func (o Options) bounds() (int, int) {
	lo, hi := o.PrefixMin, o.PrefixMax
	if lo <= 0 {
		lo = 3
	}
	if hi <= 0 {
		hi = ident.DefaultLength
	}
	return lo, hi
}

// Index is what the resolver needs to know of an identifier index.
type Index interface {
	Has(id string) bool
	Get(id string) (string, bool)
	WithPrefix(prefix string) []string
}

// misses reports a selector which the index does not know. Misses of a
// degraded index are reported as corruption as well, as the index may lack
// ids present in the document.
func misses(idx Index, sel string) error {
	if d, ok := idx.(interface{ Degraded() bool }); ok && d.Degraded() {
		return fmt.Errorf("%w: %s (%w)", ErrNotFound, sel, sidecar.ErrIndexCorruption)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, sel)
}

// Resolution is the tagged result of resolving a selector.
type Resolution struct {
	Kind       Kind
	Selector   string
	Nodes      []*dom.Element // matched elements, in document order
	Candidates []string       // for Ambiguous: matching ids, sorted
}

// Classify determines the kind of a selector. It never returns Ambiguous;
// ambiguity is detected during resolution.
func Classify(sel string, idx Index, opts Options) Kind {
	switch opts.Force {
	case ForceQuery:
		return Query
	case ForceID:
		if idx != nil && idx.Has(sel) {
			return ExactID
		}
		return IDPrefix
	}
	if sel == "." || sel == ".." || strings.ContainsAny(sel, ident.Metachars) {
		return Query
	}
	lo, hi := opts.bounds()
	if len(sel) >= lo && len(sel) <= hi && ident.IsLowerHex(sel) {
		if idx != nil && idx.Has(sel) {
			return ExactID
		}
		return IDPrefix
	}
	if idx != nil && idx.Has(sel) {
		return ExactID
	}
	return Query
}

// Resolve classifies a selector and resolves it against a document and its
// index. Exact ids and id prefixes are resolved through the index; an index
// entry whose locator does not lead to the element carrying the id results
// in an error matching sidecar.ErrIndexCorruption. Queries are delegated to
// the query engine; syntax errors match query.ErrSyntax.
func Resolve(root *dom.Element, idx Index, sel string, opts Options) (Resolution, error) {
	res := Resolution{Kind: Classify(sel, idx, opts), Selector: sel}
	tracer().Debugf("selector %q classified as %s", sel, res.Kind)
	switch res.Kind {
	case ExactID:
		e, err := resolveID(root, idx, sel)
		if err != nil {
			return res, err
		}
		res.Nodes = []*dom.Element{e}
	case IDPrefix:
		var candidates []string
		if idx != nil {
			candidates = idx.WithPrefix(sel)
		}
		switch len(candidates) {
		case 0:
			return res, misses(idx, sel)
		case 1:
			e, err := resolveID(root, idx, candidates[0])
			if err != nil {
				return res, err
			}
			res.Nodes = []*dom.Element{e}
		default:
			res.Kind = Ambiguous
			res.Candidates = candidates
			return res, &AmbiguousError{Prefix: sel, Candidates: candidates}
		}
	case Query:
		nodes, err := query.Select(root, sel)
		if err != nil {
			return res, err
		}
		res.Nodes = nodes
	}
	return res, nil
}

func resolveID(root *dom.Element, idx Index, id string) (*dom.Element, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	loc, ok := idx.Get(id)
	if !ok {
		return nil, misses(idx, id)
	}
	nodes, err := query.Select(root, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: locator %q of id %s: %v", sidecar.ErrIndexCorruption, loc, id, err)
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("%w: locator of id %s matches %d elements", sidecar.ErrIndexCorruption, id, len(nodes))
	}
	if got, _ := nodes[0].ID(); got != id {
		return nil, fmt.Errorf("%w: locator of id %s leads to another element", sidecar.ErrIndexCorruption, id)
	}
	return nodes[0], nil
}
