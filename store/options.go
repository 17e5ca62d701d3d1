package store

import (
	"fmt"
	"strings"

	"github.com/npillmayer/manifest/ident"
)

// MergePolicy decides what happens if ids of an imported document collide
// with ids of the target document.
type MergePolicy int

const (
	FailOnCollision MergePolicy = iota // refuse the merge, target unchanged
	RemapCollisions                    // allocate fresh ids for colliding elements
)

func (p MergePolicy) String() string {
	switch p {
	case FailOnCollision:
		return "fail"
	case RemapCollisions:
		return "remap"
	}
	return fmt.Sprintf("MergePolicy(%d)", int(p))
}

// ParseMergePolicy converts a configuration value to a merge policy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return FailOnCollision, nil
	case "remap":
		return RemapCollisions, nil
	}
	return FailOnCollision, fmt.Errorf("unknown merge policy %q", s)
}

// Options are the resolved configuration scalars of a store.
type Options struct {
	AutoID       bool // assign ids to new elements
	IDLength     int  // length of generated ids
	IndexEnabled bool // maintain the identifier index
	PrefixMin    int  // minimum length of id prefixes in selectors
	PrefixMax    int  // maximum length of id prefixes in selectors
	MergePolicy  MergePolicy
}

// DefaultOptions returns the options used if nothing is configured.
func DefaultOptions() Options {
	return Options{
		AutoID:       true,
		IDLength:     ident.DefaultLength,
		IndexEnabled: true,
		PrefixMin:    3,
		PrefixMax:    ident.DefaultLength,
		MergePolicy:  FailOnCollision,
	}
}

func (opts Options) idLength() int {
	if opts.IDLength <= 0 {
		return ident.DefaultLength
	}
	return opts.IDLength
}
