package dom

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"
)

// KeyValue is a container for an attribute.
type KeyValue struct {
	Key   string
	Value string
}

// Attributes is a set of element attributes. Keys are unique.
// Attributes remember the order in which keys have been set, which is
// relevant for display and serialization, but not for equality.
type Attributes struct {
	keys  []string
	props map[string]string
}

// Len returns the number of attributes.
func (attrs *Attributes) Len() int {
	if attrs == nil {
		return 0
	}
	return len(attrs.keys)
}

// Get an attribute's value.
func (attrs *Attributes) Get(key string) (string, bool) {
	if attrs == nil || attrs.props == nil {
		return "", false
	}
	v, ok := attrs.props[key]
	return v, ok
}

// IsSet is a predicate wether an attribute is present.
func (attrs *Attributes) IsSet(key string) bool {
	_, ok := attrs.Get(key)
	return ok
}

// Set an attribute's value. Overwrites an existing value, if present,
// keeping its position.
func (attrs *Attributes) Set(key string, value string) {
	if attrs.props == nil {
		attrs.props = make(map[string]string)
	}
	if _, exists := attrs.props[key]; !exists {
		attrs.keys = append(attrs.keys, key)
	}
	attrs.props[key] = value
}

// Delete removes an attribute. Deleting a non-existing key is a no-op.
func (attrs *Attributes) Delete(key string) bool {
	if _, ok := attrs.Get(key); !ok {
		return false
	}
	delete(attrs.props, key)
	for i, k := range attrs.keys {
		if k == key {
			attrs.keys = append(attrs.keys[:i], attrs.keys[i+1:]...)
			break
		}
	}
	return true
}

// Properties returns all attributes in insertion order.
func (attrs *Attributes) Properties() []KeyValue {
	if attrs == nil {
		return nil
	}
	r := make([]KeyValue, len(attrs.keys))
	for i, k := range attrs.keys {
		r[i] = KeyValue{k, attrs.props[k]}
	}
	return r
}

// Equal compares two attribute sets, ignoring order.
func (attrs *Attributes) Equal(other *Attributes) bool {
	if attrs.Len() != other.Len() {
		return false
	}
	for _, kv := range attrs.Properties() {
		if v, ok := other.Get(kv.Key); !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func (attrs *Attributes) clone() Attributes {
	c := Attributes{}
	for _, kv := range attrs.Properties() {
		c.Set(kv.Key, kv.Value)
	}
	return c
}

// Stringer for attributes; used for debugging.
func (attrs *Attributes) String() string {
	var b strings.Builder
	for i, kv := range attrs.Properties() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%q", kv.Key, kv.Value)
	}
	return b.String()
}
