package query

import (
	"errors"
	"fmt"
)

// ErrSyntax reports that a query does not conform to the supported syntax.
var ErrSyntax = errors.New("query syntax error")

func syntaxErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrSyntax}, args...)...)
}

// Axis describes the direction of a step.
type Axis int

const (
	AxisChild Axis = iota
	AxisDescendantOrSelf
	AxisSelf
	AxisParent
)

func (a Axis) String() string {
	switch a {
	case AxisChild:
		return "child"
	case AxisDescendantOrSelf:
		return "descendant-or-self"
	case AxisSelf:
		return "self"
	case AxisParent:
		return "parent"
	}
	return "?"
}

// NodeTest matches element tags.
type NodeTest struct {
	Any   bool
	Local string
}

// PredicateKind enumerates the supported predicate forms.
type PredicateKind int

const (
	PredAttrExists PredicateKind = iota // [@k]
	PredAttrEquals                      // [@k='v']
	PredAttrNotEquals                   // [@k!='v']
	PredStartsWith                      // [starts-with(@k,'v')]
	PredContains                        // [contains(@k,'v')]
	PredTextEquals                      // [text()='v']
	PredPosition                        // [n]
	PredLast                            // [last()]
)

// Predicate is a filter on the nodes selected by a step.
type Predicate struct {
	Kind     PredicateKind
	Key      string
	Value    string
	Position int
}

// Step represents a single step in a path.
type Step struct {
	Axis       Axis
	Test       NodeTest
	Predicates []Predicate
}

// Path represents a compiled path. Absolute paths start at the document
// node, relative paths at the root element.
type Path struct {
	Absolute bool
	Steps    []Step
}

// Expression represents a union of paths.
type Expression struct {
	source string
	Paths  []Path
}

func (e *Expression) String() string {
	return e.source
}
