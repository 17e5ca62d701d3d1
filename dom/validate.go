package dom

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// ErrValidation is the sentinel for all kinds of malformed input: bad tags,
// bad attribute keys or values, and bad identifiers.
var ErrValidation = errors.New("validation failed")

// ValidationError describes which field of an input failed validation, and why.
type ValidationError struct {
	Field  string // e.g., "tag", "attribute", "id"
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Value, e.Reason)
}

// Is makes ValidationErrors match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

var nameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_\-\.]*$`)

// ValidateTag checks that tag is an identifier-like string, suitable as an
// XML element name. Tags starting with "xml" (in any case) are reserved.
func ValidateTag(tag string) error {
	if !nameRegex.MatchString(tag) {
		return NewValidationError("tag", tag,
			"must start with letter/underscore, contain only alphanumeric, hyphen, dot")
	}
	if strings.HasPrefix(strings.ToLower(tag), "xml") {
		return NewValidationError("tag", tag, "tags starting with 'xml' are reserved")
	}
	return nil
}

// ValidateAttrKey checks that key is suitable as an XML attribute name.
func ValidateAttrKey(key string) error {
	if !nameRegex.MatchString(key) {
		return NewValidationError("attribute", key,
			"must start with letter/underscore, contain only alphanumeric, hyphen, dot")
	}
	return nil
}

// Statuses lists the accepted values of the "status" attribute.
var Statuses = []string{"active", "done", "pending", "blocked", "cancelled"}

// DateLayout is the format of the "due" attribute.
const DateLayout = "2006-01-02"

// ValidateAttribute checks the value of attributes with a well-known meaning
// ("status" and "due"). Other attributes accept any value.
func ValidateAttribute(key, value string) error {
	if err := ValidateAttrKey(key); err != nil {
		return err
	}
	switch key {
	case "status":
		for _, s := range Statuses {
			if value == s {
				return nil
			}
		}
		return NewValidationError("status", value,
			"must be one of "+strings.Join(Statuses, ", "))
	case "due":
		if _, err := time.Parse(DateLayout, value); err != nil {
			return NewValidationError("due", value, "must be a date YYYY-MM-DD")
		}
	}
	return nil
}

// IDMetachars are characters forbidden in ids, as they have a meaning in
// locators and path queries.
const IDMetachars = `/[]@*()|'"=:`

// ValidateID checks an element id: it must be non-empty, must not contain
// whitespace, control characters or locator metacharacters, and must not
// be "." or "..".
func ValidateID(id string) error {
	if id == "" {
		return NewValidationError("id", id, "must not be empty")
	}
	if id == "." || id == ".." {
		return NewValidationError("id", id, "must not be a path step")
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return NewValidationError("id", id, "must not contain whitespace or control characters")
		}
	}
	if i := strings.IndexAny(id, IDMetachars); i >= 0 {
		return NewValidationError("id", id, fmt.Sprintf("must not contain '%c'", id[i]))
	}
	return nil
}

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// Sanitize removes control characters which are not allowed in XML 1.0.
// Tab, newline and carriage return are kept.
func Sanitize(text string) string {
	return controlChars.ReplaceAllString(text, "")
}

// --- Structural checks -----------------------------------------------------

// ErrInvalidStructure is returned by CheckTree for broken trees.
var ErrInvalidStructure = errors.New("invalid document structure")

// CheckTree checks the structural invariants of a tree: every element is
// reachable exactly once, parent links are consistent, tags are valid and
// ids are unique.
func CheckTree(root *Element) error {
	return checkTree(root, true)
}

// CheckStructure is like CheckTree, but does not check ids for uniqueness.
func CheckStructure(root *Element) error {
	return checkTree(root, false)
}

func checkTree(root *Element, uniqueIDs bool) error {
	if root == nil {
		return fmt.Errorf("%w: no root element", ErrInvalidStructure)
	}
	if root.Parent() != nil {
		return fmt.Errorf("%w: root element has a parent", ErrInvalidStructure)
	}
	visited := make(map[*Element]struct{})
	ids := make(map[string]*Element)
	var check func(e *Element) error
	check = func(e *Element) error {
		if _, seen := visited[e]; seen {
			return fmt.Errorf("%w: element %s reachable twice", ErrInvalidStructure, e)
		}
		visited[e] = struct{}{}
		if err := ValidateTag(e.Tag()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
		}
		if id, ok := e.ID(); ok && uniqueIDs {
			if _, dup := ids[id]; dup {
				return fmt.Errorf("%w: duplicate id %q", ErrInvalidStructure, id)
			}
			ids[id] = e
		}
		for _, ch := range e.Children() {
			if ch.ParentElement() != e {
				return fmt.Errorf("%w: broken parent link at %s", ErrInvalidStructure, ch)
			}
			if err := check(ch); err != nil {
				return err
			}
		}
		return nil
	}
	return check(root)
}
