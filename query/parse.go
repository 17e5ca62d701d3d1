package query

import (
	"strconv"
	"strings"
)

// Compile parses a query into an expression, which may be evaluated
// repeatedly.
func Compile(expr string) (*Expression, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		return nil, syntaxErrorf("query cannot be empty")
	}
	reader := &pathReader{input: src}
	e := &Expression{source: src}
	for {
		path, err := parsePath(reader)
		if err != nil {
			return nil, err
		}
		e.Paths = append(e.Paths, path)
		reader.skipSpace()
		if reader.atEnd() {
			break
		}
		if !reader.consume("|") {
			return nil, syntaxErrorf("unexpected %q at position %d in %s", reader.rest(), reader.pos, src)
		}
	}
	tracer().Debugf("compiled query %q into %d path(s)", src, len(e.Paths))
	return e, nil
}

func parsePath(reader *pathReader) (Path, error) {
	var path Path
	reader.skipSpace()
	switch {
	case reader.consume("//"):
		path.Absolute = true
		path.Steps = append(path.Steps, Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Any: true}})
	case reader.consume("/"):
		path.Absolute = true
		reader.skipSpace()
		if reader.atEnd() || reader.peek() == '|' {
			return path, nil // "/" alone selects the root element
		}
	}
	for {
		step, err := parseStep(reader)
		if err != nil {
			return Path{}, err
		}
		path.Steps = append(path.Steps, step)
		reader.skipSpace()
		switch {
		case reader.consume("//"):
			path.Steps = append(path.Steps, Step{Axis: AxisDescendantOrSelf, Test: NodeTest{Any: true}})
		case reader.consume("/"):
		default:
			return path, nil
		}
	}
}

func parseStep(reader *pathReader) (Step, error) {
	reader.skipSpace()
	if reader.consume("..") {
		return Step{Axis: AxisParent, Test: NodeTest{Any: true}}, nil
	}
	if reader.consume(".") {
		return Step{Axis: AxisSelf, Test: NodeTest{Any: true}}, nil
	}
	step := Step{Axis: AxisChild}
	if reader.consume("*") {
		step.Test.Any = true
	} else {
		name := reader.readName()
		if name == "" {
			return Step{}, reader.errorf("step is missing a node test")
		}
		step.Test.Local = name
	}
	for {
		reader.skipSpace()
		if !reader.consume("[") {
			return step, nil
		}
		pred, err := parsePredicate(reader)
		if err != nil {
			return Step{}, err
		}
		reader.skipSpace()
		if !reader.consume("]") {
			return Step{}, reader.errorf("missing ']'")
		}
		step.Predicates = append(step.Predicates, pred)
	}
}

func parsePredicate(reader *pathReader) (Predicate, error) {
	reader.skipSpace()
	switch {
	case reader.consume("@"):
		key := reader.readName()
		if key == "" {
			return Predicate{}, reader.errorf("missing attribute name")
		}
		reader.skipSpace()
		kind := PredAttrExists
		if reader.consume("!=") {
			kind = PredAttrNotEquals
		} else if reader.consume("=") {
			kind = PredAttrEquals
		} else {
			return Predicate{Kind: kind, Key: key}, nil
		}
		value, err := reader.readString()
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Kind: kind, Key: key, Value: value}, nil
	case reader.consumeFunc("last"):
		return Predicate{Kind: PredLast}, reader.expect(")")
	case reader.consumeFunc("text"):
		if err := reader.expect(")"); err != nil {
			return Predicate{}, err
		}
		if err := reader.expect("="); err != nil {
			return Predicate{}, err
		}
		value, err := reader.readString()
		return Predicate{Kind: PredTextEquals, Value: value}, err
	case reader.consumeFunc("starts-with"):
		return parseStringFunc(reader, PredStartsWith)
	case reader.consumeFunc("contains"):
		return parseStringFunc(reader, PredContains)
	}
	if n := reader.readNumber(); n != "" {
		pos, err := strconv.Atoi(n)
		if err != nil || pos < 1 {
			return Predicate{}, reader.errorf("invalid position %s", n)
		}
		return Predicate{Kind: PredPosition, Position: pos}, nil
	}
	return Predicate{}, reader.errorf("unsupported predicate")
}

// parseStringFunc parses the arguments of f(@key, 'value').
func parseStringFunc(reader *pathReader, kind PredicateKind) (Predicate, error) {
	if err := reader.expect("@"); err != nil {
		return Predicate{}, err
	}
	key := reader.readName()
	if key == "" {
		return Predicate{}, reader.errorf("missing attribute name")
	}
	if err := reader.expect(","); err != nil {
		return Predicate{}, err
	}
	value, err := reader.readString()
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{Kind: kind, Key: key, Value: value}, reader.expect(")")
}

// --- Reader ----------------------------------------------------------------

type pathReader struct {
	input string
	pos   int
}

func (r *pathReader) atEnd() bool {
	return r.pos >= len(r.input)
}

func (r *pathReader) peek() byte {
	if r.atEnd() {
		return 0
	}
	return r.input[r.pos]
}

func (r *pathReader) rest() string {
	return r.input[r.pos:]
}

func (r *pathReader) skipSpace() {
	for !r.atEnd() && (r.peek() == ' ' || r.peek() == '\t' || r.peek() == '\n' || r.peek() == '\r') {
		r.pos++
	}
}

func (r *pathReader) consume(s string) bool {
	if strings.HasPrefix(r.rest(), s) {
		r.pos += len(s)
		return true
	}
	return false
}

// consumeFunc consumes "name(" if the input continues with a call of name.
func (r *pathReader) consumeFunc(name string) bool {
	start := r.pos
	if !r.consume(name) {
		return false
	}
	r.skipSpace()
	if r.consume("(") {
		return true
	}
	r.pos = start
	return false
}

func (r *pathReader) expect(s string) error {
	r.skipSpace()
	if !r.consume(s) {
		return r.errorf("expected %q", s)
	}
	return nil
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9') || c == '-' || c == '.'
}

func (r *pathReader) readName() string {
	if r.atEnd() || !isNameStart(r.peek()) {
		return ""
	}
	start := r.pos
	for !r.atEnd() && isNameChar(r.peek()) {
		r.pos++
	}
	return r.input[start:r.pos]
}

func (r *pathReader) readNumber() string {
	start := r.pos
	for !r.atEnd() && '0' <= r.peek() && r.peek() <= '9' {
		r.pos++
	}
	return r.input[start:r.pos]
}

func (r *pathReader) readString() (string, error) {
	r.skipSpace()
	quote := r.peek()
	if quote != '\'' && quote != '"' {
		return "", r.errorf("expected string literal")
	}
	end := strings.IndexByte(r.input[r.pos+1:], quote)
	if end < 0 {
		return "", r.errorf("unterminated string literal")
	}
	s := r.input[r.pos+1 : r.pos+1+end]
	r.pos += end + 2
	return s, nil
}

func (r *pathReader) errorf(format string, args ...any) error {
	args = append(args, r.pos, r.input)
	return syntaxErrorf(format+" at position %d in %s", args...)
}
