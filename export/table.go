package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/maybe"
)

// ErrTable is returned for tables which cannot be converted to elements.
var ErrTable = errors.New("malformed table")

// Core columns of a table.
const (
	ColID     = "id"
	ColParent = "parent_id"
	ColTag    = "tag"
	ColText   = "text"
)

// TopLevel is the parent_id of rows without a parent row.
const TopLevel = "root"

// Table is the flat form of a set of subtrees. Every row has one cell per
// column; empty cells denote absent attributes.
type Table struct {
	Columns []string
	Rows    [][]string
}

// TableOf flattens the subtrees of elements, in document order of each
// subtree. Elements nested within other elements of the list are listed
// with their ancestor only. The text column is included if withText is set.
func TableOf(elements []*dom.Element, withText bool) *Table {
	selected := make(map[*dom.Element]bool, len(elements))
	for _, e := range elements {
		selected[e] = true
	}
	var flat []*dom.Element
	for _, e := range elements {
		if nestedIn(e, selected) {
			continue
		}
		e.Walk(func(d *dom.Element) bool {
			flat = append(flat, d)
			return true
		})
	}
	keys := make(map[*dom.Element]string, len(flat))
	attrCols := make(map[string]bool)
	for i, e := range flat {
		if id, ok := e.ID(); ok {
			keys[e] = id
		} else {
			keys[e] = "@" + strconv.Itoa(i+1)
		}
		for _, kv := range e.Attributes() {
			if kv.Key != dom.IDKey {
				attrCols[kv.Key] = true
			}
		}
	}
	t := &Table{Columns: []string{ColID, ColParent, ColTag}}
	if withText {
		t.Columns = append(t.Columns, ColText)
	}
	core := len(t.Columns)
	var attrs []string
	for k := range attrCols {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)
	t.Columns = append(t.Columns, attrs...)
	for _, e := range flat {
		row := make([]string, len(t.Columns))
		row[0] = keys[e]
		row[1] = TopLevel
		if p, ok := keys[e.ParentElement()]; ok {
			row[1] = p
		}
		row[2] = e.Tag()
		if withText {
			row[3] = e.Text().WithDefault("")
		}
		for i, k := range attrs {
			row[core+i], _ = e.Attr(k)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func nestedIn(e *dom.Element, selected map[*dom.Element]bool) bool {
	for p := e.ParentElement(); p != nil; p = p.ParentElement() {
		if selected[p] {
			return true
		}
	}
	return false
}

// WriteCSV writes the table as CSV, with a header line of column names.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}

// ReadCSV reads a table written by WriteCSV, or edited elsewhere. The
// columns id, parent_id and tag are required; rows must have as many cells
// as the header has columns.
func ReadCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header", ErrTable)
	}
	t := &Table{Columns: records[0], Rows: records[1:]}
	for _, col := range []string{ColID, ColParent, ColTag} {
		if t.column(col) < 0 {
			return nil, fmt.Errorf("%w: missing column %q", ErrTable, col)
		}
	}
	return t, nil
}

func (t *Table) column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Document converts the table to a document fragment: a new document root
// with the top-level rows as children. Rows refer to their parent by the
// id (or row key) of the parent row, which has to precede them; rows with a
// parent_id of "root", an empty one or an unknown one become top-level
// elements. Tags, ids and attributes are validated.
func (t *Table) Document() (*dom.Element, error) {
	idCol, parentCol, tagCol, textCol := t.column(ColID), t.column(ColParent), t.column(ColTag), t.column(ColText)
	for i, col := range t.Columns {
		if i == idCol || i == parentCol || i == tagCol || i == textCol {
			continue
		}
		if err := dom.ValidateAttrKey(col); err != nil {
			return nil, fmt.Errorf("%w: column %d: %v", ErrTable, i+1, err)
		}
	}
	doc := dom.NewDocument()
	elements := make(map[string]*dom.Element, len(t.Rows))
	for n, row := range t.Rows {
		line := n + 2 // header is line 1
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("%w: line %d has %d cells, expected %d", ErrTable, line, len(row), len(t.Columns))
		}
		e, err := dom.NewElement(strings.TrimSpace(row[tagCol]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrTable, line, err)
		}
		key := strings.TrimSpace(row[idCol])
		if key != "" && !strings.HasPrefix(key, "@") {
			if err := dom.ValidateID(key); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrTable, line, err)
			}
			e.SetAttr(dom.IDKey, key)
		}
		for i, col := range t.Columns {
			if i == idCol || i == parentCol || i == tagCol || i == textCol || row[i] == "" {
				continue
			}
			if err := dom.ValidateAttribute(col, row[i]); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrTable, line, err)
			}
			e.SetAttr(col, row[i])
		}
		if textCol >= 0 && row[textCol] != "" {
			e.SetText(maybe.Just(row[textCol]))
		}
		parent := doc
		if p := strings.TrimSpace(row[parentCol]); p != "" && p != TopLevel {
			if pe, ok := elements[p]; ok {
				parent = pe
			} else {
				tracer().Infof("line %d: unknown parent %q, importing at top level", line, p)
			}
		}
		parent.AppendChild(e)
		if key != "" {
			if _, dup := elements[key]; dup {
				return nil, fmt.Errorf("%w: line %d: duplicate id %q", ErrTable, line, key)
			}
			elements[key] = e
		}
	}
	return doc, nil
}
