package dom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrParse is returned for documents which cannot be parsed.
var ErrParse = errors.New("cannot parse document")

// Parse reads a document from its serialized form. Tags, attribute keys
// and ids are validated. Empty input (or input consisting of whitespace only)
// results in an empty document.
func Parse(data []byte) (*Element, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root, current *Element
	var texts []*strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && current == nil {
				return nil, fmt.Errorf("%w: more than one root element", ErrParse)
			}
			e, err := elementFromToken(t)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParse, err)
			}
			if current == nil {
				root = e
			} else {
				current.AppendChild(e)
			}
			current = e
			texts = append(texts, &strings.Builder{})
		case xml.EndElement:
			current.text = normalizeText(texts[len(texts)-1].String())
			texts = texts[:len(texts)-1]
			current = current.ParentElement()
		case xml.CharData:
			if current != nil {
				texts[len(texts)-1].Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: text outside of root element", ErrParse)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	tracer().Debugf("parsed document with root %s", root)
	return root, nil
}

func elementFromToken(t xml.StartElement) (*Element, error) {
	if t.Name.Space != "" {
		return nil, fmt.Errorf("namespaced element %s:%s not supported", t.Name.Space, t.Name.Local)
	}
	e, err := NewElement(t.Name.Local)
	if err != nil {
		return nil, err
	}
	for _, a := range t.Attr {
		if a.Name.Space != "" {
			return nil, fmt.Errorf("namespaced attribute %s:%s not supported", a.Name.Space, a.Name.Local)
		}
		if a.Name.Local == "id" {
			if err := ValidateID(a.Value); err != nil {
				return nil, err
			}
		}
		if err := e.SetAttr(a.Name.Local, a.Value); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Serialize writes a document as indented XML, including an XML declaration.
// Serializing is deterministic: attributes are written in insertion order.
func Serialize(root *Element) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes a document to w.
func Write(w io.Writer, root *Element) error {
	if root == nil {
		return fmt.Errorf("cannot serialize nil document")
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := encode(enc, root); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encode(enc *xml.Encoder, e *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: e.tag}}
	for _, kv := range e.attrs.Properties() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: kv.Key}, Value: kv.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.text != "" {
		if err := enc.EncodeToken(xml.CharData(e.text)); err != nil {
			return err
		}
	}
	for _, ch := range e.Children() {
		if err := encode(enc, ch); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
