/*
Package domdbg implements helpers to debug a document tree.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>


*/
package domdbg

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"text/template"

	"github.com/npillmayer/manifest/dom"
	tp "github.com/xlab/treeprint"
)

// Options control which details of an element are printed.
type Options struct {
	ShowIDs   bool // print ids in front of tags
	ShowAttrs bool // print all other attributes
}

// Print returns a textual tree of a document, one element per line.
func Print(root *dom.Element, opts Options) string {
	printer := tp.NewWithRoot(label(root, opts))
	printChildren(printer, root, opts)
	return printer.String()
}

func printChildren(printer tp.Tree, e *dom.Element, opts Options) {
	for _, ch := range e.Children() {
		if ch.ChildCount() == 0 {
			printer.AddNode(label(ch, opts))
			continue
		}
		branch := printer.AddBranch(label(ch, opts))
		printChildren(branch, ch, opts)
	}
}

func label(e *dom.Element, opts Options) string {
	var b strings.Builder
	if id, ok := e.ID(); ok && opts.ShowIDs {
		fmt.Fprintf(&b, "[%s] ", id)
	}
	b.WriteString(e.Tag())
	if opts.ShowAttrs {
		for _, kv := range e.Attributes() {
			if kv.Key == dom.IDKey {
				continue
			}
			fmt.Fprintf(&b, " %s=%q", kv.Key, kv.Value)
		}
	}
	if text, ok := e.Text().Get(); ok {
		fmt.Fprintf(&b, ": %s", text)
	}
	return b.String()
}

// --- GraphViz --------------------------------------------------------------

// Parameters for GraphViz drawing.
type graphParamsType struct {
	Fontname string
	NodeTmpl *template.Template
	EdgeTmpl *template.Template
}

// ToGraphViz outputs a diagram for a document tree. The diagram is in
// GraphViz (DOT) format.
func ToGraphViz(doc *dom.Element, w io.Writer) error {
	tmpl, err := template.New("dom").Parse(graphHeadTmpl)
	if err != nil {
		return err
	}
	gparams := graphParamsType{Fontname: "Helvetica"}
	gparams.NodeTmpl = template.Must(template.New("domnode").Funcs(
		template.FuncMap{
			"shortstring": shortText,
		}).Parse(domNodeTmpl))
	gparams.EdgeTmpl = template.Must(template.New("domedge").Parse(domEdgeTmpl))
	if err = tmpl.Execute(w, gparams); err != nil {
		return err
	}
	dict := make(map[*dom.Element]string, 256)
	if err = nodes(doc, w, dict, &gparams); err != nil {
		return err
	}
	_, err = w.Write([]byte("}\n"))
	return err
}

// Dotty is a helper for testing. Given a document and a testing.T, it will
// create a Graphiviz image of the tree under `doc` and write it to
// a file in the current folder, choosing a unique file name.
// The image is in SVG format.
//
// If an error occurs, t.Error(…) will be set, causing the test to fail.
func Dotty(doc *dom.Element, t *testing.T) {
	tmpfile, err := os.CreateTemp(".", "dom.*.dot")
	if err != nil {
		t.Error(err)
		return
	}
	defer func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name()) // clean up
	}()
	t.Logf("writing DOM digraph to %s\n", tmpfile.Name())
	if err := ToGraphViz(doc, tmpfile); err != nil {
		t.Error(err)
		return
	}
	outOption := fmt.Sprintf("-o%s.svg", tmpfile.Name())
	cmd := exec.Command("dot", "-Tsvg", outOption, tmpfile.Name())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Error(err.Error())
	}
}

type node struct {
	E    *dom.Element
	Name string
}

func nodes(e *dom.Element, w io.Writer, dict map[*dom.Element]string, gparams *graphParamsType) error {
	name := fmt.Sprintf("node%05d", len(dict)+1)
	dict[e] = name
	if err := gparams.NodeTmpl.Execute(w, &node{e, name}); err != nil {
		return err
	}
	for _, ch := range e.Children() {
		if err := nodes(ch, w, dict, gparams); err != nil {
			return err
		}
		edge := edge{node{e, name}, node{ch, dict[ch]}}
		if err := gparams.EdgeTmpl.Execute(w, edge); err != nil {
			return err
		}
	}
	return nil
}

type edge struct {
	N1, N2 node
}

func shortText(e *dom.Element) string {
	text := e.Text().WithDefault("")
	s := "\"" + e.Tag()
	if id, ok := e.ID(); ok {
		s += "\\n" + id
	}
	if text != "" {
		if len(text) > 10 {
			text = text[:10] + "..."
		}
		text = strings.ReplaceAll(text, "\"", "'")
		s += "\\n\\\"" + text + "\\\""
	}
	return s + "\""
}

// --- Templates --------------------------------------------------------

const graphHeadTmpl = `digraph g {
  graph [labelloc="t" label="" splines=true overlap=false rankdir = "LR"];
  graph [fontname = "{{ .Fontname }}" fontsize=14] ;
   node [fontname = "{{ .Fontname }}" fontsize=14] ;
   edge [fontname = "{{ .Fontname }}" fontsize=14] ;
`

const domNodeTmpl = `{{ .Name }}	[ label={{ shortstring .E }} shape=ellipse style=filled fillcolor=lightblue3 ] ;
`

const domEdgeTmpl = `{{ .N1.Name }} -> {{ .N2.Name }} [weight=1] ;
`
