package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/maybe"
	"github.com/npillmayer/manifest/selector"
	"github.com/npillmayer/manifest/store"
	"github.com/npillmayer/manifest/workspace"
	"github.com/spf13/cobra"
)

// selectFlags force the interpretation of selectors.
type selectFlags struct {
	forceID    bool
	forceQuery bool
}

func (sf *selectFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&sf.forceID, "force-id", false, "interpret the selector as id or id prefix")
	cmd.Flags().BoolVar(&sf.forceQuery, "force-query", false, "interpret the selector as path query")
	cmd.MarkFlagsMutuallyExclusive("force-id", "force-query")
}

func (sf *selectFlags) target(sel string) store.Target {
	t := store.Sel(sel)
	switch {
	case sf.forceID:
		t.Force = selector.ForceID
	case sf.forceQuery:
		t.Force = selector.ForceQuery
	}
	return t
}

// attrFlags collect attribute modifications.
type attrFlags struct {
	attrs  []string
	unset  []string
	topic  string
	status string
	resp   string
	due    string
}

func (af *attrFlags) register(cmd *cobra.Command, withUnset bool) {
	cmd.Flags().StringArrayVarP(&af.attrs, "attr", "a", nil, "set attribute, as key=value (repeatable)")
	cmd.Flags().StringVar(&af.topic, "topic", "", "topic or title")
	cmd.Flags().StringVar(&af.status, "status", "", "status ("+strings.Join(dom.Statuses, ", ")+")")
	cmd.Flags().StringVar(&af.resp, "resp", "", "responsible party")
	cmd.Flags().StringVar(&af.due, "due", "", "due date, as YYYY-MM-DD")
	if withUnset {
		cmd.Flags().StringArrayVar(&af.unset, "unset", nil, "remove attribute (repeatable)")
	}
}

// keyValues returns the attributes to set, in the order given.
func (af *attrFlags) keyValues() ([]dom.KeyValue, error) {
	var kvs []dom.KeyValue
	for _, named := range []dom.KeyValue{
		{Key: "topic", Value: af.topic},
		{Key: "status", Value: af.status},
		{Key: "resp", Value: af.resp},
		{Key: "due", Value: af.due},
	} {
		if named.Value != "" {
			kvs = append(kvs, named)
		}
	}
	for _, a := range af.attrs {
		k, v, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("attribute %q is not of the form key=value", a)
		}
		kvs = append(kvs, dom.KeyValue{Key: strings.TrimSpace(k), Value: v})
	}
	return kvs, nil
}

func (af *attrFlags) patch() (store.Patch, error) {
	kvs, err := af.keyValues()
	if err != nil {
		return store.Patch{}, err
	}
	p := store.Patch{Attrs: make(map[string]maybe.Maybe[string])}
	for _, kv := range kvs {
		p.Attrs[kv.Key] = maybe.Just(kv.Value)
	}
	for _, k := range af.unset {
		p.Attrs[k] = maybe.Nothing[string]()
	}
	return p, nil
}

// explain prints the candidates of an ambiguous id prefix.
func explain(w io.Writer, s *workspace.Session, err error) error {
	var amb *store.AmbiguousError
	if !errors.As(err, &amb) {
		return err
	}
	fmt.Fprintf(w, "Multiple ids match '%s':\n", amb.Prefix)
	for i, id := range amb.Candidates {
		line := fmt.Sprintf("  [%d] %s", i+1, id)
		if res, rerr := s.Find(store.ByID(id)); rerr == nil && len(res.Nodes) == 1 {
			e := res.Nodes[0]
			if status, ok := e.Attr("status"); ok {
				line += " (" + status + ")"
			}
			if topic, ok := e.Attr("topic"); ok {
				line += " - " + topic
			}
		}
		fmt.Fprintln(w, line)
	}
	return err
}
