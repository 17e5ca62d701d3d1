package main

import (
	"fmt"
	"io"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/dom/domdbg"
	"github.com/npillmayer/manifest/workspace"
	"github.com/spf13/cobra"
)

func newFindCmd(g *globals) *cobra.Command {
	var (
		tree bool
		sf   selectFlags
	)
	cmd := &cobra.Command{
		Use:   "find <selector>",
		Short: "Find elements by id, id prefix or query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				res, err := s.Find(sf.target(args[0]))
				if err != nil {
					return explain(cmd.ErrOrStderr(), s, err)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Found %d match(es)\n", len(res.Nodes))
				for _, e := range res.Nodes {
					if tree {
						fmt.Fprintf(w, "\n%s\n", dom.Locator(e))
						fmt.Fprint(w, render(s, e))
						continue
					}
					describe(w, e)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&tree, "tree", false, "show the subtrees of matching elements")
	sf.register(cmd)
	return cmd
}

func newListCmd(g *globals) *cobra.Command {
	var sf selectFlags
	cmd := &cobra.Command{
		Use:   "list [selector]",
		Short: "Show the document, or the subtrees of matching elements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				w := cmd.OutOrStdout()
				if len(args) == 0 {
					fmt.Fprint(w, render(s, s.Root()))
					return nil
				}
				res, err := s.Find(sf.target(args[0]))
				if err != nil {
					return explain(cmd.ErrOrStderr(), s, err)
				}
				for _, e := range res.Nodes {
					fmt.Fprint(w, render(s, e))
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("tree", true, "show subtrees (the default)")
	sf.register(cmd)
	return cmd
}

func render(s *workspace.Session, e *dom.Element) string {
	return domdbg.Print(e, domdbg.Options{
		ShowIDs:   s.Config().Display.ShowIDs,
		ShowAttrs: true,
	})
}

func describe(w io.Writer, e *dom.Element) {
	fmt.Fprintln(w)
	if id, ok := e.ID(); ok {
		fmt.Fprintf(w, "  ID: %s\n", id)
	}
	fmt.Fprintf(w, "     Path: %s\n", dom.Locator(e))
	if topic, ok := e.Attr("topic"); ok {
		fmt.Fprintf(w, "     Topic: %s\n", topic)
	}
	if status, ok := e.Attr("status"); ok {
		fmt.Fprintf(w, "     Status: %s\n", status)
	}
}
