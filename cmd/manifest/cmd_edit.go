package main

import (
	"fmt"

	"github.com/npillmayer/manifest/ident"
	"github.com/npillmayer/manifest/maybe"
	"github.com/npillmayer/manifest/store"
	"github.com/npillmayer/manifest/workspace"
	"github.com/spf13/cobra"
)

func newAddCmd(g *globals) *cobra.Command {
	var (
		tag    string
		parent string
		id     string
		noID   bool
		sf     selectFlags
		af     attrFlags
	)
	cmd := &cobra.Command{
		Use:   "add [tag] [text]",
		Short: "Add an element",
		Long: `Add an element below every element matching --parent (default: the root).

Configured shortcut tags take a topic as their first argument:

  add task "Write changelog"     is short for   add --tag task --topic "Write changelog"`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				tmpl, err := buildTemplate(s, tag, args, &af)
				if err != nil {
					return err
				}
				switch {
				case noID:
					tmpl.ID = ident.None
				case id != "":
					tmpl.ID = ident.Custom(id)
				}
				out, err := s.Insert(sf.target(parent), tmpl)
				if err != nil {
					return explain(cmd.ErrOrStderr(), s, err)
				}
				w := cmd.OutOrStdout()
				if len(out.IDs) == 0 {
					fmt.Fprintf(w, "✓ Added %d <%s> element(s)\n", out.Count, tmpl.Tag)
				}
				for _, newID := range out.IDs {
					fmt.Fprintf(w, "✓ Added node with ID: %s\n", newID)
				}
				for _, kv := range tmpl.Attrs {
					fmt.Fprintf(w, "  %s: %s\n", kv.Key, kv.Value)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "tag of the new element")
	cmd.Flags().StringVar(&parent, "parent", "", "parent selector (id, id prefix or query)")
	cmd.Flags().StringVar(&id, "id", "", "custom id of the new element")
	cmd.Flags().BoolVar(&noID, "no-id", false, "do not assign an id")
	cmd.MarkFlagsMutuallyExclusive("id", "no-id")
	sf.register(cmd)
	af.register(cmd, false)
	return cmd
}

// buildTemplate builds an element template from the arguments of the add command.
func buildTemplate(s *workspace.Session, tag string, args []string, af *attrFlags) (store.Template, error) {
	var text string
	switch {
	case tag != "":
		if len(args) > 1 {
			return store.Template{}, fmt.Errorf("too many arguments")
		}
		if len(args) == 1 {
			text = args[0]
		}
	case len(args) == 0:
		return store.Template{}, fmt.Errorf("no tag given")
	default:
		tag = args[0]
		if len(args) == 2 {
			if s.Config().IsShortcut(tag) && af.topic == "" {
				af.topic = args[1]
			} else {
				text = args[1]
			}
		}
	}
	attrs, err := af.keyValues()
	if err != nil {
		return store.Template{}, err
	}
	tmpl := store.Template{Tag: tag, Attrs: attrs}
	if text != "" {
		tmpl.Text = maybe.Just(text)
	}
	return tmpl, nil
}

func newEditCmd(g *globals) *cobra.Command {
	var (
		text      string
		clearText bool
		sf        selectFlags
		af        attrFlags
	)
	cmd := &cobra.Command{
		Use:   "edit <selector>",
		Short: "Modify attributes and text of elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				patch, err := af.patch()
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("text") {
					patch.Text = maybe.Just(text)
				} else if clearText {
					patch.Text = maybe.Nothing[string]()
				}
				if patch.IsEmpty() {
					return fmt.Errorf("nothing to change")
				}
				out, err := s.Update(sf.target(args[0]), patch)
				if err != nil {
					return explain(cmd.ErrOrStderr(), s, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated %d element(s)\n", out.Count)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "replace the text of the elements")
	cmd.Flags().BoolVar(&clearText, "clear-text", false, "remove the text of the elements")
	cmd.MarkFlagsMutuallyExclusive("text", "clear-text")
	sf.register(cmd)
	af.register(cmd, true)
	return cmd
}

func newDeleteCmd(g *globals) *cobra.Command {
	var sf selectFlags
	cmd := &cobra.Command{
		Use:     "delete <selector>",
		Aliases: []string{"rm"},
		Short:   "Remove elements together with their content",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				out, err := s.Remove(sf.target(args[0]))
				if err != nil {
					return explain(cmd.ErrOrStderr(), s, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d element(s)\n", out.Count)
				return nil
			})
		},
	}
	sf.register(cmd)
	return cmd
}
