package main

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/manifest/dom"
	"github.com/npillmayer/manifest/export"
	"github.com/npillmayer/manifest/storage"
	"github.com/npillmayer/manifest/store"
	"github.com/npillmayer/manifest/workspace"
	"github.com/spf13/cobra"
)

func newExportCalendarCmd(g *globals) *cobra.Command {
	var (
		name string
		sf   selectFlags
	)
	cmd := &cobra.Command{
		Use:   "export-calendar <selector> <output.ics>",
		Short: "Export elements with a due date as iCalendar events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				res, err := s.Find(sf.target(args[0]))
				if err != nil {
					return explain(cmd.ErrOrStderr(), s, err)
				}
				var buf bytes.Buffer
				n, err := export.WriteCalendar(&buf, res.Nodes, export.CalendarOptions{Name: name})
				if err != nil {
					return err
				}
				if n == 0 {
					return fmt.Errorf("none of %d matching element(s) has a due date (YYYY-MM-DD)", len(res.Nodes))
				}
				if err := storage.WriteFileAtomic(args[1], buf.Bytes(), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d event(s) to %s\n", n, args[1])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", export.DefaultCalendarName, "calendar name")
	sf.register(cmd)
	return cmd
}

func newExportCSVCmd(g *globals) *cobra.Command {
	var (
		output string
		noText bool
		sf     selectFlags
	)
	cmd := &cobra.Command{
		Use:   "export-csv [selector]",
		Short: "Export the document, or matching subtrees, as a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				elements := s.Root().Children()
				if len(args) > 0 {
					res, err := s.Find(sf.target(args[0]))
					if err != nil {
						return explain(cmd.ErrOrStderr(), s, err)
					}
					elements = res.Nodes
				}
				table := export.TableOf(elements, !noText)
				var buf bytes.Buffer
				if err := table.WriteCSV(&buf); err != nil {
					return err
				}
				if output == "" {
					_, err := cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				if err := storage.WriteFileAtomic(output, buf.Bytes(), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d row(s) to %s\n", len(table.Rows), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: standard output)")
	cmd.Flags().BoolVar(&noText, "no-text", false, "leave out the text column")
	sf.register(cmd)
	return cmd
}

func newImportCSVCmd(g *globals) *cobra.Command {
	var remap, dryRun bool
	cmd := &cobra.Command{
		Use:   "import-csv <file>",
		Short: "Append the elements of a table to the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := storage.Load(args[0], nil)
			if err != nil {
				return err
			}
			table, err := export.ReadCSV(bytes.NewReader(data))
			if err != nil {
				return err
			}
			fragment, err := table.Document()
			if err != nil {
				return err
			}
			return g.session(cmd, func(s *workspace.Session) error {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Importing %d element(s) from %s\n", len(table.Rows), args[0])
				fmt.Fprintf(w, "Tags: %s\n", tagCounts(fragment))
				if dryRun {
					fmt.Fprintln(w, "[dry run, no changes made]")
					return nil
				}
				if remap {
					s.Store().SetMergePolicy(store.RemapCollisions)
				}
				out, err := s.Merge(fragment)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "✓ Imported %d item(s)\n", out.Count)
				for _, r := range out.Remapped {
					fmt.Fprintf(w, "  id %s → %s\n", r.Old, r.New)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remap, "remap", false, "assign fresh ids to colliding elements")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only show what would be imported")
	return cmd
}

func tagCounts(fragment *dom.Element) string {
	counts := make(map[string]int)
	for _, e := range fragment.Descendents() {
		counts[e.Tag()]++
	}
	var tags []string
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = fmt.Sprintf("%s(%d)", tag, counts[tag])
	}
	return strings.Join(parts, ", ")
}
