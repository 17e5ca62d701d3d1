package main

import (
	"fmt"

	"github.com/npillmayer/manifest/storage"
	"github.com/npillmayer/manifest/store"
	"github.com/npillmayer/manifest/workspace"
	"github.com/spf13/cobra"
)

func newWrapCmd(g *globals) *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "wrap",
		Short: "Move all top-level elements under a new element",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				out, err := s.Wrap(tag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrapped %d element(s) in <%s>\n", out.Count, tag)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tag, "root", "root", "tag of the new element")
	return cmd
}

func newMergeCmd(g *globals) *cobra.Command {
	var remap bool
	cmd := &cobra.Command{
		Use:   "merge <file>",
		Short: "Append the content of another manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				if remap {
					s.Store().SetMergePolicy(store.RemapCollisions)
				}
				out, err := s.MergeFile(args[0], g.password())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "✓ Merged %d item(s)\n", out.Count)
				for _, r := range out.Remapped {
					fmt.Fprintf(w, "  id %s → %s\n", r.Old, r.New)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remap, "remap", false, "assign fresh ids to colliding elements")
	return cmd
}

func newAutoIDCmd(g *globals) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "autoid",
		Short: "Assign ids to all elements lacking one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				out, err := s.EnsureIDs(overwrite)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "✓ Added/updated %d ID(s)\n", out.Count)
				if out.Count == 0 && !overwrite {
					fmt.Fprintln(w, "Tip: Use 'autoid --overwrite' to replace existing IDs")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing ids as well")
	return cmd
}

func newRebuildCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the id index from the document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				idx := s.Store().Index()
				if idx == nil {
					return fmt.Errorf("the id index is disabled (sidecar.enabled)")
				}
				if err := s.Rebuild(); err != nil {
					return err
				}
				if err := s.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Rebuilt index with %d ID(s)\n", idx.Len())
				return nil
			})
		},
	}
}

func newVerifyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the id index against the document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				if err := s.Verify(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Index is consistent")
				return nil
			})
		},
	}
}

func newBackupCmd(g *globals) *cobra.Command {
	var opts storage.BackupOptions
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the manifest and its index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.session(cmd, func(s *workspace.Session) error {
				path, err := s.Backup(opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Backup saved to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Timestamp, "timestamp", false, "use a timestamp in the backup name")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing backup")
	return cmd
}
