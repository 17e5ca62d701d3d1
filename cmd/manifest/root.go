package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/manifest/config"
	"github.com/npillmayer/manifest/storage"
	"github.com/npillmayer/manifest/workspace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags of the command tree.
type globals struct {
	file        string
	passwordEnv string
	verbose     bool
	rebuild     bool
}

var traceKeys = []string{
	"manifest.tree", "manifest.dom", "manifest.query", "manifest.sidecar",
	"manifest.ident", "manifest.selector", "manifest.store", "manifest.config",
	"manifest.storage", "manifest.workspace", "manifest.export",
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "manifest",
		Short:         "Edit hierarchical XML manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := tracing.LevelError
			if g.verbose {
				level = tracing.LevelDebug
			}
			for _, key := range traceKeys {
				tracing.Select(key).SetTraceLevel(level)
			}
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&g.file, "file", "f", "", "manifest file (.xml, or .mfz for encrypted archives)")
	flags.StringVar(&g.passwordEnv, "password-env", "MANIFEST_PASSWORD", "environment variable holding the archive password")
	flags.BoolVar(&g.verbose, "verbose", false, "trace internal operations")
	flags.BoolVar(&g.rebuild, "rebuild-index", false, "rebuild the id index when opening the file")

	root.AddCommand(
		newAddCmd(g),
		newEditCmd(g),
		newDeleteCmd(g),
		newFindCmd(g),
		newListCmd(g),
		newWrapCmd(g),
		newMergeCmd(g),
		newAutoIDCmd(g),
		newRebuildCmd(g),
		newVerifyCmd(g),
		newBackupCmd(g),
		newExportCalendarCmd(g),
		newExportCSVCmd(g),
		newImportCSVCmd(g),
		newConfigCmd(g),
	)
	return root
}

func (g *globals) password() *storage.Password {
	if g.passwordEnv == "" {
		return nil
	}
	return storage.NewPassword([]byte(os.Getenv(g.passwordEnv)))
}

func (g *globals) config() (config.Config, error) {
	return config.Load(g.file)
}

// session opens the manifest file, runs f and saves the document if f has
// modified it.
func (g *globals) session(cmd *cobra.Command, f func(s *workspace.Session) error) error {
	if g.file == "" {
		return fmt.Errorf("no manifest file given, use --file")
	}
	cfg, err := g.config()
	if err != nil {
		return err
	}
	s, err := workspace.Open(g.file, workspace.Options{
		Config:       cfg,
		Password:     g.password(),
		Prompter:     &stdinPrompter{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()},
		ForceRebuild: g.rebuild,
	})
	if err != nil {
		return err
	}
	defer s.Close()
	for _, w := range s.Warnings() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", w)
	}
	if err := f(s); err != nil {
		return err
	}
	if s.Modified() {
		return s.Save()
	}
	return nil
}

// stdinPrompter asks questions on the terminal.
type stdinPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *stdinPrompter) Confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(p.in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
