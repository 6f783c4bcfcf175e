package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verimod/verimod/internal/wizard"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <suite-name>",
		Short: "Create a starter suite file",
		Long: `Create a starter suite file for judging models.

When running in a terminal (TTY), launches an interactive wizard to
collect suite metadata. In non-interactive environments (CI, pipes),
writes a minimal template using the given name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing suite file")

	return cmd
}

func initCommandE(cmd *cobra.Command, suiteName string, force bool) error {
	path := filepath.Join(".", suiteName+".yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	draft := &wizard.SuiteDraft{
		Name:       suiteName,
		ModelNames: []string{"baseline"},
		TestName:   "plausible range",
		TestKind:   wizard.TestKindRange,
	}

	// Check TTY from the command's input stream, not os.Stdin directly.
	inReader := cmd.InOrStdin()
	isTTY := false
	if f, ok := inReader.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	if isTTY {
		collected, err := wizard.RunSuiteWizard(cmd.InOrStdin(), cmd.OutOrStdout(), suiteName)
		if err != nil {
			return err
		}
		if collected.Name != "" && collected.Name != suiteName {
			return fmt.Errorf("wizard name %q does not match CLI argument %q", collected.Name, suiteName)
		}
		collected.Name = suiteName
		draft = collected
	}

	content, err := wizard.GenerateSuiteYAML(draft)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	return nil
}
