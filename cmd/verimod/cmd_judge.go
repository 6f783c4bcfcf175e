package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verimod/verimod/internal/backend"
	"github.com/verimod/verimod/internal/config"
	"github.com/verimod/verimod/internal/reporting"
)

type judgeFlags struct {
	output   string
	junit    string
	cacheDir string
	strict   bool
	parallel int
}

func newJudgeCommand() *cobra.Command {
	var flags judgeFlags

	cmd := &cobra.Command{
		Use:   "judge <suite.yaml>",
		Short: "Judge every model in a suite against every test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJudge(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the run record as JSON to this path")
	cmd.Flags().StringVar(&flags.junit, "junit", "", "Write JUnit XML to this path")
	cmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "", "Cache backend results under this directory")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Fail when any judgment is incomplete")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 0, "Override the suite's parallelism")

	return cmd
}

func runJudge(cmd *cobra.Command, path string, flags judgeFlags) error {
	spec, err := config.Load(path)
	if err != nil {
		return err
	}
	if flags.parallel > 0 {
		spec.Parallel = flags.parallel
	}

	buildOpts := []config.BuildOption{}
	if flags.cacheDir != "" {
		disk, err := backend.NewDiskCache(flags.cacheDir)
		if err != nil {
			return err
		}
		buildOpts = append(buildOpts, config.WithResultCache(
			&backend.TieredCache{Fast: backend.NewMemoryCache(), Slow: disk}))
	}

	result, err := config.Build(spec, buildOpts...)
	if err != nil {
		return err
	}

	matrix, err := result.Suite.Judge(cmd.Context(), result.Models)
	if err != nil {
		return err
	}

	reporting.RenderMatrix(cmd.OutOrStdout(), matrix, result.Suite.Weights(), terminalWidth())

	outcome := reporting.BuildOutcome(spec.Name, matrix, result.Suite.Weights())
	if flags.output != "" {
		if err := outcome.WriteJSON(flags.output); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run record written to %s\n", flags.output)
	}
	if flags.junit != "" {
		if err := reporting.WriteJUnitXML(outcome, flags.junit); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "JUnit report written to %s\n", flags.junit)
	}

	return verdictError(outcome, flags.strict)
}

// verdictError maps the run record to the process exit contract:
// failing verdicts and low-agreement scores always fail the run,
// incomplete judgments fail it only under --strict. The failure rule is
// the same one the JUnit export applies, so the exit code and the
// artifact never disagree.
func verdictError(outcome *reporting.RunOutcome, strict bool) error {
	var failed, incomplete int
	for _, c := range outcome.Cells {
		switch {
		case !c.Complete:
			incomplete++
		case c.SortValue < reporting.LowAgreementThreshold:
			failed++
		}
	}

	if failed > 0 {
		return &JudgeFailureError{
			Message: fmt.Sprintf("%d of %d judgments failed", failed, len(outcome.Cells)),
		}
	}
	if strict && incomplete > 0 {
		return &JudgeFailureError{
			Message: fmt.Sprintf("%d of %d judgments incomplete", incomplete, len(outcome.Cells)),
		}
	}
	return nil
}

// terminalWidth reports the stdout width, or a default when stdout is
// not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}
