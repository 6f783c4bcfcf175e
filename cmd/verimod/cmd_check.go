package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verimod/verimod/internal/config"
	"github.com/verimod/verimod/internal/reporting"
	"github.com/verimod/verimod/internal/score"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <suite.yaml>",
		Short: "Validate a suite file and report takeability without running models",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0])
		},
	}
}

func runCheck(cmd *cobra.Command, path string) error {
	spec, err := config.Load(path)
	if err != nil {
		return err
	}

	result, err := config.Build(spec)
	if err != nil {
		return err
	}

	matrix := result.Suite.Check(cmd.Context(), result.Models)
	reporting.RenderMatrix(cmd.OutOrStdout(), matrix, result.Suite.Weights(), terminalWidth())

	var na int
	for _, test := range matrix.Tests() {
		for _, model := range matrix.Models() {
			if s, ok := matrix.Get(test, model); ok && s.Kind() == score.KindNA {
				na++
			}
		}
	}
	if na > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d judgment(s) would be skipped for missing capabilities\n", na)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\nall models are capable of all tests\n")
	}
	return nil
}
