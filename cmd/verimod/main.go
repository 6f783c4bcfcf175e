package main

import (
	"errors"
	"fmt"
	"os"
)

// Process exit codes. Scripts distinguish "the suite ran and judged
// models poorly" (1) from "the run itself broke" (2).
const (
	ExitSuccess     = 0
	ExitJudgeFailed = 1
	ExitError       = 2
)

// JudgeFailureError reports a run that completed but did not pass:
// failing verdicts, or incomplete judgments under --strict.
type JudgeFailureError struct {
	Message string
}

func (e *JudgeFailureError) Error() string { return e.Message }

func main() {
	os.Exit(run())
}

func run() int {
	err := execute()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(os.Stderr, err)

	var jf *JudgeFailureError
	if errors.As(err, &jf) {
		return ExitJudgeFailed
	}
	return ExitError
}
