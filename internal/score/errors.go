package score

import "fmt"

// InvalidScoreError reports a score payload that violates the constraints
// of its kind. It signals a defect in a test's scoring logic and is never
// absorbed into an incomplete score.
type InvalidScoreError struct {
	Reason string
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("invalid score: %s", e.Reason)
}
