package judge

import (
	"fmt"
	"strings"
)

// ObservationError reports an observation that does not satisfy a test's
// schema. It is raised at test construction, before any model is judged.
type ObservationError struct {
	Test     string
	Problems []string
}

func (e *ObservationError) Error() string {
	return fmt.Sprintf("invalid observation for test %q: %s", e.Test, strings.Join(e.Problems, "; "))
}

// PredictionError reports a model that accepted a test's capability check
// but failed to produce a prediction. Strict judging surfaces it; batch
// judging absorbs it into an insufficient-data score.
type PredictionError struct {
	Test  string
	Model string
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("model %q failed to generate a prediction for test %q: %v", e.Model, e.Test, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }
