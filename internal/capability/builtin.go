package capability

import "context"

// ProducesNumber is the ability to produce a single scalar value.
type ProducesNumber interface {
	ProduceNumber(ctx context.Context) (float64, error)
}

// Runnable is the ability to execute the model as a program, typically by
// delegating to a backend.
type Runnable interface {
	Run(ctx context.Context) (any, error)
}

// Descriptors for the builtin capability interfaces.
var (
	ProducesNumberCap = New[ProducesNumber]("ProducesNumber")
	RunnableCap       = New[Runnable]("Runnable")
)
