package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ConstantBackend returns a fixed value on every run. It exists for
// wiring checks and for models whose behavior is fully determined by
// configuration.
type ConstantBackend struct {
	BackendName string
	Value       any
}

func (b *ConstantBackend) Name() string {
	if b.BackendName != "" {
		return b.BackendName
	}
	return "constant"
}

func (b *ConstantBackend) Run(ctx context.Context, params map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Params may override the configured value for a single run.
	if v, ok := params["value"]; ok {
		return v, nil
	}
	return b.Value, nil
}

// FuncBackend adapts a function into a Backend. Useful for in-process
// simulators and for tests.
type FuncBackend struct {
	BackendName string
	Fn          func(ctx context.Context, params map[string]any) (any, error)
}

func (b *FuncBackend) Name() string { return b.BackendName }

func (b *FuncBackend) Run(ctx context.Context, params map[string]any) (any, error) {
	return b.Fn(ctx, params)
}

// programParams are the run parameters the program backend understands.
type programParams struct {
	Args  []string       `mapstructure:"args"`
	Stdin map[string]any `mapstructure:"stdin"`
}

// ProgramBackend shells out to an external simulator. Run parameters may
// carry extra command arguments under "args" and a JSON document to pipe
// to stdin under "stdin". Stdout is parsed as JSON when possible and
// falls back to a bare number or string.
type ProgramBackend struct {
	BackendName string
	Command     string
	Args        []string
}

func (b *ProgramBackend) Name() string {
	if b.BackendName != "" {
		return b.BackendName
	}
	return "program"
}

func (b *ProgramBackend) ValidateParams(params map[string]any) error {
	var p programParams
	if err := mapstructure.Decode(params, &p); err != nil {
		return &ParametersError{Backend: b.Name(), Reason: err.Error()}
	}
	return nil
}

func (b *ProgramBackend) Run(ctx context.Context, params map[string]any) (any, error) {
	var p programParams
	if err := mapstructure.Decode(params, &p); err != nil {
		return nil, &ParametersError{Backend: b.Name(), Reason: err.Error()}
	}

	args := append(append([]string{}, b.Args...), p.Args...)
	cmd := exec.CommandContext(ctx, b.Command, args...)

	if p.Stdin != nil {
		payload, err := json.Marshal(p.Stdin)
		if err != nil {
			return nil, fmt.Errorf("encoding stdin payload: %w", err)
		}
		cmd.Stdin = bytes.NewReader(payload)
	}

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("running %s: %w (stderr: %s)", b.Command, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("running %s: %w", b.Command, err)
	}

	return parseProgramOutput(out), nil
}

// parseProgramOutput interprets simulator stdout, most specific form
// first.
func parseProgramOutput(out []byte) any {
	text := strings.TrimSpace(string(out))
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return n
	}
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err == nil {
		return doc
	}
	return text
}
