// Package wizard collects a starter suite definition interactively.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// TestKind is the category of the wizard's generated test.
type TestKind string

const (
	TestKindRange    TestKind = "range"
	TestKindZScore   TestKind = "zscore"
	TestKindEquality TestKind = "equality"
	TestKindRatio    TestKind = "ratio"
)

// SuiteDraft holds all fields collected during the interactive wizard.
type SuiteDraft struct {
	Name        string
	Description string
	ModelNames  []string
	TestName    string
	TestKind    TestKind
}

const suiteYAMLTemplate = `name: {{ .Name }}
description: >
  {{ .Description }}

models:
{{- range .ModelNames }}
  - name: {{ . }}
    kind: constant
    value: 0.0 # replace with the model's produced value
{{- end }}

tests:
  - name: {{ .TestName }}
    kind: {{ .TestKind }}
    observation:
{{- if eq .TestKind "range" }}
      min: 0.0
      max: 1.0
{{- else if eq .TestKind "zscore" }}
      mean: 0.0
      std: 1.0
{{- else }}
      value: 0.0
{{- end }}
`

// RunSuiteWizard runs an interactive huh form to collect a starter
// suite. If initialName is non-empty, it pre-populates the name field.
func RunSuiteWizard(in io.Reader, out io.Writer, initialName string) (*SuiteDraft, error) {
	var (
		name        = initialName
		description string
		modelsRaw   string
		testName    string
		testKind    string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Suite name").
				Description("A short name for this suite").
				Placeholder("my-suite").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("suite name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Description("What does this suite judge?").
				Placeholder("Describe your suite").
				Value(&description),
			huh.NewInput().
				Title("Models").
				Description("Comma-separated names of the models under judgment").
				Placeholder("baseline, candidate").
				Value(&modelsRaw).
				Validate(func(s string) error {
					if len(splitAndTrim(s)) == 0 {
						return fmt.Errorf("at least one model is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("First test name").
				Placeholder("plausible range").
				Value(&testName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("test name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("First test kind").
				Options(
					huh.NewOption("range", "range"),
					huh.NewOption("zscore", "zscore"),
					huh.NewOption("equality", "equality"),
					huh.NewOption("ratio", "ratio"),
				).
				Value(&testKind),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	return &SuiteDraft{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		ModelNames:  splitAndTrim(modelsRaw),
		TestName:    strings.TrimSpace(testName),
		TestKind:    TestKind(testKind),
	}, nil
}

// GenerateSuiteYAML renders a starter suite file from the draft.
func GenerateSuiteYAML(draft *SuiteDraft) (string, error) {
	tmpl, err := template.New("suiteyaml").Parse(suiteYAMLTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, draft); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
