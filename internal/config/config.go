// Package config loads suite definitions from YAML, validates them
// against the embedded JSON Schema, and builds runnable suites from
// them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/verimod/verimod/schemas"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// suiteSchema is the compiled JSON Schema for suite YAML files.
var suiteSchema *jsonschema.Schema

func init() {
	suiteSchema = mustCompileSchema(schemas.SuiteSchemaJSON, "suite.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// SuiteSpec is the YAML shape of a suite definition file.
type SuiteSpec struct {
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description"`
	Parallel      int                `yaml:"parallel"`
	IncludeModels []string           `yaml:"include_models"`
	SkipModels    []string           `yaml:"skip_models"`
	Weights       map[string]float64 `yaml:"weights"`
	Backends      []BackendSpec      `yaml:"backends"`
	Models        []ModelSpec        `yaml:"models"`
	Tests         []TestSpec         `yaml:"tests"`
}

// BackendSpec declares a backend to register before judging.
type BackendSpec struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Value   any      `yaml:"value"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ModelSpec declares a model under judgment.
type ModelSpec struct {
	Name    string         `yaml:"name"`
	Kind    string         `yaml:"kind"`
	Value   float64        `yaml:"value"`
	Low     float64        `yaml:"low"`
	High    float64        `yaml:"high"`
	Seed    uint64         `yaml:"seed"`
	Backend string         `yaml:"backend"`
	Params  map[string]any `yaml:"params"`
}

// TestSpec declares one test and its observation.
type TestSpec struct {
	Name        string         `yaml:"name"`
	Kind        string         `yaml:"kind"`
	Observation map[string]any `yaml:"observation"`
	Converter   *ConverterSpec `yaml:"converter"`
}

// ConverterSpec declares an optional score conversion for a test.
type ConverterSpec struct {
	Kind   string  `yaml:"kind"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Cutoff float64 `yaml:"cutoff"`
}

// Load reads and validates a suite definition file. Schema violations
// are reported together, one per line.
func Load(path string) (*SuiteSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes raw suite YAML.
func Parse(data []byte) (*SuiteSpec, error) {
	if errs := validateYAMLBytes(suiteSchema, data); len(errs) > 0 {
		return nil, fmt.Errorf("suite definition is invalid:\n  %s", strings.Join(errs, "\n  "))
	}

	var spec SuiteSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decoding suite file: %w", err)
	}
	return &spec, nil
}

func validateYAMLBytes(schema *jsonschema.Schema, data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}

	// Round-trip through JSON so YAML-decoded values become
	// schema-comparable instances.
	encoded, err := json.Marshal(yamlDoc)
	if err != nil {
		return []string{fmt.Sprintf("suite file is not JSON-encodable: %v", err)}
	}
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(string(encoded)))
	if err != nil {
		return []string{fmt.Sprintf("suite file decode: %v", err)}
	}

	validationErr := schema.Validate(instance)
	if validationErr == nil {
		return nil
	}
	ve, ok := validationErr.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", validationErr)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
