package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/verimod/verimod/internal/score"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one model's column of the score matrix.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one (test, model) judgment.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a completed judgment with a failing verdict.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a judgment that could not complete.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitSkipped marks a judgment that was not applicable.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// LowAgreementThreshold is the normalized score below which a complete
// judgment counts as failing. Boolean verdicts sort to exactly 1 or 0,
// so a Fail always lands under it.
const LowAgreementThreshold = 0.05

// ConvertToJUnit maps a run record to JUnit XML: one testsuite per
// model, one testcase per judgment. NA and TBD scores become skips,
// other incomplete scores become errors, failing boolean verdicts and
// low-agreement numeric scores become failures.
func ConvertToJUnit(outcome *RunOutcome) *JUnitTestSuites {
	suites := &JUnitTestSuites{}

	byModel := map[string][]CellRecord{}
	for _, c := range outcome.Cells {
		byModel[c.Model] = append(byModel[c.Model], c)
	}

	for i, model := range outcome.Models {
		ts := JUnitTestSuite{
			Name:      model,
			Timestamp: outcome.Timestamp.Format(time.RFC3339),
			Properties: []JUnitProperty{
				{Name: "suite", Value: outcome.Suite},
				{Name: "run_id", Value: outcome.RunID},
			},
		}
		if i < len(outcome.Digests) {
			ts.Properties = append(ts.Properties, JUnitProperty{
				Name:  "mean_norm_score",
				Value: fmt.Sprintf("%.4f", outcome.Digests[i].MeanNormScore),
			})
		}

		for _, c := range byModel[model] {
			tc := convertCell(outcome.Suite, c)
			ts.Tests++
			switch {
			case tc.Failure != nil:
				ts.Failures++
			case tc.Error != nil:
				ts.Errors++
			case tc.Skipped != nil:
				ts.Skipped++
			}
			ts.TestCases = append(ts.TestCases, tc)
		}

		suites.Tests += ts.Tests
		suites.Failures += ts.Failures
		suites.Errors += ts.Errors
		suites.TestSuites = append(suites.TestSuites, ts)
	}

	return suites
}

func convertCell(suiteName string, c CellRecord) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      c.Test,
		Classname: suiteName + "." + c.Model,
	}

	switch score.Kind(c.Kind) {
	case score.KindNA, score.KindTBD, score.KindNone:
		tc.Skipped = &JUnitSkipped{Message: c.Description}
	case score.KindInsufficientData:
		tc.Error = &JUnitError{
			Message: c.Description,
			Type:    "InsufficientData",
		}
	case score.KindBoolean:
		if c.Display == "Fail" {
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: %s", c.Test, c.Display),
				Type:    "VerdictFailure",
				Body:    c.Description,
			}
		}
	default:
		// Numeric kinds fail below the agreement cutoff.
		if c.SortValue < LowAgreementThreshold {
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%s: %s (norm=%.4f)", c.Test, c.Display, c.NormScore),
				Type:    "LowAgreement",
				Body:    c.Description,
			}
		}
	}

	return tc
}

// WriteJUnitXML writes the run record as JUnit XML to path.
func WriteJUnitXML(outcome *RunOutcome, path string) error {
	suites := ConvertToJUnit(outcome)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
