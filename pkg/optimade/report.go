package optimade

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Status is the outcome of a single test.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// TestResult holds the result of a single test.
type TestResult struct {
	Stage    string        `json:"stage"             yaml:"stage"`
	Name     string        `json:"name"              yaml:"name"`
	Request  string        `json:"request"           yaml:"request"`
	Status   Status        `json:"status"            yaml:"status"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty"`
	Duration time.Duration `json:"duration"          yaml:"duration"`
}

// Report holds the results of a validation run.
type Report struct {
	RunID       string            `json:"run_id"                yaml:"run_id"`
	BaseURL     string            `json:"base_url"              yaml:"base_url"`
	StartedAt   time.Time         `json:"started_at"            yaml:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"           yaml:"finished_at"`
	Validity    Validity          `json:"validity"              yaml:"validity"`
	Passed      int               `json:"passed"                yaml:"passed"`
	Failed      int               `json:"failed"                yaml:"failed"`
	Skipped     int               `json:"skipped"               yaml:"skipped"`
	EntryTypes  []string          `json:"entry_types"           yaml:"entry_types"`
	TestIDs     map[string]string `json:"test_ids,omitempty"    yaml:"test_ids,omitempty"`
	Tests       []TestResult      `json:"tests"                 yaml:"tests"`
}

// Total is the number of counted tests; skipped tests are not counted.
func (r *Report) Total() int {
	return r.Passed + r.Failed
}

// SummaryLine returns the one-line summary printed at the end of every run.
func (r *Report) SummaryLine() string {
	return fmt.Sprintf("Passed %d out of %d tests.", r.Passed, r.Total())
}

// ToJSON returns the report as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report to JSON: %w", err)
	}

	return data, nil
}

// ToYAML returns the report as YAML.
func (r *Report) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshaling report to YAML: %w", err)
	}

	return data, nil
}

// Summary returns a human-readable multi-line summary.
func (r *Report) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Validation report -- %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Base URL: %s\n", r.BaseURL)
	fmt.Fprintf(&sb, "Entry types: %s\n", strings.Join(r.EntryTypes, ", "))
	fmt.Fprintf(&sb, "Total: %d passed, %d failed, %d skipped (%s)\n\n",
		r.Passed, r.Failed, r.Skipped, r.Validity)

	for _, test := range r.Tests {
		icon := "PASS"
		if test.Status == StatusFailed {
			icon = "FAIL"
		} else if test.Status == StatusSkipped {
			icon = "SKIP"
		}

		fmt.Fprintf(&sb, "  [%s] %s %s", icon, test.Stage, test.Name)

		if test.Message != "" {
			fmt.Fprintf(&sb, " -- %s", strings.ReplaceAll(test.Message, "\n", "; "))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
