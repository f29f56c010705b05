// Package report renders validation reports and publishes them to sinks.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Render writes r to w in the given output format. The text format writes
// nothing because the summary line is printed by the console.
func Render(w io.Writer, format string, r *optimade.Report) error {
	switch format {
	case "", constants.FormatText:
		return nil
	case constants.FormatTable:
		return renderTable(w, r)
	case constants.FormatJSON:
		data, err := r.ToJSON()
		if err != nil {
			return err
		}

		return writeDocument(w, data)
	case constants.FormatYAML:
		data, err := r.ToYAML()
		if err != nil {
			return err
		}

		return writeDocument(w, data)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, format)
	}
}

// IsStructured reports whether format produces a machine-readable document.
func IsStructured(format string) bool {
	return format == constants.FormatJSON || format == constants.FormatYAML
}

func writeDocument(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	return nil
}

func renderTable(w io.Writer, r *optimade.Report) error {
	table := tablewriter.NewWriter(w)
	table.Header("Stage", "Test", "Request", "Status", "Duration", "Message")

	for _, test := range r.Tests {
		message := strings.ReplaceAll(test.Message, "\n", " ")
		if message == "" {
			message = constants.NotAvailable
		}

		if err := table.Append([]string{
			StageTitle(test.Stage),
			test.Name,
			test.Request,
			string(test.Status),
			test.Duration.Round(time.Millisecond).String(),
			message,
		}); err != nil {
			return fmt.Errorf("rendering report table: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering report table: %w", err)
	}

	return nil
}

// StageTitle turns a stage name such as "multi_entry" into "Multi Entry".
func StageTitle(stage string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(stage, "_", " "))
}
