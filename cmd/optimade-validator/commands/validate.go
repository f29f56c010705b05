package commands

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/fivetwenty-io/optimade-validator/internal/logging"
	"github.com/fivetwenty-io/optimade-validator/internal/metrics"
	"github.com/fivetwenty-io/optimade-validator/internal/report"
	"github.com/fivetwenty-io/optimade-validator/pkg/conformance"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/spf13/cobra"
)

var outputFormats = []string{constants.FormatText, constants.FormatTable, constants.FormatJSON, constants.FormatYAML}

func (a *app) runValidation(cmd *cobra.Command, args []string) error {
	baseURL := a.config.GetString("base_url")
	if len(args) == 1 {
		baseURL = args[0]
	}

	level := a.config.GetInt("verbosity")
	if level < 0 {
		return constants.ErrInvalidVerbosity
	}

	if a.config.GetInt("retry-max") < 1 {
		return constants.ErrInvalidMaxAttempts
	}

	output := a.config.GetString("output")
	if !slices.Contains(outputFormats, output) {
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, output)
	}

	// Structured reports own stdout; everything else goes to stderr.
	consoleOut := a.stdout
	if report.IsStructured(output) {
		consoleOut = a.stderr
	}

	verbosity := optimade.VerbosityFromLevel(level)
	noColor := a.config.GetBool("no-color")

	logger := logging.New(verbosity, consoleOut)
	defer func() {
		_ = logger.Sync()
	}()

	userAgent := a.config.GetString("user-agent")
	if userAgent == "" {
		userAgent = constants.UserAgentPrefix + a.version
	}

	sink, err := a.newSink()
	if err != nil {
		return err
	}

	defer func() {
		_ = sink.Close()
	}()

	opts := []conformance.Option{conformance.WithOutput(consoleOut, noColor)}

	var recorder *metrics.Metrics
	if a.config.GetString("metrics-file") != "" {
		recorder = metrics.New()
		opts = append(opts, conformance.WithObserver(recorder))
	}

	v, err := conformance.New(&optimade.Config{
		BaseURL:     baseURL,
		Verbosity:   verbosity,
		HTTPTimeout: a.config.GetDuration("timeout"),
		MaxAttempts: a.config.GetInt("retry-max"),
		RetryWait:   a.config.GetDuration("retry-wait"),
		UserAgent:   userAgent,
		Logger:      logger,
		Debug:       verbosity >= optimade.VerbosityDebug,
		NoColor:     noColor,
	}, opts...)
	if err != nil {
		return err
	}

	runErr := v.Run(cmd.Context())
	result := v.Report()

	if err := report.Render(a.stdout, output, result); err != nil {
		return err
	}

	a.publish(cmd.Context(), consoleOut, sink, result)

	if recorder != nil {
		if err := recorder.WriteTextfile(a.config.GetString("metrics-file")); err != nil {
			_, _ = fmt.Fprintf(consoleOut, "Warning: %v\n", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	a.exitCode = result.Validity.ExitCode()

	return nil
}

// newSink builds the chain of configured report sinks.
func (a *app) newSink() (*report.SinkChain, error) {
	var sinks []report.Sink

	if path := a.config.GetString("report-file"); path != "" {
		sink, err := report.NewSinkFromConfig(&report.SinkConfig{
			Type: report.SinkTypeFile,
			File: &report.FileSinkConfig{Path: path},
		})
		if err != nil {
			return nil, err
		}

		sinks = append(sinks, sink)
	}

	if url := a.config.GetString("nats-url"); url != "" {
		sink, err := report.NewSinkFromConfig(&report.SinkConfig{
			Type: report.SinkTypeNATS,
			NATS: &report.NATSSinkConfig{
				URL:     url,
				Subject: a.config.GetString("nats-subject"),
				Timeout: constants.ShortHTTPTimeout,
			},
		})
		if err != nil {
			_ = report.NewSinkChain(sinks...).Close()

			return nil, err
		}

		sinks = append(sinks, sink)
	}

	return report.NewSinkChain(sinks...), nil
}

// publish sends the report to the sinks. A failed publish is reported but
// does not change the exit code, which reflects the validation only.
func (a *app) publish(ctx context.Context, w io.Writer, sink report.Sink, result *optimade.Report) {
	if err := sink.Publish(ctx, result); err != nil {
		_, _ = fmt.Fprintf(w, "Warning: publishing report: %v\n", err)
	}
}
