package conformance

import (
	"fmt"
	"io"
	"strings"

	"github.com/fivetwenty-io/optimade-validator/internal/console"
	"github.com/fivetwenty-io/optimade-validator/internal/validator"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
)

// Validator runs the conformance pipeline against one implementation.
type Validator = validator.Validator

// Option configures a Validator.
type Option = validator.Option

// Observer is notified of every recorded test result.
type Observer = validator.Observer

// WithObserver adds an observer of test results, e.g. a metrics recorder.
func WithObserver(observer Observer) Option {
	return validator.WithObserver(observer)
}

// WithOutput sends the pass/fail lines and the summary to w instead of
// standard output.
func WithOutput(w io.Writer, noColor bool) Option {
	return validator.WithPrinter(console.NewPrinter(w, console.WithNoColor(noColor)))
}

// New creates a validator for the implementation at config.BaseURL.
func New(config *optimade.Config, opts ...Option) (*Validator, error) {
	if config == nil {
		return nil, optimade.ErrConfigRequired
	}

	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, optimade.ErrBaseURLRequired
	}

	normalized := *config
	normalized.BaseURL = NormalizeBaseURL(config.BaseURL)

	v, err := validator.New(&normalized, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	return v, nil
}

// NewWithURL creates a validator with default settings.
func NewWithURL(baseURL string, verbosity optimade.Verbosity) (*Validator, error) {
	return New(&optimade.Config{
		BaseURL:   baseURL,
		Verbosity: verbosity,
	})
}

// NormalizeBaseURL trims whitespace and trailing slashes and defaults the
// scheme to https.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}
