// Package validator implements the validation engine: it drives the fixed
// pipeline of endpoint tests against an OPTIMADE implementation and keeps
// the discovered entry types, scraped test IDs and result counters.
package validator

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fivetwenty-io/optimade-validator/internal/console"
	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	validatorhttp "github.com/fivetwenty-io/optimade-validator/internal/http"
	"github.com/fivetwenty-io/optimade-validator/internal/logging"
	"github.com/fivetwenty-io/optimade-validator/internal/schema"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/google/uuid"
)

// Client is the transport the engine issues requests through.
type Client interface {
	Get(ctx context.Context, path string) (*validatorhttp.Response, error)
	BaseURL() string
	LastRequestURL() string
}

// Observer is notified of every recorded test result.
type Observer interface {
	Observe(result optimade.TestResult)
}

// Option configures a Validator.
type Option func(*Validator)

// WithClient injects a ready client. The config must then leave BaseURL
// empty.
func WithClient(client Client) Option {
	return func(v *Validator) {
		v.client = client
	}
}

// WithPrinter sets the console printer for pass/fail lines.
func WithPrinter(printer *console.Printer) Option {
	return func(v *Validator) {
		v.printer = printer
	}
}

// WithObserver adds an observer of test results.
func WithObserver(observer Observer) Option {
	return func(v *Validator) {
		v.observers = append(v.observers, observer)
	}
}

// WithSchemaValidator replaces the embedded schema set.
func WithSchemaValidator(schemas *schema.Validator) Option {
	return func(v *Validator) {
		v.schemas = schemas
	}
}

// Validator runs the conformance pipeline. It is not safe for concurrent
// use.
type Validator struct {
	client    Client
	schemas   *schema.Validator
	printer   *console.Printer
	logger    optimade.Logger
	observers []Observer
	verbosity optimade.Verbosity

	table        *schema.Table
	entryTypes   mapset.Set[string]
	testIDByType map[string]string
	successes    int
	failures     int
	skipped      int
	results      []optimade.TestResult
	validity     optimade.Validity
	runID        string
	startedAt    time.Time
	finishedAt   time.Time
}

// New creates a validator from config. Exactly one of config.BaseURL and
// WithClient must be given.
func New(config *optimade.Config, opts ...Option) (*Validator, error) {
	if config == nil {
		return nil, optimade.ErrConfigRequired
	}

	if config.Verbosity < optimade.VerbositySilent {
		return nil, constants.ErrInvalidVerbosity
	}

	if config.MaxAttempts < 0 {
		return nil, constants.ErrInvalidMaxAttempts
	}

	v := &Validator{
		logger:    config.Logger,
		verbosity: config.Verbosity,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.client != nil && config.BaseURL != "" {
		return nil, constants.ErrBaseURLAndClient
	}

	if v.client == nil && config.BaseURL == "" {
		return nil, constants.ErrBaseURLOrClientRequired
	}

	if v.logger == nil {
		v.logger = logging.NewNop()
	}

	if v.printer == nil {
		v.printer = console.NewPrinter(os.Stdout, console.WithNoColor(config.NoColor))
	}

	if v.schemas == nil {
		schemas, err := schema.NewValidator()
		if err != nil {
			return nil, fmt.Errorf("loading response schemas: %w", err)
		}

		v.schemas = schemas
	}

	if v.client == nil {
		v.client = newHTTPClient(config, v.logger)
	}

	v.reset()

	return v, nil
}

func newHTTPClient(config *optimade.Config, logger optimade.Logger) *validatorhttp.Client {
	maxAttempts := config.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = constants.DefaultMaxAttempts
	}

	retryWait := config.RetryWait
	if retryWait == 0 {
		retryWait = constants.DefaultRetryWait
	}

	opts := []validatorhttp.Option{
		validatorhttp.WithLogger(logger),
		validatorhttp.WithDebug(config.Debug || config.Verbosity >= optimade.VerbosityDebug),
		validatorhttp.WithTimeout(config.HTTPTimeout),
		validatorhttp.WithRetryConfig(maxAttempts, retryWait),
	}

	if config.UserAgent != "" {
		opts = append(opts, validatorhttp.WithUserAgent(config.UserAgent))
	}

	return validatorhttp.NewClient(config.BaseURL, opts...)
}

// reset restores the state created at construction so that Run can be
// repeated.
func (v *Validator) reset() {
	v.table = schema.NewTable()
	v.entryTypes = mapset.NewThreadUnsafeSet(constants.RequiredEntryTypes()...)
	v.testIDByType = make(map[string]string)
	v.successes = 0
	v.failures = 0
	v.skipped = 0
	v.results = nil
	v.validity = optimade.ValidityUnknown
	v.runID = uuid.NewString()
	v.startedAt = time.Time{}
	v.finishedAt = time.Time{}
}

// Run executes every stage of the pipeline for every entry type. Failing
// tests are counted and do not stop the run. A non-nil error is always an
// *optimade.InternalError and leaves the validity unknown.
func (v *Validator) Run(ctx context.Context) (err error) {
	v.reset()
	v.startedAt = time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &optimade.InternalError{Cause: fmt.Errorf("%w: %v", ErrPanic, r), Stack: debug.Stack()}
		}

		if err != nil {
			v.validity = optimade.ValidityUnknown
			v.logger.Error("Validation aborted", map[string]interface{}{"error": err.Error()})
		}

		v.finishedAt = time.Now()
	}()

	v.logger.Info(fmt.Sprintf("Testing %s...", v.client.BaseURL()), map[string]interface{}{"run_id": v.runID})

	v.logger.Debug(fmt.Sprintf("Testing base info endpoint of %s", constants.BaseInfoEndpoint), nil)

	if err := v.testBaseInfo(ctx); err != nil {
		return err
	}

	v.logger.Debug("Testing for expected info endpoints", map[string]interface{}{"entry_types": v.EntryTypes()})

	for _, entryType := range v.EntryTypes() {
		if err := v.testEntryInfo(ctx, entryType); err != nil {
			return err
		}
	}

	for _, entryType := range v.EntryTypes() {
		v.logger.Debug(fmt.Sprintf("Testing multiple entry endpoint of %s", entryType), nil)

		if err := v.testMultiEntry(ctx, entryType); err != nil {
			return err
		}
	}

	for _, entryType := range v.EntryTypes() {
		v.logger.Debug(fmt.Sprintf("Testing single entry request of type %s", entryType), nil)

		if err := v.testSingleEntry(ctx, entryType); err != nil {
			return err
		}
	}

	if v.failures == 0 {
		v.validity = optimade.ValidityValid
	} else {
		v.validity = optimade.ValidityInvalid
	}

	summary := v.summaryLine()
	v.logger.Debug(summary, nil)
	v.printer.Summary(summary)

	return nil
}

func (v *Validator) summaryLine() string {
	return fmt.Sprintf("Passed %d out of %d tests.", v.successes, v.successes+v.failures)
}

// EntryTypes returns the working entry types in sorted order.
func (v *Validator) EntryTypes() []string {
	return mapset.Sorted(v.entryTypes)
}

// TestIDs returns a copy of the test-ID registry.
func (v *Validator) TestIDs() map[string]string {
	ids := make(map[string]string, len(v.testIDByType))
	for entryType, id := range v.testIDByType {
		ids[entryType] = id
	}

	return ids
}

// SuccessCount returns the number of passed tests.
func (v *Validator) SuccessCount() int {
	return v.successes
}

// FailureCount returns the number of failed tests.
func (v *Validator) FailureCount() int {
	return v.failures
}

// SkippedCount returns the number of skipped tests.
func (v *Validator) SkippedCount() int {
	return v.skipped
}

// Validity returns the outcome of the last run.
func (v *Validator) Validity() optimade.Validity {
	return v.validity
}

// Results returns the recorded test results in execution order.
func (v *Validator) Results() []optimade.TestResult {
	return append([]optimade.TestResult(nil), v.results...)
}

// SchemaKeys returns the endpoint keys that currently have a response
// schema.
func (v *Validator) SchemaKeys() []string {
	return v.table.Keys()
}

// Report builds the report of the last run.
func (v *Validator) Report() *optimade.Report {
	return &optimade.Report{
		RunID:      v.runID,
		BaseURL:    v.client.BaseURL(),
		StartedAt:  v.startedAt,
		FinishedAt: v.finishedAt,
		Validity:   v.validity,
		Passed:     v.successes,
		Failed:     v.failures,
		Skipped:    v.skipped,
		EntryTypes: v.EntryTypes(),
		TestIDs:    v.TestIDs(),
		Tests:      v.Results(),
	}
}
