package validator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
)

// testFunc is a single test step. A nil error is a pass described by the
// returned message.
type testFunc func(ctx context.Context) (string, error)

// runTest runs fn as one counted test. Recognised failures are counted and
// reported on the console; the returned error is non-nil only for faults
// that must abort the run.
func (v *Validator) runTest(ctx context.Context, stage, name string, fn testFunc) (bool, error) {
	start := time.Now()
	message, err := fn(ctx)

	result := optimade.TestResult{
		Stage:    stage,
		Name:     name,
		Request:  v.request(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		v.successes++
		result.Status = optimade.StatusPassed
		result.Message = message

		if v.verbosity >= optimade.VerbosityInfo {
			v.printer.Success(result.Request, message)
		}

	case optimade.IsRecoverable(err):
		v.failures++
		result.Status = optimade.StatusFailed
		result.Message = describe(err)

		v.printer.Failure(result.Request)
		v.printer.Warning(result.Message)

	default:
		var internalErr *optimade.InternalError
		if errors.As(err, &internalErr) {
			return false, internalErr
		}

		return false, &optimade.InternalError{
			Cause: fmt.Errorf("%s test %s: %w", stage, name, err),
			Stack: debug.Stack(),
		}
	}

	v.record(result)

	return err == nil, nil
}

// skip records a test that could not run. Skips are not counted as passes
// or failures.
func (v *Validator) skip(stage, name, reason string) {
	v.skipped++
	v.logger.Warn(reason, map[string]interface{}{"stage": stage, "entry_type": name})

	v.record(optimade.TestResult{
		Stage:   stage,
		Name:    name,
		Status:  optimade.StatusSkipped,
		Message: reason,
	})
}

func (v *Validator) record(result optimade.TestResult) {
	v.results = append(v.results, result)

	for _, observer := range v.observers {
		observer.Observe(result)
	}
}

// request is the URL a result is attributed to: the last request issued, or
// the base URL before any request.
func (v *Validator) request() string {
	if last := v.client.LastRequestURL(); last != "" {
		return last
	}

	return v.client.BaseURL()
}

// describe renders err as "<Kind>: <message>", one such block per error
// when several were joined.
func describe(err error) string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			parts = append(parts, describe(e))
		}

		return strings.Join(parts, "\n")
	}

	kind := optimade.ErrorKind(err)
	if kind == "" {
		kind = "Error"
	}

	return fmt.Sprintf("%s: %v", kind, err)
}
