// Package optimade defines the public types shared by the OPTIMADE
// implementation validator: configuration, the logger contract, the error
// taxonomy used to classify test outcomes, the response models produced by
// schema validation, and the run report.
//
// Most programs build a validator through pkg/conformance and only use this
// package for its types:
//
//	v, err := conformance.New(&optimade.Config{
//	  BaseURL:   "https://example.org/optimade/v1",
//	  Verbosity: optimade.VerbosityInfo,
//	})
//	if err != nil { log.Fatal(err) }
//
//	if err := v.Run(ctx); err != nil {
//	  // internal fault: v.Validity() is ValidityUnknown
//	}
//	os.Exit(v.Validity().ExitCode())
//
// # Error classification
//
// Every test step either succeeds or fails with one of the recoverable error
// kinds (*ResponseError, *ValidationError, *ManualValidationError or an error
// wrapping ErrRetriesExhausted). Those are counted as test failures and the
// run continues. Any other error aborts the run as an *InternalError.
package optimade
