// Package conformance is the entry point for validating an OPTIMADE
// implementation from Go code.
//
// It normalizes an optimade.Config and returns a validator ready to Run:
//
//	import (
//	  "context"
//	  "log"
//	  "os"
//
//	  "github.com/fivetwenty-io/optimade-validator/pkg/conformance"
//	  "github.com/fivetwenty-io/optimade-validator/pkg/optimade"
//	)
//
//	func example() {
//	  v, err := conformance.NewWithURL("localhost:5000", optimade.VerbosityInfo)
//	  if err != nil { log.Fatal(err) }
//
//	  if err := v.Run(context.Background()); err != nil {
//	    log.Printf("validation aborted: %v", err)
//	  }
//
//	  os.Exit(v.Validity().ExitCode())
//	}
//
// The base URL is trimmed of a trailing slash and given an "https://"
// scheme when it has none, so "localhost:5000" above is validated at
// "https://localhost:5000". Pass a full "http://" URL for plain HTTP.
package conformance
