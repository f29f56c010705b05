package optimade

import (
	"fmt"
	"time"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Verbosity controls how much the validator reports while running.
type Verbosity int

const (
	// VerbositySilent prints failures and the final summary only.
	VerbositySilent Verbosity = iota
	// VerbosityInfo also prints passing tests and informational log lines.
	VerbosityInfo
	// VerbosityDebug also logs every stage transition and HTTP exchange.
	VerbosityDebug
)

// VerbosityFromLevel maps the numeric -v level of the command line onto a
// Verbosity. Anything above 1 is debug.
func VerbosityFromLevel(level int) Verbosity {
	switch {
	case level <= 0:
		return VerbositySilent
	case level == 1:
		return VerbosityInfo
	default:
		return VerbosityDebug
	}
}

// String implements fmt.Stringer.
func (v Verbosity) String() string {
	switch v {
	case VerbositySilent:
		return "silent"
	case VerbosityInfo:
		return "info"
	case VerbosityDebug:
		return "debug"
	default:
		return fmt.Sprintf("verbosity(%d)", int(v))
	}
}

// Validity is the terminal state of a validation run.
type Validity int

const (
	// ValidityUnknown is the initial state, kept when the run aborts.
	ValidityUnknown Validity = iota
	// ValidityValid means every test passed.
	ValidityValid
	// ValidityInvalid means at least one test failed.
	ValidityInvalid
)

// ExitCode maps a validity onto the process exit status.
func (v Validity) ExitCode() int {
	switch v {
	case ValidityValid:
		return 0
	case ValidityInvalid:
		return 1
	default:
		return 2
	}
}

// String implements fmt.Stringer.
func (v Validity) String() string {
	switch v {
	case ValidityValid:
		return "valid"
	case ValidityInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// MarshalText renders the validity by name in JSON and YAML reports.
func (v Validity) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Config represents the configuration of a validation run.
//
// Only BaseURL is required. conformance.New normalizes it by trimming a
// trailing slash and adding "https://" if no scheme is present.
type Config struct {
	// BaseURL of the implementation under test, e.g. "http://localhost:5000".
	BaseURL string

	// Verbosity of console and log output.
	Verbosity Verbosity

	// HTTPTimeout bounds each attempt. Zero means no timeout.
	HTTPTimeout time.Duration
	// MaxAttempts is the total number of attempts while the server answers
	// 429. If 0, constants.DefaultMaxAttempts is used.
	MaxAttempts int
	// RetryWait is the fixed pause between rate-limited attempts. If 0,
	// constants.DefaultRetryWait is used.
	RetryWait time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Logger receives structured log lines. If nil, logging is discarded.
	Logger Logger
	// Debug enables HTTP request/response logging when a Logger is set.
	Debug bool
	// NoColor disables ANSI colours on the console.
	NoColor bool
}
