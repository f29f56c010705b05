package constants

import "time"

// File permissions.
const (
	// ReportFilePerm is the permission for report files.
	ReportFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout of zero leaves requests unbounded.
	DefaultHTTPTimeout time.Duration = 0

	// ShortHTTPTimeout is used for quick operations such as publishing reports.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultMaxAttempts is the total number of attempts made while the
	// server keeps answering 429 Too Many Requests.
	DefaultMaxAttempts = 5

	// DefaultRetryWait is the fixed pause between rate-limited attempts.
	DefaultRetryWait = 1 * time.Second
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK represents a successful HTTP response.
	HTTPStatusOK = 200

	// HTTPStatusTooManyRequests is the only status that is retried.
	HTTPStatusTooManyRequests = 429
)

// Endpoints and entry types.
const (
	// DefaultBaseURL is used when no base URL is given on the command line.
	DefaultBaseURL = "http://localhost:5000"

	// BaseInfoEndpoint is the self-describing info document of a server.
	BaseInfoEndpoint = "info"

	// EntryTypeStructures is the only entry type every implementation must serve.
	EntryTypeStructures = "structures"

	// EntryTypeCalculations has a built-in response mapping.
	EntryTypeCalculations = "calculations"

	// JSONFormat is the key looked up in entry_types_by_format.
	JSONFormat = "json"
)

// RequiredEntryTypes returns the baseline entry types tested on every run.
func RequiredEntryTypes() []string {
	return []string{EntryTypeStructures}
}

// Test stages.
const (
	StageBaseInfo    = "base_info"
	StageEntryInfo   = "entry_info"
	StageMultiEntry  = "multi_entry"
	StageSingleEntry = "single_entry"
)

// UI and display constants.
const (
	// SuccessSymbol prefixes passing test lines.
	SuccessSymbol = "✔"

	// FailureSymbol prefixes failing test lines.
	FailureSymbol = "✖"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"
)

// Format constants.
const (
	// FormatText prints only the summary line.
	FormatText = "text"

	// FormatTable renders every test in a table.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// Reporting defaults.
const (
	// DefaultNATSSubject is the subject run reports are published on.
	DefaultNATSSubject = "optimade.validator.reports"

	// UserAgentPrefix is combined with the build version.
	UserAgentPrefix = "optimade-validator/"

	// EnvPrefix is the prefix of environment variables read by the CLI.
	EnvPrefix = "OPTIMADE_VALIDATOR"
)
