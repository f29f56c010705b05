package optimade

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrRetriesExhausted is returned once every attempt was rate limited.
	ErrRetriesExhausted = errors.New("hit max (manual) retries on request")

	// ErrUnknownEndpoint means no response schema is registered for a path.
	// It is a programming error and aborts the run.
	ErrUnknownEndpoint = errors.New("no response schema registered for endpoint")

	ErrConfigRequired  = errors.New("config is required")
	ErrBaseURLRequired = errors.New("base URL is required")
)

// ResponseError reports a transport-level failure: the request could not be
// made, the server answered with an unexpected status, or the response could
// not be used at all.
type ResponseError struct {
	// Endpoint is the requested path relative to the base URL.
	Endpoint string
	// StatusCode is 0 when no response was received.
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" && e.StatusCode != 0 {
		msg = fmt.Sprintf("Request to endpoint %s returned %d", e.Endpoint, e.StatusCode)
	}

	if e.Cause != nil {
		if msg == "" {
			return e.Cause.Error()
		}

		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// FieldError is a single schema violation.
type FieldError struct {
	Field       string      `json:"field"           yaml:"field"`
	Description string      `json:"description"     yaml:"description"`
	Value       interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (value: %v)", e.Field, e.Description, e.Value)
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// ValidationError reports a response body that does not conform to the
// expected schema.
type ValidationError struct {
	// Schema names the expected response shape, e.g. "InfoResponse".
	Schema string
	Fields []FieldError
	// Cause is set when the body could not be parsed at all.
	Cause error
}

// Error implements the error interface. Each field violation is on its own
// line so console output can indent them.
func (e *ValidationError) Error() string {
	var sb strings.Builder

	n := len(e.Fields)
	if e.Cause != nil {
		n++
	}

	fmt.Fprintf(&sb, "%d validation error(s) for %s", n, e.Schema)

	if e.Cause != nil {
		fmt.Fprintf(&sb, "\n%v", e.Cause)
	}

	for _, f := range e.Fields {
		sb.WriteString("\n")
		sb.WriteString(f.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ManualValidationError reports a response that is well formed but
// semantically wrong, e.g. "info" advertised as an entry type.
type ManualValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ManualValidationError) Error() string {
	return e.Message
}

// InternalError is an unexpected fault. It is never counted as a test
// failure; it aborts the run and leaves the validity unknown.
type InternalError struct {
	Cause error
	Stack []byte
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal validator error: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *InternalError) Unwrap() error {
	return e.Cause
}

// IsRecoverable reports whether err is one of the error kinds that are
// counted as an ordinary test failure.
func IsRecoverable(err error) bool {
	return ErrorKind(err) != ""
}

// ErrorKind names the recoverable kind of err, or returns "" for anything
// that should abort the run.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var internalErr *InternalError
	if errors.As(err, &internalErr) {
		return ""
	}

	if errors.Is(err, ErrRetriesExhausted) {
		return "RetriesExhaustedError"
	}

	var manualErr *ManualValidationError
	if errors.As(err, &manualErr) {
		return "ManualValidationError"
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return "ValidationError"
	}

	var responseErr *ResponseError
	if errors.As(err, &responseErr) {
		return "ResponseError"
	}

	return ""
}
