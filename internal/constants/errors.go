package constants

import "errors"

// Configuration errors.
var (
	ErrBaseURLOrClientRequired = errors.New("need at least a base URL or a client to initialize validator")
	ErrBaseURLAndClient        = errors.New("please specify at most one of base URL or client")
	ErrInvalidVerbosity        = errors.New("verbosity must not be negative")
	ErrInvalidMaxAttempts      = errors.New("retry attempts must be at least 1")
	ErrUnsupportedOutput       = errors.New("unsupported output format")
)

// Report sink errors.
var (
	ErrFileSinkConfigRequired = errors.New("file configuration required for file sink")
	ErrNATSConfigRequired     = errors.New("NATS configuration required for NATS sink")
	ErrUnsupportedSinkType    = errors.New("unsupported report sink type")
	ErrUnsupportedFileFormat  = errors.New("unsupported report file format")
)
