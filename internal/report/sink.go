package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/nats-io/nats.go"
)

// Sink receives the report of a finished validation run.
type Sink interface {
	Publish(ctx context.Context, r *optimade.Report) error
	Close() error
}

// SinkType represents the type of report sink.
type SinkType string

const (
	// SinkTypeNone discards reports.
	SinkTypeNone SinkType = "none"

	// SinkTypeFile writes reports to a file.
	SinkTypeFile SinkType = "file"

	// SinkTypeNATS publishes reports on a NATS subject.
	SinkTypeNATS SinkType = "nats"
)

// SinkConfig configures a report sink.
type SinkConfig struct {
	// Type is the sink backend type
	Type SinkType

	// File sink configuration
	File *FileSinkConfig

	// NATS sink configuration
	NATS *NATSSinkConfig
}

// FileSinkConfig configures a file sink.
type FileSinkConfig struct {
	// Path of the report file. The format follows the extension:
	// .json, .yaml or .yml.
	Path string
}

// NATSSinkConfig configures a NATS sink.
type NATSSinkConfig struct {
	// URL of the NATS server, e.g. "nats://127.0.0.1:4222"
	URL string

	// Subject reports are published on
	Subject string

	// Timeout bounds connecting and flushing
	Timeout time.Duration
}

// NewSinkFromConfig creates a sink from configuration.
func NewSinkFromConfig(config *SinkConfig) (Sink, error) {
	if config == nil {
		return NewNoOpSink(), nil
	}

	switch config.Type {
	case SinkTypeNone, "":
		return NewNoOpSink(), nil

	case SinkTypeFile:
		if config.File == nil || config.File.Path == "" {
			return nil, constants.ErrFileSinkConfigRequired
		}

		return NewFileSink(config.File)

	case SinkTypeNATS:
		if config.NATS == nil || config.NATS.URL == "" {
			return nil, constants.ErrNATSConfigRequired
		}

		return NewNATSSink(config.NATS)

	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedSinkType, config.Type)
	}
}

// NoOpSink is a sink that does nothing.
type NoOpSink struct{}

// NewNoOpSink creates a new no-op sink.
func NewNoOpSink() *NoOpSink {
	return &NoOpSink{}
}

// Publish does nothing.
func (s *NoOpSink) Publish(ctx context.Context, r *optimade.Report) error {
	return nil
}

// Close does nothing.
func (s *NoOpSink) Close() error {
	return nil
}

// FileSink writes the report to a JSON or YAML file.
type FileSink struct {
	path   string
	format string
}

// NewFileSink creates a file sink, choosing the format from the extension.
func NewFileSink(config *FileSinkConfig) (*FileSink, error) {
	format, err := formatForPath(config.Path)
	if err != nil {
		return nil, err
	}

	return &FileSink{path: config.Path, format: format}, nil
}

func formatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return constants.FormatJSON, nil
	case ".yaml", ".yml":
		return constants.FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrUnsupportedFileFormat, path)
	}
}

// Publish writes the report, replacing any existing file.
func (s *FileSink) Publish(ctx context.Context, r *optimade.Report) error {
	var (
		data []byte
		err  error
	)

	if s.format == constants.FormatJSON {
		data, err = r.ToJSON()
	} else {
		data, err = r.ToYAML()
	}

	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, data, constants.ReportFilePerm); err != nil {
		return fmt.Errorf("writing report file %s: %w", s.path, err)
	}

	return nil
}

// Close does nothing.
func (s *FileSink) Close() error {
	return nil
}

// NATSSink publishes JSON reports on a NATS subject.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewNATSSink connects to the configured NATS server.
func NewNATSSink(config *NATSSinkConfig) (*NATSSink, error) {
	subject := config.Subject
	if subject == "" {
		subject = constants.DefaultNATSSubject
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = constants.ShortHTTPTimeout
	}

	conn, err := nats.Connect(config.URL,
		nats.Name("optimade-validator"),
		nats.Timeout(timeout),
		nats.MaxReconnects(0),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", config.URL, err)
	}

	return &NATSSink{conn: conn, subject: subject, timeout: timeout}, nil
}

// Publish sends the report as JSON and waits for the server to acknowledge
// the flush.
func (s *NATSSink) Publish(ctx context.Context, r *optimade.Report) error {
	data, err := r.ToJSON()
	if err != nil {
		return err
	}

	msg := nats.NewMsg(s.subject)
	msg.Data = data
	msg.Header.Set("Optimade-Validator-Run-Id", r.RunID)
	msg.Header.Set("Optimade-Validator-Validity", r.Validity.String())

	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publishing report to %s: %w", s.subject, err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("flushing report to %s: %w", s.subject, err)
	}

	return nil
}

// Close closes the connection.
func (s *NATSSink) Close() error {
	s.conn.Close()

	return nil
}

// SinkChain publishes to every sink in order.
type SinkChain struct {
	sinks []Sink
}

// NewSinkChain creates a new sink chain.
func NewSinkChain(sinks ...Sink) *SinkChain {
	return &SinkChain{
		sinks: sinks,
	}
}

// Len returns the number of sinks in the chain.
func (c *SinkChain) Len() int {
	return len(c.sinks)
}

// Publish sends the report to all sinks and returns the last error.
func (c *SinkChain) Publish(ctx context.Context, r *optimade.Report) error {
	var lastErr error

	for _, sink := range c.sinks {
		err := sink.Publish(ctx, r)
		if err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Close closes all sinks and returns the last error.
func (c *SinkChain) Close() error {
	var lastErr error

	for _, sink := range c.sinks {
		err := sink.Close()
		if err != nil {
			lastErr = err
		}
	}

	return lastErr
}
