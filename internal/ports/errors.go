package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur during external service
// interactions.
var (
	// ErrRateLimited indicates that the service has rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that the external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUnsupportedScheme indicates that no source is registered for a
	// path's scheme.
	ErrUnsupportedScheme = errors.New("unsupported source scheme")

	// ErrSinkClosed indicates a write to a sink after Close.
	ErrSinkClosed = errors.New("sink closed")
)

// SourceError represents a failure to read a pose or artifact source.
// It includes the backend and the path that failed.
type SourceError struct {
	// Backend names the source implementation (e.g. "fs", "s3").
	Backend string

	// Path is the identifier that was being opened.
	Path string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for SourceError.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source error: backend=%s, path=%s, err=%v", e.Backend, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError creates a new SourceError with the given details.
func NewSourceError(backend, path string, err error) *SourceError {
	return &SourceError{
		Backend: backend,
		Path:    path,
		Err:     err,
	}
}

// SinkError represents a failure to publish a prediction record.
type SinkError struct {
	// Sink names the sink implementation (e.g. "jsonl", "kafka").
	Sink string

	// RecordID is the complex identifier of the record that failed.
	RecordID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for SinkError.
func (e *SinkError) Error() string {
	return fmt.Sprintf("sink error: sink=%s, record=%s, err=%v", e.Sink, e.RecordID, e.Err)
}

// Unwrap returns the underlying error.
func (e *SinkError) Unwrap() error { return e.Err }

// NewSinkError creates a new SinkError with the given details.
func NewSinkError(sink, recordID string, err error) *SinkError {
	return &SinkError{
		Sink:     sink,
		RecordID: recordID,
		Err:      err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
