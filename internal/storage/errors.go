package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCategory classifies a failure to open or probe a sink.
type ErrorCategory string

const (
	CategoryConnectivity ErrorCategory = "connectivity"
	CategoryPrivilege    ErrorCategory = "privilege"
	CategoryDriver       ErrorCategory = "driver"
)

// Severity tells the orchestrator whether a failure aborts the run.
type Severity string

const (
	SeverityFatal    Severity = "fatal"
	SeverityDegraded Severity = "degraded"
)

// ConnError is returned by backend constructors when the store cannot be
// reached, rejects the credentials, or fails a probe.
type ConnError struct {
	Backend  string
	Category ErrorCategory
	Op       string
	Err      error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", e.Backend, e.Op, e.Category, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// LoadError reports a failed insert into a table or collection. Batch is the
// 1-based index of the failing batch, or 0 when the failure happened outside
// a batch (begin, commit).
type LoadError struct {
	Target string
	Batch  int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Batch > 0 {
		return fmt.Sprintf("load %s: batch %d: %v", e.Target, e.Batch, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Target, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IndexError reports a failed index build.
type IndexError struct {
	Index    string
	Table    string
	Severity Severity
	Err      error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s on %s (%s): %v", e.Index, e.Table, e.Severity, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// ErrUnsupported is returned by a dialect for a construct the backend cannot
// express (e.g. a trigram index on SQLite).
var ErrUnsupported = errors.New("unsupported by backend")

// CategoryOf derives a category from an error when the backend has no more
// specific information: network and deadline failures are connectivity,
// everything else is driver.
func CategoryOf(err error) ErrorCategory {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne):
		return CategoryConnectivity
	default:
		return CategoryDriver
	}
}

// IsCategory reports whether err carries a *ConnError of the given category.
func IsCategory(err error, c ErrorCategory) bool {
	var ce *ConnError
	return errors.As(err, &ce) && ce.Category == c
}
