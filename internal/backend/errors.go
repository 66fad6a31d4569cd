package backend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoConnection      = errors.New("backend: no connection established")
	ErrSchemaUnavailable = errors.New("backend: schema introspection not supported")
)

type UnsupportedBackendError struct {
	Kind      string
	Supported []string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported backend kind %q (supported: %s)", e.Kind, strings.Join(e.Supported, ", "))
}

// ExecutionError reports a query that failed against a backend. The query text
// originates from an untrusted generative process, so failures are expected
// and must stay recoverable values.
type ExecutionError struct {
	Backend Kind
	Query   string
	Cause   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s execution failed: %v", e.Backend, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
