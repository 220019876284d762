// Package runtime provides the shared database handle used by the query
// builder and the entity layer.
package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when a connection is requested before
	// Configure was called.
	ErrNotConfigured = errors.New("database not configured")

	// ErrTransactionActive is returned by Begin when a transaction is already open.
	ErrTransactionActive = errors.New("transaction already active")

	// ErrNoTransaction is returned by Commit and Rollback without an open transaction.
	ErrNoTransaction = errors.New("no active transaction")

	// ErrMissingBinding is returned when a statement references a named
	// parameter that has no bound value.
	ErrMissingBinding = errors.New("missing binding")
)

// ConnectionError represents a failure to establish the database connection.
type ConnectionError struct {
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ExecutionError represents a statement that failed to execute.
type ExecutionError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}
