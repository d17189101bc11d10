// Package datasource fetches race-entry and horse-history pages.
package datasource

import (
	"context"
	"errors"
)

// Page kinds, used for cache keys and metrics labels.
const (
	KindEntry   = "entry"
	KindHistory = "history"
)

// Source supplies decoded (UTF-8) HTML documents.
type Source interface {
	// FetchEntryPage retrieves the entry page of a race.
	FetchEntryPage(ctx context.Context, raceID string) ([]byte, error)

	// FetchHistoryPage retrieves the result history of a horse.
	FetchHistoryPage(ctx context.Context, horseID string) ([]byte, error)

	// Name returns the name of the data source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeCircuitOpen       = "circuit_open"
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the DataSourceError code in err's chain, or "".
func ErrorCode(err error) string {
	var dsErr DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	return ""
}

// IsNotFound reports whether err means the requested page does not exist.
func IsNotFound(err error) bool {
	return ErrorCode(err) == ErrCodeNotFound
}
