package notion

import (
	"errors"
	"fmt"
)

// Sentinel errors for reference resolution.
var (
	// ErrDatabaseNotFound indicates a database title matched nothing in the
	// workspace search.
	ErrDatabaseNotFound = errors.New("notion: database not found")

	// ErrDatabaseAmbiguous indicates a database title matched more than one
	// database, so the reference cannot be resolved safely.
	ErrDatabaseAmbiguous = errors.New("notion: database title is ambiguous")
)

// APIError is a structured error response from the Notion API.
// https://developers.notion.com/reference/errors
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %s (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// IsUnauthorized reports whether err is an API error caused by a missing,
// invalid, or insufficiently scoped integration token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == 401 || apiErr.Status == 403
}

// IsObjectNotFound reports whether err is the API's object_not_found error,
// returned when a page or database does not exist or is not shared with the
// integration.
func IsObjectNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == "object_not_found"
}
