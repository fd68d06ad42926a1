package client

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the backend, carrying the error
// envelope's machine code and human message
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

var (
	// ErrNotFound is an authoritative 404: the resource is gone, cached
	// identity referring to it must be cleared.
	ErrNotFound = errors.New("resource not found")

	// ErrTableLocked is a 423: the table is occupied by another session
	ErrTableLocked = errors.New("table is occupied")

	// ErrSlugMismatch is raised when the backend returns a table whose slug
	// differs from the one scanned; the response is treated as an error,
	// never as new truth.
	ErrSlugMismatch = errors.New("table slug does not match scanned code")

	// ErrTableMerged is a backend conflict: the table was merged into
	// another and its slug is no longer servable
	ErrTableMerged = errors.New("table has been merged")
)

// IsNotFound reports whether err represents an authoritative 404
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
