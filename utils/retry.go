package utils

import (
	"context"
	"errors"
	"time"
)

// permanentError marks an error that must not be retried (client-side
// failures such as 4xx responses)
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Retry gives up immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryableStatus reports whether an HTTP status warrants another attempt.
// Server-side failures are retried; anything in the 4xx range is a fact
// about the request and will not change on retry.
func RetryableStatus(code int) bool {
	return code >= 500
}

// Retry runs fn up to attempts times with doubling backoff between tries.
// It stops early on success, on a Permanent error, or when ctx is done.
// The error from the last attempt is returned (unwrapped from Permanent).
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = fn()
		if err == nil {
			return nil
		}

		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}
	}
	return err
}
