package render

import (
	"context"
	stderrors "errors"
	"time"
)

// Browser downloads are retried this many times, doubling the delay.
const (
	installAttempts = 3
	installDelay    = 2 * time.Second
)

// transientError marks a failure worth retrying, such as an interrupted
// download. Other errors stop [retry] immediately.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// retry runs fn up to attempts times with exponential backoff. It returns
// the last error, with any transientError wrapper removed, or ctx.Err() if
// cancelled while waiting.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		var t *transientError
		if !stderrors.As(err, &t) {
			return err
		}
		lastErr = t.err

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
