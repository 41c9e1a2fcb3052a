package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout marks a request that was cut off by the client-side timeout
// rather than failing at the transport level.
var ErrTimeout = errors.New("backend: request timed out")

// StatusError is returned for non-2xx responses. The body is not assumed
// to contain JSON; only the status line is carried.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %s", e.Status)
}

// classify wraps transport errors so callers can distinguish timeouts
// from generic network failures with errors.Is.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("backend: request failed: %w", err)
}
