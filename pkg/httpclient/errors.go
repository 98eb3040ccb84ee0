package httpclient

import (
	"fmt"
	"time"
)

// RetryableError reports a request that still failed after the client's
// retry budget was spent. RetryAfter carries the delay the next attempt
// would have used, so a caller queueing its own retry can honor it.
type RetryableError struct {
	StatusCode int
	Reason     string
	RetryAfter time.Duration
	Err        error
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("HTTP %d: %s (retry after %v)", e.StatusCode, e.Reason, e.RetryAfter)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Reason)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}
