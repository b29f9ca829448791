package deepseek

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// HTTPStatusError preserves the upstream status for retry
// classification.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// isRetryable marks timeouts, transport failures and throttling or
// server-side statuses as worth another attempt. Client errors and
// canceled contexts are permanent.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
