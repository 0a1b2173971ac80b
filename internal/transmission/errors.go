package transmission

import (
	"fmt"
	"time"
)

// TransportError reports a failure to reach the daemon: connection
// refused, reset, DNS, or a malformed HTTP exchange. Transport errors are
// retried with backoff by the Gateway.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transmission %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a request-level failure from a reachable daemon
// (result != "success", auth rejection). These are surfaced directly
// instead of being retried blindly.
type ProtocolError struct {
	Method string
	Result string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("transmission %s: daemon replied %q", e.Method, e.Result)
}

// TimeoutError reports that the whole retry sequence exceeded the outer
// call deadline. Distinct from a per-attempt transport failure.
type TimeoutError struct {
	Method  string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transmission %s: timed out after %s", e.Method, e.Elapsed.Round(time.Millisecond))
}
