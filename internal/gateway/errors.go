package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// RemoteError is returned by every gateway call that did not get a 2xx answer,
// including transport failures, timeouts and an open circuit breaker.
type RemoteError struct {
	Op     string
	Status int    // 0 when no HTTP response was received
	Body   string // response body text, when available
	Err    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": remote call failed"
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// serverSide reports whether the failure says something about the remote service's health.
func (e *RemoteError) serverSide() bool {
	return e.Status == 0 || e.Status >= http.StatusInternalServerError
}

// AsRemoteError unwraps err into a *RemoteError.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	ok := errors.As(err, &re)
	return re, ok
}
