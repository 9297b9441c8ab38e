package provider

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is wrapped when an upstream body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed upstream response")

// StatusError reports a non-success HTTP status from an upstream API.
// The response body is not included.
type StatusError struct {
	API        string
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API: %s request failed with status %d", e.API, e.Op, e.StatusCode)
}
