// Package query implements the one-shot request/response exchange used by
// the PPL client: send a frame and wait for a reply from the same IP and
// subprotocol, or a timeout (PplQuery.execute in the source protocol).
// Execute returns a GenericError reply like any other reply; ppl.Client
// turns it into a ResponseError.
package query

import "fmt"

// TimeoutError is returned when no matching response arrives within the
// query's timeout.
type TimeoutError struct {
	Description string
	Timeout     string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query: %s: no response in %s", e.Description, e.Timeout)
}

// ResponseError is returned when the device replies with a GenericError
// packet instead of the expected response.
type ResponseError struct {
	SubProtocol string
	Message     string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("query: %s: %s", e.SubProtocol, e.Message)
}
