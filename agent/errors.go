package agent

import (
	"errors"
)

var (
	// ErrAgentTimeout indicates the run deadline was exceeded.
	ErrAgentTimeout = errors.New("agent: timeout exceeded")

	// ErrIncompleteStream indicates a stream closed without a final response.
	ErrIncompleteStream = errors.New("agent: stream ended without a response")
)
