package llm

import "fmt"

// Kind classifies transport failures so callers can tell an
// unavailable service from an endpoint that broke the reply envelope.
// The envelope here is the outer chat response, not the generated
// content inside it.
type Kind int

const (
	// Unreachable: the endpoint could not be contacted at all.
	Unreachable Kind = iota
	// Timeout: the bounded wait for a full reply elapsed.
	Timeout
	// UnexpectedResponseShape: the endpoint answered, but the outer
	// response envelope was not what a chat endpoint returns.
	UnexpectedResponseShape
)

func (k Kind) String() string {
	switch k {
	case Unreachable:
		return "unreachable"
	case Timeout:
		return "timeout"
	case UnexpectedResponseShape:
		return "unexpected response shape"
	default:
		return "unknown transport failure"
	}
}

// TransportError reports a failed generation call.
type TransportError struct {
	Kind Kind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
