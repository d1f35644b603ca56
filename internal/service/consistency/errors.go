package consistency

import "fmt"

// Branch identifies which of the two speculative generation attempts
// an error came from. Only the primary branch is ever committed to
// conversation history.
type Branch string

const (
	Primary   Branch = "primary"
	Secondary Branch = "secondary"
)

// BranchError attributes a transport or decode failure to the branch
// that produced it. Unwrap exposes the underlying *llm.TransportError
// or *schema.DecodeError so callers can tell "the model ignored the
// schema" from "the service was unavailable".
type BranchError struct {
	Branch Branch
	Err    error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("%s branch: %v", e.Branch, e.Err)
}

func (e *BranchError) Unwrap() error {
	return e.Err
}
