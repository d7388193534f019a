package resolver

import "fmt"

// SelectorContractError is a selector response that breaks the decision
// contract: malformed JSON, an out-of-range index, a URL that matches no
// candidate, or an unknown confidence. It is never retried.
type SelectorContractError struct {
	Reason string
	Err    error
}

func (e *SelectorContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("selector contract violation: %s: %v", e.Reason, e.Err)
	}
	return "selector contract violation: " + e.Reason
}

func (e *SelectorContractError) Unwrap() error {
	return e.Err
}

// NewContractError builds a SelectorContractError.
func NewContractError(reason string, err error) *SelectorContractError {
	return &SelectorContractError{Reason: reason, Err: err}
}

// ValidationError is an input row that cannot be resolved.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid row: %s %s", e.Field, e.Reason)
}
