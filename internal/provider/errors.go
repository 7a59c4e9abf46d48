package provider

import "fmt"

// TransientError reports a failure worth retrying: the endpoint was
// unreachable, the request timed out, or the server answered 429/5xx.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient model error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transient model error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// FatalError reports a failure retrying cannot fix, such as an unknown model
// or a malformed response. It propagates to the caller without retry.
type FatalError struct {
	Status int
	Err    error
}

func (e *FatalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("model error: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
