package source

import "fmt"

// FetchError is the one failure class of the fetch stage: the source could
// not be reached, answered with an error, or did not yield a usable CSV.
// No table accompanies it.
type FetchError struct {
	Source string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch error from %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch error from %s: %s", e.Source, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func NewFetchError(source, reason string, err error) *FetchError {
	return &FetchError{Source: source, Reason: reason, Err: err}
}
