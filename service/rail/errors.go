package rail

import "fmt"

// RejectedError means the aggregator refused the request, for example an
// invalid amount or currency. Retrying unchanged will fail again.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rail rejected request: %s", e.Message)
}

// UnavailableError means the aggregator could not be reached or timed out.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("rail unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
