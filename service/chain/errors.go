package chain

import "fmt"

// RejectedError means the contract call reached the network but did not
// produce a success receipt. Retrying the same call will fail again.
type RejectedError struct {
	Status string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("chain rejected call: %s", e.Status)
}

// UnavailableError means the call never reached a receipt, usually a
// network or timeout condition. The outcome on chain is unknown.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("chain unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
