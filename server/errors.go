package server

import (
	"errors"
	"fmt"
)

var (
	ErrNoProtocol           = errors.New("Server needs a protocol")
	ErrInvalidExceptionMode = errors.New("Exception mode must be 0, 1 or 2")
	ErrInvalidCompression   = errors.New("Request body could not be reinflated")
	ErrInflatedTooLarge     = errors.New("Request body inflates past the size limit")
	ErrInternalName         = errors.New("Name is reserved for internal operations")
	ErrNoSuchFunction       = errors.New("No function is defined under this name")
	ErrNoSuchObject         = errors.New("No object is defined under this name")
)

// InvocationError is returned when a registered function fails and the server
// is configured to propagate errors instead of turning them into faults.
type InvocationError struct {
	Operation string
	Err       error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking function.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
