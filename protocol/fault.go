package protocol

import (
	"errors"
	"fmt"
)

// Fault is an RPC level error. It is returned to the client in place of a
// result.
//
// A Fault is also an error, so registered functions can return one directly
// and have its code preserved.
type Fault struct {
	Code    int
	Message string
}

// NewFault creates a Fault with the given code and message.
func NewFault(code int, message string) *Fault {
	return &Fault{Code: code, Message: message}
}

// Faultf creates a Fault with a formatted message.
func Faultf(code int, format string, args ...interface{}) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}

// DefaultFault creates a Fault for one of the reserved codes, carrying its
// fixed message.
func DefaultFault(code int) *Fault {
	return &Fault{Code: code, Message: DefaultMessage(code)}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault %d: %s", f.Code, f.Message)
}

// FaultCode returns the code of the fault.
func (f *Fault) FaultCode() int {
	return f.Code
}

// Coder is implemented by errors that carry a native RPC code.
type Coder interface {
	FaultCode() int
}

// ErrorCode returns the native code of err: the code of the first error in
// its chain implementing Coder, or 0.
func ErrorCode(err error) int {
	var c Coder
	if errors.As(err, &c) {
		return c.FaultCode()
	}

	return 0
}

// ErrorMessage returns the message that should be reported for err. A Fault
// reports its bare message instead of the formatted error string.
func ErrorMessage(err error) string {
	if f, ok := err.(*Fault); ok {
		return f.Message
	}

	return err.Error()
}

// Result holds the outcome of an operation, either a Value or a Fault.
type Result struct {
	value Value
	fault *Fault
}

// Success wraps a successful return value.
func Success(v Value) Result {
	return Result{value: v}
}

// Failure wraps a fault.
func Failure(f *Fault) Result {
	if f == nil {
		f = DefaultFault(GenericResponse)
	}

	return Result{fault: f}
}

// IsFault reports whether the result is a fault.
func (r Result) IsFault() bool {
	return r.fault != nil
}

// Fault returns the fault, or nil for a successful result.
func (r Result) Fault() *Fault {
	return r.fault
}

// Value returns the successful value. It is Null for a fault.
func (r Result) Value() Value {
	return r.value
}

func (r Result) String() string {
	if r.fault != nil {
		return r.fault.Error()
	}

	return r.value.String()
}
