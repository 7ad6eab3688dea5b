package streams

import (
	"fmt"

	"github.com/gokit/errors"
)

// errors ...
var (
	ErrNilValue        = errors.New("value must not be nil")
	ErrNilError        = errors.New("error must not be nil")
	ErrNilSubscription = errors.New("subscription must not be nil")
	ErrInvalidDemand   = errors.New("demand must be strictly positive")
	ErrSubscriptionSet = errors.New("subscription already set")
	ErrUnhandledError  = errors.New("unhandled error in stream")
	ErrHookPanic       = errors.New("hook panicked")
)

// ValidateDemand returns an error if n is not a usable demand amount.
// The protocol requires demand to be a strictly positive count.
func ValidateDemand(n int64) error {
	if n < 1 {
		return errors.Wrap(ErrInvalidDemand, "received demand of %d", n)
	}
	return nil
}

//***************************************************************************
// OpError
//***************************************************************************

// OpError wraps a failure raised inside a subscriber hook into a
// protocol-level error, optionally attaching the offending value and the
// subscription active at the time for diagnostics.
//
// The original cause can be recovered through the Err field, whose chain
// is inspectable with errors.IsAny and errors.UnwrapDeep.
type OpError struct {
	Err          error
	Value        interface{}
	Subscription Subscription
}

// NewOpError returns a new OpError wrapping the provided cause with a
// call stack. Both sub and value may be nil when no such context exists.
func NewOpError(sub Subscription, err error, value interface{}) *OpError {
	return &OpError{
		Err:          errors.WrapOnly(err),
		Value:        value,
		Subscription: sub,
	}
}

// Error implements the error interface, rendering the bare message of
// the root cause rather than the wrapped stack dump. The full chain
// stays reachable through the Err field.
func (e *OpError) Error() string {
	cause := errors.UnwrapDeep(e.Err)
	msg := cause.Error()
	if pe, ok := cause.(*errors.PointingError); ok {
		msg = pe.Message
	}
	if e.Value != nil {
		return fmt.Sprintf("%s (value: %#v)", msg, e.Value)
	}
	return msg
}

// Message implements the LogMessage interface.
func (e *OpError) Message() string {
	return e.Error()
}

// Unwrap returns the wrapped cause.
func (e *OpError) Unwrap() error {
	return e.Err
}
