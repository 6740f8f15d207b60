package iso7816

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport is returned when a raw exchange with the card did not complete.
	ErrTransport = errors.New("iso7816: transport failure")

	// ErrInvalidParameters is returned before any exchange when a command
	// cannot be encoded (data longer than 255 bytes, reserved INS, ...).
	ErrInvalidParameters = errors.New("iso7816: invalid parameters")

	// ErrNotSelected is returned by Session when no applet is selected.
	ErrNotSelected = errors.New("iso7816: applet not selected")

	// ErrContinuationLimit is returned when the card keeps answering 61xx/9Fxx/6Cxx.
	ErrContinuationLimit = errors.New("iso7816: too many continuation steps")

	// ErrCardRejected matches every *StatusError.
	ErrCardRejected = errors.New("iso7816: card rejected command")
)

// StatusError reports a status word that the caller did not accept.
type StatusError struct {
	Op     string
	Status StatusWord
}

// NewStatusError wraps sw for operation op.
func NewStatusError(op string, sw StatusWord) *StatusError {
	return &StatusError{Op: op, Status: sw}
}

func (e *StatusError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("card returned %s", e.Status.Verbose())
	}
	return fmt.Sprintf("%s: card returned %s", e.Op, e.Status.Verbose())
}

// Is makes errors.Is(err, ErrCardRejected) true for any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrCardRejected
}

// StatusOf extracts the status word carried by err, if any.
func StatusOf(err error) (StatusWord, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
