package protocol

import (
	"errors"
	"fmt"
)

const (
	// Script layer. Both are fatal to the running script only.
	ErrBadParameter     = "E_BAD_PARAMETER"
	ErrInvalidOperation = "E_INVALID_OPERATION"

	// Anything else that escapes a handler.
	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadParameter:     {},
	ErrInvalidOperation: {},
	ErrInternal:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Error is a coded failure raised while executing a script instruction.
// Op is the opcode (or engine call) that detected it; it may be empty and is
// filled in by the dispatcher when the error crosses an opcode boundary.
type Error struct {
	Code string
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Msg)
}

func BadParameter(format string, args ...any) *Error {
	return &Error{Code: ErrBadParameter, Msg: fmt.Sprintf(format, args...)}
}

func InvalidOperation(format string, args ...any) *Error {
	return &Error{Code: ErrInvalidOperation, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the protocol code carried by err, ErrInternal for foreign
// errors and "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrInternal
}

func IsBadParameter(err error) bool     { return CodeOf(err) == ErrBadParameter }
func IsInvalidOperation(err error) bool { return CodeOf(err) == ErrInvalidOperation }

// WithOp returns err annotated with op when it is a protocol error that does
// not name an opcode yet. Other errors are returned unchanged.
func WithOp(err error, op string) error {
	var pe *Error
	if !errors.As(err, &pe) || pe.Op != "" {
		return err
	}
	cp := *pe
	cp.Op = op
	return &cp
}
