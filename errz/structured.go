// Package errz defines the error kinds raised by the value, backend, bytecode
// and vm packages.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrPreconditionKind indicates a violated precondition such as a dtype
	// mismatch, an unsupported operation, or an exhausted instruction buffer.
	ErrPreconditionKind ErrorKind = iota
	// ErrResolutionKind indicates a native symbol or kernel function that
	// could not be found.
	ErrResolutionKind
	// ErrConversionKind indicates a failed cast.
	ErrConversionKind
	// ErrArithmeticKind indicates an arithmetic fault (integer division by zero).
	ErrArithmeticKind
	// ErrDecodingKind indicates malformed bytecode.
	ErrDecodingKind
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrPreconditionKind:
		return "precondition violation"
	case ErrResolutionKind:
		return "resolution failure"
	case ErrConversionKind:
		return "conversion failure"
	case ErrArithmeticKind:
		return "arithmetic failure"
	case ErrDecodingKind:
		return "decoding failure"
	default:
		return "error"
	}
}

// Sentinels usable with errors.Is. Any *Error of the same kind matches.
var (
	ErrPrecondition = &Error{Kind: ErrPreconditionKind, PC: -1}
	ErrResolution   = &Error{Kind: ErrResolutionKind, PC: -1}
	ErrConversion   = &Error{Kind: ErrConversionKind, PC: -1}
	ErrArithmetic   = &Error{Kind: ErrArithmeticKind, PC: -1}
	ErrDecoding     = &Error{Kind: ErrDecodingKind, PC: -1}
)

// Error carries a kind, a message, and optionally the program counter of the
// instruction that was executing when it was raised.
type Error struct {
	Kind    ErrorKind
	Message string
	PC      int // -1 when not raised by the machine
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	if e.PC < 0 {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	} else {
		msg = fmt.Sprintf("%s: %s (pc %d)", e.Kind, e.Message, e.PC)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithCause wraps the error with a cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// AtPC returns a copy of the error annotated with the given program counter.
// Errors that already carry a program counter are returned unchanged.
func (e *Error) AtPC(pc int) *Error {
	if e.PC >= 0 {
		return e
	}
	cp := *e
	cp.PC = pc
	return &cp
}

// New creates a new Error with the given kind and message.
func New(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, PC: -1}
}

// Newf creates a new Error with a formatted message.
func Newf(kind ErrorKind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

func Preconditionf(format string, args ...any) *Error {
	return Newf(ErrPreconditionKind, format, args...)
}

func Resolutionf(format string, args ...any) *Error {
	return Newf(ErrResolutionKind, format, args...)
}

func Conversionf(format string, args ...any) *Error {
	return Newf(ErrConversionKind, format, args...)
}

func Arithmeticf(format string, args ...any) *Error {
	return Newf(ErrArithmeticKind, format, args...)
}

func Decodingf(format string, args ...any) *Error {
	return Newf(ErrDecodingKind, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
