package protocol

import (
	"errors"
	"fmt"
)

// Kind is a stable category for decode and encode failures.
//
// A Kind is itself an error so callers can write
// errors.Is(err, protocol.BadMagic).
type Kind string

const (
	BadMagic         Kind = "BadMagic"
	TruncatedInput   Kind = "TruncatedInput"
	UnknownTag       Kind = "UnknownTag"
	MalformedNumber  Kind = "MalformedNumber"
	BadTerminator    Kind = "BadTerminator"
	InvalidCharacter Kind = "InvalidCharacter"
	TooDeep          Kind = "TooDeep"
)

func (k Kind) Error() string {
	return string(k)
}

// Error is the codec's structured error. Offset is the byte position in
// the input where the violation was found, or -1 when it does not apply
// (encode-side validation).
type Error struct {
	Kind    Kind
	Offset  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Offset < 0 {
		return fmt.Sprintf("passnote: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("passnote: %s at offset %d: %s", e.Kind, e.Offset, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e != nil && k == e.Kind
}

func newError(kind Kind, offset int, format string, args ...any) error {
	return &Error{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, offset int, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the Kind of a codec error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
