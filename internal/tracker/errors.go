package tracker

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation so command handlers can pick a reply.
type Kind int

const (
	KindValidation Kind = iota + 1 // malformed or out-of-range input
	KindNotFound                   // referenced id or name absent
	KindOwnership                  // record belongs to a different user
	KindConflict                   // duplicate alias/platform, or session already running
	KindTooShort                   // duration below the configured minimum
	KindPersistence                // store call failed for an infrastructure reason
)

// Error carries a kind plus a user-presentable message. Operations return
// these; handlers turn them into reply text and nothing propagates past
// the router.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error with a formatted user-presentable message
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// persistencef wraps a store failure. The wrapped error is for logs only;
// the message shown to users stays generic.
func persistencef(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf classifies any error. Unclassified errors are treated as
// infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}
