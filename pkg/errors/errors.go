package errors

import (
	"errors"
	"fmt"
)

// ContextError annotates an error with the operation that produced it. The
// chain of contexts reads outermost-first, so wrapping at each call site
// builds a breadcrumb trail back to the root cause.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

func (err ContextError) Unwrap() error {
	return err.Err
}

// FriendlyError is an error whose message is meant to be shown to the user
// directly, without any wrapping context.
type FriendlyError struct {
	Message string
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage implements the friendlier interface.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

// friendlier is implemented by errors that have a polished message suitable
// for printing to the user.
type friendlier interface {
	FriendlyMessage() string
}

// New returns an error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// WithContext wraps err with a message describing the operation that failed.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// NewFriendlyError creates a new FriendlyError with the given format string.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

// RootCause returns the innermost error in a chain of ContextErrors.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}

// GetPrintableMessage returns the message that should be shown to the user
// for the given error. Friendly errors are printed as-is, even when they've
// been wrapped with additional context.
func GetPrintableMessage(err error) string {
	curr := err
	for {
		if friendlyErr, ok := curr.(friendlier); ok {
			return friendlyErr.FriendlyMessage()
		}

		ctxErr, ok := curr.(ContextError)
		if !ok {
			return err.Error()
		}
		curr = ctxErr.Err
	}
}
