package services

import (
	"errors"
	"fmt"

	"mazebound/server/persistence"
)

// ErrorKind classifies command failures. Every kind maps to a wire error code;
// all of them are recovered at the command boundary and none of them ends the
// connection or the process.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "UNAUTHENTICATED"
	KindUnauthorized    ErrorKind = "UNAUTHORIZED"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindInvalidState    ErrorKind = "INVALID_STATE"
	KindPersistence     ErrorKind = "PERSISTENCE_FAILURE"
)

// Error is a classified command failure. Message is safe to send to clients.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errUnauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "Not authenticated. Please login."}
}

func errUnauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func errNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func errInvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func errPersistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// storeErr translates a persistence failure into a classified error, keeping
// not-found distinct from genuine store trouble.
func storeErr(err error, notFoundMessage, failureMessage string) *Error {
	if errors.Is(err, persistence.ErrNotFound) {
		return errNotFound(notFoundMessage)
	}
	return errPersistence(failureMessage, err)
}

// KindOf extracts the kind from an error, defaulting to persistence failure
// for anything unclassified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// ClientMessage extracts the client-safe message from an error.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error"
}
