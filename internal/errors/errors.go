// Package errors provides sentinel errors and custom error types for the ticketbridge application.
// Use errors.Is() and errors.As() to check for specific error kinds.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react to it (HTTP status mapping, CLI exit text)
type Kind string

const (
	KindServiceUnavailable          Kind = "ServiceUnavailable"
	KindUnavailable                 Kind = "Unavailable"
	KindNotFound                    Kind = "NotFound"
	KindBadRequest                  Kind = "BadRequest"
	KindUpstreamFailed              Kind = "UpstreamFailed"
	KindTicketFetchFailed           Kind = "TicketFetchFailed"
	KindRepositoryNotFound          Kind = "RepositoryNotFound"
	KindBranchCreationFailed        Kind = "BranchCreationFailed"
	KindChangeRequestCreationFailed Kind = "ChangeRequestCreationFailed"
)

// Sentinel errors for each kind
var (
	// ErrServiceUnavailable indicates a required upstream connection was never established
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUnavailable indicates a single gateway has no live connection
	ErrUnavailable = errors.New("connection not available")

	// ErrNotFound indicates the remote service reported no such resource
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates the caller supplied invalid input
	ErrBadRequest = errors.New("bad request")

	// ErrUpstreamFailed indicates a remote call failed for any other reason
	ErrUpstreamFailed = errors.New("upstream request failed")

	ErrTicketFetchFailed           = errors.New("ticket fetch failed")
	ErrRepositoryNotFound          = errors.New("repository not found")
	ErrBranchCreationFailed        = errors.New("branch creation failed")
	ErrChangeRequestCreationFailed = errors.New("change request creation failed")
)

var sentinels = map[Kind]error{
	KindServiceUnavailable:          ErrServiceUnavailable,
	KindUnavailable:                 ErrUnavailable,
	KindNotFound:                    ErrNotFound,
	KindBadRequest:                  ErrBadRequest,
	KindUpstreamFailed:              ErrUpstreamFailed,
	KindTicketFetchFailed:           ErrTicketFetchFailed,
	KindRepositoryNotFound:          ErrRepositoryNotFound,
	KindBranchCreationFailed:        ErrBranchCreationFailed,
	KindChangeRequestCreationFailed: ErrChangeRequestCreationFailed,
}

// Error is a classified error carrying a human-readable message and the originating cause
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && target == sentinel
}

// New creates a new Error of the given kind
func New(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Newf creates a new Error of the given kind with a formatted message and no cause
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewUnavailableError reports that the named service has no live connection
func NewUnavailableError(service string) *Error {
	return Newf(KindUnavailable, "%s connection not available", service)
}

// NewServiceUnavailableError reports that required services were never connected
func NewServiceUnavailableError(services string) *Error {
	return Newf(KindServiceUnavailable, "%s connection not available", services)
}

// KindOf returns the kind of the outermost classified error in err's chain.
// Unclassified errors report KindUpstreamFailed.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUpstreamFailed
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
