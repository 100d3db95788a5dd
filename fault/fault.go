// Package fault defines the error taxonomy shared by the coordinators and
// the remote API client. Every failure that can reach a display surface is
// classified at its point of origin; nothing downstream infers a kind from
// message text.
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind string

const (
	// SurfaceUnavailable means the target tab/window was closed, navigated
	// away, or is still loading.
	SurfaceUnavailable Kind = "surface_unavailable"
	// PermissionDenied means the user declined microphone access.
	PermissionDenied Kind = "permission_denied"
	// WindowCreationFailed means the recorder window could not be created.
	WindowCreationFailed Kind = "window_creation_failed"
	// RecorderUnreachable means the recorder surface ids are stale or the
	// recorder no longer answers; session state is force-reset.
	RecorderUnreachable Kind = "recorder_unreachable"
	// AuthMissing means no bearer credential is available.
	AuthMissing Kind = "auth_missing"
	// HTTPError carries a non-2xx response from the remote API.
	HTTPError Kind = "http_error"
	// EmptyResult means the service answered 2xx with no usable payload.
	EmptyResult Kind = "empty_result"
	// PreconditionFailed means a required session field was absent.
	PreconditionFailed Kind = "precondition_failed"
	// MalformedPayload means a relayed payload could not be parsed.
	MalformedPayload Kind = "malformed_payload"
)

// Error is a classified failure. Message is safe to show to the user.
type Error struct {
	Kind    Kind
	Message string
	Status  int // HTTP status for HTTPError, zero otherwise
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted user-facing message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// HTTP creates an HTTPError carrying the response status and detail text.
func HTTP(status int, detail string) *Error {
	return &Error{
		Kind:    HTTPError,
		Status:  status,
		Message: fmt.Sprintf("API error %d: %s", status, detail),
	}
}

// KindOf returns the Kind of err, or the empty string when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserMessage returns the user-facing text for err. Unclassified errors fall
// back to their plain Error string.
func UserMessage(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
