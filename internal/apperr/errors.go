// Package apperr provides the structured error that crosses the command boundary.
// Every failure a client can observe is an *Error carrying a kind, a machine-readable
// tag, the subsystem (part) that raised it and the status code sent on the wire.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation Kind = "Validation"
	KindPermission Kind = "Permission"
	KindNotFound   Kind = "NotFound"
	KindConflict   Kind = "Conflict"
	KindServer     Kind = "Server"
)

// Tag is a machine-readable error code.
type Tag string

const (
	TagValidation                Tag = "VALIDATION_ERROR"
	TagTokenInvalid              Tag = "TOKEN_INVALID"
	TagUnknownCommand            Tag = "UNKNOWN_COMMAND"
	TagPermissionDenied          Tag = "PERMISSION_DENIED"
	TagFriendExists              Tag = "FRIEND_EXISTS"
	TagFriendApplicationExists   Tag = "FRIENDAPPLICATION_EXISTS"
	TagUserNotFound              Tag = "USER_NOT_FOUND"
	TagServerNotFound            Tag = "SERVER_NOT_FOUND"
	TagChannelNotFound           Tag = "CHANNEL_NOT_FOUND"
	TagFriendNotFound            Tag = "FRIEND_NOT_FOUND"
	TagFriendGroupNotFound       Tag = "FRIENDGROUP_NOT_FOUND"
	TagFriendApplicationNotFound Tag = "FRIENDAPPLICATION_NOT_FOUND"
	TagMemberApplicationNotFound Tag = "MEMBERAPPLICATION_NOT_FOUND"
	TagChannelFull               Tag = "CHANNEL_FULL"
	TagPasswordIncorrect         Tag = "PASSWORD_INCORRECT"
	TagMemberBlocked             Tag = "MEMBER_BLOCKED"
	TagLobbyChannel              Tag = "LOBBY_CHANNEL"
	TagRateLimited               Tag = "RATE_LIMITED"
	TagException                 Tag = "EXCEPTION_ERROR"
)

// Error is the standardized error value returned by validators, services and the router.
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Part       string `json:"part"`
	Tag        Tag    `json:"tag"`
	StatusCode int    `json:"statusCode"`
	Cause      error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Part, e.Message, e.Tag, e.Cause)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Part, e.Message, e.Tag)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same tag.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Tag == t.Tag
	}
	return false
}

func newError(kind Kind, status int, part string, tag Tag, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		Part:       part,
		Tag:        tag,
		StatusCode: status,
	}
}

// Validation reports a malformed or unknown payload.
func Validation(part string, format string, args ...any) *Error {
	return newError(KindValidation, http.StatusBadRequest, part, TagValidation, format, args...)
}

// Unauthenticated reports a missing or bad identity at the handshake.
func Unauthenticated(part string, format string, args ...any) *Error {
	return newError(KindValidation, http.StatusUnauthorized, part, TagTokenInvalid, format, args...)
}

// Permission reports an authorization failure.
func Permission(part string, format string, args ...any) *Error {
	return newError(KindPermission, http.StatusForbidden, part, TagPermissionDenied, format, args...)
}

// Forbidden reports an authorization failure with a specific tag.
func Forbidden(part string, tag Tag, format string, args ...any) *Error {
	return newError(KindPermission, http.StatusForbidden, part, tag, format, args...)
}

// NotFound reports a missing entity.
func NotFound(part string, tag Tag, format string, args ...any) *Error {
	return newError(KindNotFound, http.StatusNotFound, part, tag, format, args...)
}

// Conflict reports pre-existing state that blocks the operation.
func Conflict(part string, tag Tag, format string, args ...any) *Error {
	return newError(KindConflict, http.StatusBadRequest, part, tag, format, args...)
}

// RateLimited reports a client sending faster than allowed.
func RateLimited(part string, format string, args ...any) *Error {
	return newError(KindValidation, http.StatusTooManyRequests, part, TagRateLimited, format, args...)
}

// Server wraps an unexpected failure.
func Server(part string, cause error) *Error {
	return &Error{
		Kind:       KindServer,
		Message:    "unexpected server error",
		Part:       part,
		Tag:        TagException,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Wrap returns err unchanged when it already is (or wraps) an *Error, otherwise a
// Server error for part. A nil err stays nil.
func Wrap(part string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Server(part, err)
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasTag reports whether err carries tag.
func HasTag(err error, tag Tag) bool {
	e, ok := As(err)
	return ok && e.Tag == tag
}
