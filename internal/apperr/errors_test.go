package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetStatusAndKind(t *testing.T) {
	cases := []struct {
		name   string
		err    *Error
		kind   Kind
		tag    Tag
		status int
	}{
		{"validation", Validation("CreateFriendSchema", "bad"), KindValidation, TagValidation, http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("Handshake", "no token"), KindValidation, TagTokenInvalid, http.StatusUnauthorized},
		{"permission", Permission("CreateFriend", "nope"), KindPermission, TagPermissionDenied, http.StatusForbidden},
		{"forbidden", Forbidden("ConnectChannel", TagChannelFull, "full"), KindPermission, TagChannelFull, http.StatusForbidden},
		{"not found", NotFound("UpdateChannel", TagChannelNotFound, "missing"), KindNotFound, TagChannelNotFound, http.StatusNotFound},
		{"conflict", Conflict("CreateFriend", TagFriendExists, "exists"), KindConflict, TagFriendExists, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.err.Kind)
			assert.Equal(t, tc.tag, tc.err.Tag)
			assert.Equal(t, tc.status, tc.err.StatusCode)
		})
	}
}

func TestWrapPassesStructuredErrorsThrough(t *testing.T) {
	original := Conflict("CreateFriend", TagFriendExists, "friend exists")
	wrapped := fmt.Errorf("service: %w", original)

	got := Wrap("Router", wrapped)

	e, ok := As(got)
	require.True(t, ok)
	assert.Same(t, original, e)
}

func TestWrapTurnsRawErrorsIntoServerErrors(t *testing.T) {
	raw := errors.New("disk on fire")

	got := Wrap("Router", raw)

	e, ok := As(got)
	require.True(t, ok)
	assert.Equal(t, KindServer, e.Kind)
	assert.Equal(t, TagException, e.Tag)
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
	assert.ErrorIs(t, got, raw)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap("Router", nil))
}

func TestIsMatchesByTag(t *testing.T) {
	err := Conflict("A", TagFriendExists, "x")
	assert.True(t, errors.Is(err, &Error{Tag: TagFriendExists}))
	assert.False(t, errors.Is(err, &Error{Tag: TagPermissionDenied}))
	assert.True(t, HasTag(fmt.Errorf("ctx: %w", err), TagFriendExists))
}
