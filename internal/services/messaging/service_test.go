package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T) (*Service, dal.Store) {
	t.Helper()
	ctx := context.Background()
	store := dal.NewMemoryStore()
	require.NoError(t, dal.SetChannel(ctx, store, "s", "talk", schemas.Channel{ChannelID: "talk", ServerID: "s", Visibility: schemas.ChannelPublic}))
	require.NoError(t, dal.SetChannel(ctx, store, "s", "news", schemas.Channel{ChannelID: "news", ServerID: "s", Visibility: schemas.ChannelReadonly}))
	for _, u := range []string{"u1", "u2", "editor"} {
		require.NoError(t, dal.SetUser(ctx, store, u, schemas.User{UserID: u, CurrentServerID: ptr("s"), CurrentChannelID: ptr("talk")}))
	}
	require.NoError(t, dal.SetMember(ctx, store, "editor", "s", schemas.Member{UserID: "editor", ServerID: "s", PermissionLevel: 3}))
	return New(store).WithClock(func() time.Time { return time.UnixMilli(1700000000000) }), store
}

func requireTag(t *testing.T, err error, tag apperr.Tag, status int) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	assert.Equal(t, tag, e.Tag)
	assert.Equal(t, status, e.StatusCode)
}

func TestSendMessage(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, "u1", schemas.SendMessageRequest{UserID: "u1", ServerID: "s", ChannelID: "talk", Message: schemas.MessagePreset{Content: "hi"}})
	require.NoError(t, err)
	id, err := ulid.Parse(msg.MessageID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000000), id.Time())

	stored, err := dal.ListMessages(ctx, store, "talk")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "hi", stored[0].Content)
}

func TestSendMessageRejections(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	send := func(op, user, channel string) error {
		_, err := svc.SendMessage(ctx, op, schemas.SendMessageRequest{UserID: user, ServerID: "s", ChannelID: channel, Message: schemas.MessagePreset{Content: "x"}})
		return err
	}

	requireTag(t, send("u2", "u1", "talk"), apperr.TagPermissionDenied, 403)
	requireTag(t, send("u1", "u1", "missing"), apperr.TagChannelNotFound, 404)
	requireTag(t, send("u1", "u1", "news"), apperr.TagPermissionDenied, 403)

	require.NoError(t, dal.SetUserPresence(ctx, store, "u1", ptr("s"), ptr("news")))
	requireTag(t, send("u1", "u1", "news"), apperr.TagPermissionDenied, 403)

	require.NoError(t, dal.SetUserPresence(ctx, store, "editor", ptr("s"), ptr("news")))
	assert.NoError(t, send("editor", "editor", "news"))

	require.NoError(t, dal.SetMember(ctx, store, "u2", "s", schemas.Member{UserID: "u2", ServerID: "s", PermissionLevel: 2, IsBlocked: true}))
	requireTag(t, send("u2", "u2", "talk"), apperr.TagMemberBlocked, 403)
}

func TestSendDirectMessage(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	dm := func(from, to string) error {
		_, err := svc.SendDirectMessage(ctx, from, schemas.SendDirectMessageRequest{UserID: from, TargetID: to, DirectMessage: schemas.MessagePreset{Content: "psst"}})
		return err
	}

	requireTag(t, dm("u1", "u2"), apperr.TagFriendNotFound, 404)

	require.NoError(t, dal.SetFriend(ctx, store, "u1", "u2", schemas.Friend{UserID: "u1", TargetID: "u2"}))
	require.NoError(t, dal.SetFriend(ctx, store, "u2", "u1", schemas.Friend{UserID: "u2", TargetID: "u1"}))
	require.NoError(t, dm("u1", "u2"))
	require.NoError(t, dm("u2", "u1"))

	msgs, err := dal.ListDirectMessages(ctx, store, "u1", "u2")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	require.NoError(t, dal.SetFriend(ctx, store, "u2", "u1", map[string]any{"isBlocked": true}))
	requireTag(t, dm("u1", "u2"), apperr.TagPermissionDenied, 403)
	// the blocker can still write
	assert.NoError(t, dm("u2", "u1"))
}
