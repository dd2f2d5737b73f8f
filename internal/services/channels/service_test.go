package channels

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/crypto"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc   *Service
	store dal.Store
	ctx   context.Context
}

// newFixture seeds server "s" with lobby "lobby" and a member per entry of levels.
// Every user starts in the lobby.
func newFixture(t *testing.T, levels map[string]int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := dal.NewMemoryStore()
	require.NoError(t, dal.SetServer(ctx, store, "s", schemas.Server{ServerID: "s", LobbyID: "lobby"}))
	require.NoError(t, dal.SetChannel(ctx, store, "s", "lobby", schemas.Channel{ChannelID: "lobby", ServerID: "s", Name: "Lobby", IsLobby: true, Visibility: schemas.ChannelPublic}))
	for userID, level := range levels {
		require.NoError(t, dal.SetUser(ctx, store, userID, schemas.User{UserID: userID, CurrentServerID: ptr("s"), CurrentChannelID: ptr("lobby")}))
		require.NoError(t, dal.SetMember(ctx, store, userID, "s", schemas.Member{UserID: userID, ServerID: "s", PermissionLevel: level}))
	}

	svc := New(store, zerolog.Nop())
	svc.now = func() time.Time { return time.UnixMilli(7) }
	var n int
	svc.newID = func() string {
		n++
		return fmt.Sprintf("ch-%d", n)
	}
	return &fixture{svc: svc, store: store, ctx: ctx}
}

func (f *fixture) channel(t *testing.T, c schemas.Channel) {
	t.Helper()
	c.ServerID = "s"
	require.NoError(t, dal.SetChannel(f.ctx, f.store, "s", c.ChannelID, c))
}

func (f *fixture) currentChannel(t *testing.T, userID string) *string {
	t.Helper()
	u, err := dal.GetUser(f.ctx, f.store, userID)
	require.NoError(t, err)
	return u.CurrentChannelID
}

func requireTag(t *testing.T, err error, tag apperr.Tag, status int) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	assert.Equal(t, tag, e.Tag)
	assert.Equal(t, status, e.StatusCode)
}

func TestCreateChannelNeedsModerator(t *testing.T) {
	f := newFixture(t, map[string]int{"mod": 5, "member": 2})

	_, err := f.svc.CreateChannel(f.ctx, "member", schemas.CreateChannelRequest{ServerID: "s", Channel: schemas.ChannelPreset{Name: ptr("x")}})
	requireTag(t, err, apperr.TagPermissionDenied, 403)

	_, err = f.svc.CreateChannel(f.ctx, "mod", schemas.CreateChannelRequest{ServerID: "nope", Channel: schemas.ChannelPreset{Name: ptr("x")}})
	requireTag(t, err, apperr.TagServerNotFound, 404)

	c, err := f.svc.CreateChannel(f.ctx, "mod", schemas.CreateChannelRequest{ServerID: "s", Channel: schemas.ChannelPreset{
		Name: ptr("Games"), Password: ptr("secret"), UserLimit: ptr(3),
	}})
	require.NoError(t, err)
	assert.Equal(t, "ch-1", c.ChannelID)
	assert.Equal(t, "Games", c.Name)
	assert.Equal(t, schemas.ChannelPublic, c.Visibility)
	assert.True(t, c.HasPassword)
	assert.False(t, c.IsLobby)
	assert.Equal(t, int64(7), c.CreatedAt)

	stored, err := dal.GetChannel(f.ctx, f.store, "s", "ch-1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", stored.Password)
	ok, err := crypto.CheckChannelPassword(stored.Password, "secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateChannelClearsPassword(t *testing.T) {
	f := newFixture(t, map[string]int{"mod": 5})
	hashed, err := crypto.HashChannelPassword("pw")
	require.NoError(t, err)
	f.channel(t, schemas.Channel{ChannelID: "c1", Name: "Old", Password: hashed})

	c, err := f.svc.UpdateChannel(f.ctx, "mod", schemas.UpdateChannelRequest{ServerID: "s", ChannelID: "c1", Channel: schemas.ChannelPreset{Name: ptr("New"), Password: ptr("")}})
	require.NoError(t, err)
	assert.Equal(t, "New", c.Name)
	assert.False(t, c.HasPassword)

	_, err = f.svc.UpdateChannel(f.ctx, "mod", schemas.UpdateChannelRequest{ServerID: "s", ChannelID: "missing"})
	requireTag(t, err, apperr.TagChannelNotFound, 404)
}

func TestUpdateChannelsIsAllOrNothing(t *testing.T) {
	f := newFixture(t, map[string]int{"mod": 5})
	f.channel(t, schemas.Channel{ChannelID: "c1", Order: 0})
	f.channel(t, schemas.Channel{ChannelID: "c2", Order: 1})

	_, err := f.svc.UpdateChannels(f.ctx, "mod", schemas.UpdateChannelsRequest{ServerID: "s", Channels: []schemas.ChannelUpdate{
		{ChannelID: "c1", ChannelPreset: schemas.ChannelPreset{Order: ptr(5)}},
		{ChannelID: "missing", ChannelPreset: schemas.ChannelPreset{Order: ptr(6)}},
	}})
	requireTag(t, err, apperr.TagChannelNotFound, 404)
	c1, err := dal.GetChannel(f.ctx, f.store, "s", "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, c1.Order)

	out, err := f.svc.UpdateChannels(f.ctx, "mod", schemas.UpdateChannelsRequest{ServerID: "s", Channels: []schemas.ChannelUpdate{
		{ChannelID: "c1", ChannelPreset: schemas.ChannelPreset{Order: ptr(1)}},
		{ChannelID: "c2", ChannelPreset: schemas.ChannelPreset{Order: ptr(0)}},
	}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Order)
	assert.Equal(t, 0, out[1].Order)
}

func TestDeleteChannelMovesUsersToLobby(t *testing.T) {
	f := newFixture(t, map[string]int{"mod": 5, "u1": 2})
	f.channel(t, schemas.Channel{ChannelID: "c1"})
	require.NoError(t, dal.SetUserPresence(f.ctx, f.store, "u1", ptr("s"), ptr("c1")))

	_, err := f.svc.DeleteChannel(f.ctx, "mod", schemas.DeleteChannelRequest{ServerID: "s", ChannelID: "lobby"})
	requireTag(t, err, apperr.TagLobbyChannel, 403)

	_, err = f.svc.DeleteChannel(f.ctx, "u1", schemas.DeleteChannelRequest{ServerID: "s", ChannelID: "c1"})
	requireTag(t, err, apperr.TagPermissionDenied, 403)

	removed, err := f.svc.DeleteChannel(f.ctx, "mod", schemas.DeleteChannelRequest{ServerID: "s", ChannelID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, removed.MovedUserIDs)
	assert.Equal(t, "lobby", *f.currentChannel(t, "u1"))

	c, err := dal.GetChannel(f.ctx, f.store, "s", "c1")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestConnectChannel(t *testing.T) {
	hashed, err := crypto.HashChannelPassword("pw")
	require.NoError(t, err)

	tests := []struct {
		name     string
		channel  schemas.Channel
		operator string
		user     string
		password *string
		tag      apperr.Tag
		status   int
	}{
		{"open channel", schemas.Channel{ChannelID: "c1"}, "guest", "guest", nil, "", 0},
		{"missing channel", schemas.Channel{ChannelID: "other"}, "guest", "guest", nil, apperr.TagChannelNotFound, 404},
		{"private needs member", schemas.Channel{ChannelID: "c1", Visibility: schemas.ChannelPrivate}, "guest", "guest", nil, apperr.TagPermissionDenied, 403},
		{"private member ok", schemas.Channel{ChannelID: "c1", Visibility: schemas.ChannelPrivate}, "member", "member", nil, "", 0},
		{"no password", schemas.Channel{ChannelID: "c1", Password: hashed}, "member", "member", nil, apperr.TagPasswordIncorrect, 403},
		{"wrong password", schemas.Channel{ChannelID: "c1", Password: hashed}, "member", "member", ptr("nope"), apperr.TagPasswordIncorrect, 403},
		{"right password", schemas.Channel{ChannelID: "c1", Password: hashed}, "member", "member", ptr("pw"), "", 0},
		{"moderator skips password", schemas.Channel{ChannelID: "c1", Password: hashed}, "mod", "mod", nil, "", 0},
		{"full", schemas.Channel{ChannelID: "c1", UserLimit: 1}, "member", "member", nil, apperr.TagChannelFull, 403},
		{"moderator ignores limit", schemas.Channel{ChannelID: "c1", UserLimit: 1}, "mod", "mod", nil, "", 0},
		{"blocked", schemas.Channel{ChannelID: "c1"}, "blocked", "blocked", nil, apperr.TagMemberBlocked, 403},
		{"move other as peer", schemas.Channel{ChannelID: "c1"}, "member", "guest", nil, apperr.TagPermissionDenied, 403},
		{"moderator moves guest", schemas.Channel{ChannelID: "c1", Password: hashed}, "mod", "guest", nil, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]int{"guest": 1, "member": 2, "mod": 5, "blocked": 2, "occupant": 2})
			require.NoError(t, dal.SetMember(f.ctx, f.store, "blocked", "s", map[string]any{"isBlocked": true}))
			f.channel(t, tt.channel)
			if tt.channel.ChannelID == "c1" {
				require.NoError(t, dal.SetUserPresence(f.ctx, f.store, "occupant", ptr("s"), ptr("c1")))
			}

			presence, err := f.svc.ConnectChannel(f.ctx, tt.operator, schemas.ConnectChannelRequest{
				UserID: tt.user, ServerID: "s", ChannelID: "c1", Password: tt.password,
			})
			if tt.tag != "" {
				requireTag(t, err, tt.tag, tt.status)
				assert.Equal(t, "lobby", *f.currentChannel(t, tt.user))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "c1", *presence.ChannelID)
			assert.Equal(t, "lobby", *presence.PrevChannelID)
			assert.Equal(t, "c1", *f.currentChannel(t, tt.user))
		})
	}
}

func TestConnectChannelRequiresServerPresence(t *testing.T) {
	f := newFixture(t, map[string]int{"u1": 2})
	f.channel(t, schemas.Channel{ChannelID: "c1"})
	require.NoError(t, dal.SetUserPresence(f.ctx, f.store, "u1", nil, nil))

	_, err := f.svc.ConnectChannel(f.ctx, "u1", schemas.ConnectChannelRequest{UserID: "u1", ServerID: "s", ChannelID: "c1"})
	requireTag(t, err, apperr.TagPermissionDenied, 403)
}

func TestDisconnectChannel(t *testing.T) {
	f := newFixture(t, map[string]int{"u1": 2, "u2": 2})
	f.channel(t, schemas.Channel{ChannelID: "c1"})
	require.NoError(t, dal.SetUserPresence(f.ctx, f.store, "u1", ptr("s"), ptr("c1")))

	_, err := f.svc.DisconnectChannel(f.ctx, "u2", schemas.DisconnectChannelRequest{UserID: "u1", ServerID: "s", ChannelID: "c1"})
	requireTag(t, err, apperr.TagPermissionDenied, 403)

	presence, err := f.svc.DisconnectChannel(f.ctx, "u1", schemas.DisconnectChannelRequest{UserID: "u1", ServerID: "s", ChannelID: "c1"})
	require.NoError(t, err)
	assert.Nil(t, presence.ChannelID)
	assert.Equal(t, "c1", *presence.PrevChannelID)
	assert.Nil(t, f.currentChannel(t, "u1"))

	u, err := dal.GetUser(f.ctx, f.store, "u1")
	require.NoError(t, err)
	assert.Equal(t, "s", *u.CurrentServerID)
}
