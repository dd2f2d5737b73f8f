package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/lockset"
	"github.com/mcg25035/RiceCall-sub002/internal/middleware"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/services/channels"
	"github.com/mcg25035/RiceCall-sub002/internal/services/membership"
	"github.com/mcg25035/RiceCall-sub002/internal/services/messaging"
	"github.com/mcg25035/RiceCall-sub002/internal/services/presence"
	"github.com/mcg25035/RiceCall-sub002/internal/services/relationship"
	"github.com/mcg25035/RiceCall-sub002/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type wsTestFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type testEnv struct {
	srv      *httptest.Server
	h        *RouteHandler
	store    dal.Store
	verifier *middleware.TokenVerifier
}

func newTestEnv(t *testing.T, limits Limits) *testEnv {
	t.Helper()
	store := dal.NewMemoryStore()
	log := zerolog.Nop()
	services := Services{
		Relationship: relationship.New(store, lockset.New()),
		Membership:   membership.New(store),
		Channels:     channels.New(store, log),
		Presence:     presence.New(store),
		Messaging:    messaging.New(store),
	}
	h := NewRouteHandler(store, session.NewRegistry(), services, limits, log)
	verifier := middleware.NewTokenVerifier("test-secret", "ricecall")

	mux := http.NewServeMux()
	mux.Handle("GET /ws", h.WSHandler())
	mux.HandleFunc("GET /up", h.Up)
	mux.HandleFunc("GET /status", h.Status)
	srv := httptest.NewServer(middleware.TokenAuth(mux, verifier, log))
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return &testEnv{srv: srv, h: h, store: store, verifier: verifier}
}

// seedServer creates server "s" whose lobby is channel "lobby".
func (e *testEnv) seedServer(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, dal.SetServer(ctx, e.store, "s", schemas.Server{ServerID: "s", Name: "Rice", LobbyID: "lobby", Visibility: schemas.ServerPublic}))
	require.NoError(t, dal.SetChannel(ctx, e.store, "s", "lobby", schemas.Channel{ChannelID: "lobby", ServerID: "s", IsLobby: true, Visibility: schemas.ChannelPublic}))
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.verifier.Issue(userID, "", time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
}

type wsClient struct {
	t            *testing.T
	conn         *websocket.Conn
	connectionID string
	pending      []wsTestFrame
	seq          int
}

// dial connects as userID and consumes the connected event.
func (e *testEnv) dial(t *testing.T, userID string) *wsClient {
	t.Helper()
	cfg, err := websocket.NewConfig(e.wsURL(), e.srv.URL)
	require.NoError(t, err)
	cfg.Header = make(http.Header)
	cfg.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	conn, err := websocket.DialConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &wsClient{t: t, conn: conn}
	connected := c.event(EventConnected)
	var payload struct {
		ConnectionID string `json:"connectionId"`
	}
	require.NoError(t, json.Unmarshal(connected.Payload, &payload))
	c.connectionID = payload.ConnectionID
	return c
}

func (c *wsClient) read() (wsTestFrame, error) {
	var frame wsTestFrame
	_ = c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	err := websocket.JSON.Receive(c.conn, &frame)
	return frame, err
}

func (c *wsClient) send(typ, requestID string, payload any) {
	c.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(c.t, err)
	require.NoError(c.t, websocket.JSON.Send(c.conn, wsTestFrame{Type: typ, RequestID: requestID, Payload: raw}))
}

// call sends a command and returns its ack or error frame. Events read meanwhile are
// kept for event.
func (c *wsClient) call(typ string, payload any) wsTestFrame {
	c.t.Helper()
	c.seq++
	requestID := typ + "-" + string(rune('a'+c.seq%26))
	c.send(typ, requestID, payload)
	for {
		frame, err := c.read()
		require.NoError(c.t, err)
		if frame.RequestID == requestID {
			return frame
		}
		c.pending = append(c.pending, frame)
	}
}

// event returns the next pushed frame of type typ.
func (c *wsClient) event(typ string) wsTestFrame {
	c.t.Helper()
	for i, frame := range c.pending {
		if frame.Type == typ {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return frame
		}
	}
	for {
		frame, err := c.read()
		require.NoError(c.t, err, "waiting for %s", typ)
		if frame.Type == typ {
			return frame
		}
		c.pending = append(c.pending, frame)
	}
}

func ackPayload[T any](t *testing.T, frame wsTestFrame) T {
	t.Helper()
	require.Equal(t, frameAck, frame.Type, "payload: %s", frame.Payload)
	var out T
	require.NoError(t, json.Unmarshal(frame.Payload, &out))
	return out
}

func errorPayload(t *testing.T, frame wsTestFrame) apperr.Error {
	t.Helper()
	require.Equal(t, frameError, frame.Type, "payload: %s", frame.Payload)
	var out apperr.Error
	require.NoError(t, json.Unmarshal(frame.Payload, &out))
	return out
}

func TestHandshakeRequiresToken(t *testing.T) {
	env := newTestEnv(t, Limits{})

	_, err := websocket.Dial(env.wsURL(), "", env.srv.URL)
	assert.Error(t, err)

	res, err := http.Get(env.srv.URL + "/up")
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, Limits{})
	env.dial(t, "u1")

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/status", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token(t, "u1"))
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		User schemas.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "u1", body.User.UserID)
	assert.Equal(t, "online", body.User.Status)

	req.Header.Set("Authorization", "Bearer "+env.token(t, "ghost"))
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusNotFound, res2.StatusCode)
}

func TestUnknownCommandAndValidation(t *testing.T) {
	env := newTestEnv(t, Limits{})
	u1 := env.dial(t, "u1")

	e := errorPayload(t, u1.call("teleport", map[string]any{}))
	assert.Equal(t, apperr.TagUnknownCommand, e.Tag)

	e = errorPayload(t, u1.call("createFriend", map[string]any{"userId": "u1", "targetId": "u2", "bogus": 1}))
	assert.Equal(t, apperr.TagValidation, e.Tag)
	assert.Equal(t, "CreateFriendSchema", e.Part)
	assert.Equal(t, http.StatusBadRequest, e.StatusCode)
}

func TestCreateFriendNotifiesTarget(t *testing.T) {
	env := newTestEnv(t, Limits{})
	u1 := env.dial(t, "u1")
	u2 := env.dial(t, "u2")

	payload := map[string]any{"userId": "u1", "targetId": "u2"}
	ackPayload[map[string]any](t, u1.call("createFriend", payload))

	var friend schemas.Friend
	require.NoError(t, json.Unmarshal(u2.event(EventFriendAdd).Payload, &friend))
	assert.Equal(t, "u2", friend.UserID)
	assert.Equal(t, "u1", friend.TargetID)

	e := errorPayload(t, u1.call("createFriend", payload))
	assert.Equal(t, apperr.TagFriendExists, e.Tag)

	e = errorPayload(t, u2.call("createFriend", map[string]any{"userId": "u1", "targetId": "u3"}))
	assert.Equal(t, apperr.TagPermissionDenied, e.Tag)
}

func TestSessionSupersession(t *testing.T) {
	env := newTestEnv(t, Limits{})
	first := env.dial(t, "u1")
	second := env.dial(t, "u1")

	first.event(EventAnotherDeviceLogin)
	_, err := first.read()
	assert.Error(t, err)

	ackPayload[[]schemas.User](t, second.call("searchUser", map[string]any{"query": "u1"}))
	assert.True(t, env.h.registry.IsCanonical("u1", second.connectionID))
	assert.False(t, env.h.registry.IsCanonical("u1", first.connectionID))
}

func TestSignalingThroughCallGroup(t *testing.T) {
	env := newTestEnv(t, Limits{})
	env.seedServer(t)
	u1 := env.dial(t, "u1")
	u2 := env.dial(t, "u2")

	ackPayload[map[string]any](t, u1.call("connectServer", map[string]any{"userId": "u1", "serverId": "s"}))
	ackPayload[map[string]any](t, u2.call("connectServer", map[string]any{"userId": "u2", "serverId": "s"}))

	joined := ackPayload[rtcJoined](t, u1.call("rtcJoin", map[string]any{"channelId": "lobby"}))
	assert.Empty(t, joined.Peers)
	joined = ackPayload[rtcJoined](t, u2.call("rtcJoin", map[string]any{"channelId": "lobby"}))
	assert.Equal(t, []string{"u1"}, joined.Peers)

	var peer schemas.RTCPeerEvent
	require.NoError(t, json.Unmarshal(u1.event("rtcJoin").Payload, &peer))
	assert.Equal(t, "u2", peer.From)

	u2.call("rtcOffer", map[string]any{"to": "u1", "offer": map[string]any{"type": "offer", "sdp": "v=0"}})
	var signal struct {
		From  string `json:"from"`
		Kind  string `json:"kind"`
		Offer struct {
			Type string `json:"type"`
			SDP  string `json:"sdp"`
		} `json:"offer"`
	}
	require.NoError(t, json.Unmarshal(u1.event("rtcOffer").Payload, &signal))
	assert.Equal(t, "u2", signal.From)
	assert.Equal(t, "offer", signal.Offer.Type)
	assert.Equal(t, "v=0", signal.Offer.SDP)

	// offline targets are dropped without an error
	frame := u2.call("rtcCandidate", map[string]any{"to": "u9", "candidate": map[string]any{"candidate": ""}})
	assert.Equal(t, frameAck, frame.Type)

	e := errorPayload(t, u2.call("rtcJoin", map[string]any{"channelId": "elsewhere"}))
	assert.Equal(t, apperr.TagPermissionDenied, e.Tag)

	u2.call("rtcLeave", map[string]any{"channelId": "lobby"})
	require.NoError(t, json.Unmarshal(u1.event("rtcLeave").Payload, &peer))
	assert.Equal(t, "u2", peer.From)
}

func TestChannelMessageReachesRoom(t *testing.T) {
	env := newTestEnv(t, Limits{})
	env.seedServer(t)
	u1 := env.dial(t, "u1")
	u2 := env.dial(t, "u2")
	ackPayload[map[string]any](t, u1.call("connectServer", map[string]any{"userId": "u1", "serverId": "s"}))
	ackPayload[map[string]any](t, u2.call("connectServer", map[string]any{"userId": "u2", "serverId": "s"}))

	msg := ackPayload[schemas.Message](t, u1.call("sendMessage", map[string]any{
		"userId": "u1", "serverId": "s", "channelId": "lobby", "message": map[string]any{"content": "hi"},
	}))
	assert.NotEmpty(t, msg.MessageID)

	var got schemas.Message
	require.NoError(t, json.Unmarshal(u2.event(EventChannelMessage).Payload, &got))
	assert.Equal(t, msg.MessageID, got.MessageID)
	assert.Equal(t, "hi", got.Content)
}

func TestDisconnectClearsPresence(t *testing.T) {
	env := newTestEnv(t, Limits{})
	env.seedServer(t)
	u1 := env.dial(t, "u1")
	u2 := env.dial(t, "u2")
	ackPayload[map[string]any](t, u1.call("connectServer", map[string]any{"userId": "u1", "serverId": "s"}))
	ackPayload[map[string]any](t, u2.call("connectServer", map[string]any{"userId": "u2", "serverId": "s"}))

	require.NoError(t, u1.conn.Close())

	var left struct {
		UserID   string `json:"userId"`
		ServerID string `json:"serverId"`
	}
	require.NoError(t, json.Unmarshal(u2.event(EventServerDisconnect).Payload, &left))
	assert.Equal(t, "u1", left.UserID)
	assert.Equal(t, "s", left.ServerID)

	user, err := dal.GetUser(context.Background(), env.store, "u1")
	require.NoError(t, err)
	assert.Equal(t, "offline", user.Status)
	assert.Nil(t, user.CurrentServerID)
	assert.False(t, env.h.registry.IsCanonical("u1", u1.connectionID))
}

func TestFrameLimits(t *testing.T) {
	env := newTestEnv(t, Limits{MaxFrameBytes: 1024, FramesPerSecond: 100})
	u1 := env.dial(t, "u1")

	require.NoError(t, websocket.Message.Send(u1.conn, `{"type":"searchUser","payload":{"query":"`+strings.Repeat("x", 2000)+`"}}`))
	e := errorPayload(t, u1.event(frameError))
	assert.Contains(t, e.Message, "too large")

	require.NoError(t, websocket.Message.Send(u1.conn, `{not json`))
	e = errorPayload(t, u1.event(frameError))
	assert.Contains(t, e.Message, "malformed")

	// the connection survives both
	ackPayload[[]schemas.User](t, u1.call("searchUser", map[string]any{"query": "u1"}))
}

func TestRateLimitClosesConnection(t *testing.T) {
	env := newTestEnv(t, Limits{FramesPerSecond: 3})
	u1 := env.dial(t, "u1")

	for i := range 5 {
		u1.send("searchUser", "r"+string(rune('0'+i)), map[string]any{"query": "u1"})
	}
	for {
		frame, err := u1.read()
		require.NoError(t, err, "expected a rate limit error before close")
		if frame.Type == frameError {
			e := errorPayload(t, frame)
			assert.Equal(t, apperr.TagRateLimited, e.Tag)
			break
		}
	}
	_, err := u1.read()
	assert.Error(t, err)
}

func TestCloseTearsDownSessions(t *testing.T) {
	env := newTestEnv(t, Limits{})
	env.seedServer(t)
	u1 := env.dial(t, "u1")
	ackPayload[map[string]any](t, u1.call("connectServer", map[string]any{"userId": "u1", "serverId": "s"}))

	env.h.Close()

	assert.Equal(t, 0, env.h.registry.Len())
	user, err := dal.GetUser(context.Background(), env.store, "u1")
	require.NoError(t, err)
	assert.Equal(t, "offline", user.Status)
	assert.Nil(t, user.CurrentServerID)

	_, err = u1.read()
	assert.Error(t, err)
}

func TestDispatchRejectsReplacedSession(t *testing.T) {
	env := newTestEnv(t, Limits{})
	u1 := env.dial(t, "u1")

	stale := &client{connectionID: "stale", userID: "u1"}
	_, err := env.h.Dispatch(context.Background(), stale, "searchUser", json.RawMessage(`{"query":"u"}`))
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.TagTokenInvalid, e.Tag)
	assert.Equal(t, http.StatusUnauthorized, e.StatusCode)

	live := &client{connectionID: u1.connectionID, userID: "u1"}
	_, err = env.h.Dispatch(context.Background(), live, "searchUser", json.RawMessage(`{"query":"u"}`))
	assert.NoError(t, err)
}
