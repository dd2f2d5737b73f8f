package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/middleware"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"golang.org/x/net/websocket"
)

// Events pushed by the transport itself.
const (
	EventConnected          = "connected"
	EventAnotherDeviceLogin = "anotherDeviceLogin"
	EventServerDisconnect   = "serverDisconnect"
)

const (
	frameAck   = "ack"
	frameError = "error"

	partFrame = "WebSocketFrame"

	maxDecodeErrorsPerConn = 5
	writeTimeout           = 5 * time.Second
	disconnectTimeout      = 5 * time.Second
)

var errUnknownConnection = errors.New("unknown connection")

type inboundFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type outboundFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Payload   any    `json:"payload"`
}

type connectedPayload struct {
	ConnectionID string       `json:"connectionId"`
	User         schemas.User `json:"user"`
}

// peer serializes writes to one websocket.
type peer struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (p *peer) write(frame outboundFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return net.ErrClosed
	}
	_ = p.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return websocket.JSON.Send(p.ws, frame)
}

func (p *peer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	_ = p.ws.Close()
}

// connections maps connection ids to their peers. It is the signaling.Sender used by
// the relay and by the router's event fan-out.
type connections struct {
	mu    sync.RWMutex
	peers map[string]*peer
}

func newConnections() *connections {
	return &connections{peers: make(map[string]*peer)}
}

func (c *connections) add(id string, p *peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[id] = p
}

func (c *connections) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.peers, id)
}

func (c *connections) get(id string) (*peer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.peers[id]
	return p, ok
}

// Send pushes an event frame to connectionID.
func (c *connections) Send(connectionID, event string, payload any) error {
	p, ok := c.get(connectionID)
	if !ok {
		return errUnknownConnection
	}
	return p.write(outboundFrame{Type: event, Payload: payload})
}

// client is the authenticated side of one websocket connection.
type client struct {
	connectionID string
	userID       string
	peer         *peer
}

// frameLimiter counts frames in one-second windows.
type frameLimiter struct {
	max         int
	windowStart time.Time
	count       int
}

func (l *frameLimiter) allow(now time.Time) bool {
	if now.Sub(l.windowStart) >= time.Second {
		l.windowStart = now
		l.count = 0
	}
	l.count++
	return l.count <= l.max
}

// WSHandler returns the websocket endpoint. Origins are not checked: every connection
// is authenticated by token before the upgrade.
func (h *RouteHandler) WSHandler() http.Handler {
	return websocket.Server{
		Handshake: websocketHandshake,
		Handler:   h.ServeWS,
	}
}

func websocketHandshake(_ *websocket.Config, _ *http.Request) error { return nil }

// ServeWS runs one client connection: it registers the session, then reads command
// frames and answers each one with an ack or an error until the connection ends, the
// session is superseded by a newer login, or the server shuts down.
func (h *RouteHandler) ServeWS(ws *websocket.Conn) {
	identity, ok := middleware.GetIdentity(ws.Request().Context())
	if !ok || identity.UserID == "" || !h.track() {
		_ = ws.Close()
		return
	}
	defer h.active.Done()
	// the hijacked conn may still carry the http server's deadlines
	_ = ws.SetDeadline(time.Time{})
	ws.MaxPayloadBytes = h.limits.MaxFrameBytes

	ctx, cancel := context.WithCancel(ws.Request().Context())
	defer cancel()

	c := &client{connectionID: uuid.NewString(), userID: identity.UserID, peer: &peer{ws: ws}}
	user, err := h.connect(ctx, c, identity.Name)
	if err != nil {
		h.log.Error().Err(err).Str("user", c.userID).Msg("error registering session")
		_ = c.peer.write(errorFrame("", err))
		c.peer.close()
		h.disconnect(c)
		return
	}
	defer h.disconnect(c)

	var (
		readWg sync.WaitGroup
		frames = make(chan received[inboundFrame])
		stop   = make(chan struct{})
	)
	defer func() {
		close(stop)
		c.peer.close()
		readWg.Wait()
	}()
	readWg.Go(func() {
		ReadForever(ws, frames, stop)
	})

	_ = c.peer.write(outboundFrame{Type: EventConnected, Payload: connectedPayload{ConnectionID: c.connectionID, User: user}})

	limiter := &frameLimiter{max: h.limits.FramesPerSecond}
	decodeErrors := 0
	for {
		select {
		case <-h.done:
			return
		case <-ctx.Done():
			return
		case r, ok := <-frames:
			if !ok {
				return
			}
			if r.err != nil {
				decodeErrors++
				msg := "malformed frame"
				if errors.Is(r.err, websocket.ErrFrameTooLarge) {
					msg = "frame too large"
				}
				_ = c.peer.write(errorFrame("", apperr.Validation(partFrame, "%s", msg)))
				if decodeErrors >= maxDecodeErrorsPerConn {
					return
				}
				continue
			}
			decodeErrors = 0

			if !limiter.allow(time.Now()) {
				_ = c.peer.write(errorFrame(r.data.RequestID, apperr.RateLimited(partFrame, "rate limit exceeded")))
				return
			}

			result, err := h.Dispatch(ctx, c, r.data.Type, r.data.Payload)
			if err != nil {
				_ = c.peer.write(errorFrame(r.data.RequestID, err))
				continue
			}
			_ = c.peer.write(outboundFrame{Type: frameAck, RequestID: r.data.RequestID, Payload: result})
		}
	}
}

// connect makes c the canonical session of its user and marks the user online. A
// superseded connection is told about the new login and closed. The new connection
// rejoins the rooms of the location the user is still recorded in.
func (h *RouteHandler) connect(ctx context.Context, c *client, name string) (schemas.User, error) {
	unlock := h.locks.Lock(sessionLockKey(c.userID))
	defer unlock()

	h.conns.add(c.connectionID, c.peer)
	previous, superseded := h.registry.Register(c.userID, c.connectionID)
	if superseded {
		h.log.Info().Str("user", c.userID).Str("conn", previous.ConnectionID).Msg("session superseded")
		if old, ok := h.conns.get(previous.ConnectionID); ok {
			_ = old.write(outboundFrame{Type: EventAnotherDeviceLogin})
			old.close()
		}
	}

	user, err := h.services.Presence.Online(ctx, c.userID, name)
	if err != nil {
		return schemas.User{}, err
	}
	if user.CurrentServerID != nil {
		h.rooms.Join(serverRoom(*user.CurrentServerID), c.connectionID)
	}
	if user.CurrentChannelID != nil {
		h.rooms.Join(channelRoom(*user.CurrentChannelID), c.connectionID)
	}
	h.log.Debug().Str("user", c.userID).Str("conn", c.connectionID).Int("sessions", h.registry.Len()).Msg("session registered")
	return user, nil
}

// disconnect tears down c. Presence is cleared only when c was still the canonical
// session; a superseded connection leaves the newer one untouched.
func (h *RouteHandler) disconnect(c *client) {
	unlock := h.locks.Lock(sessionLockKey(c.userID))
	defer unlock()

	canonical := h.registry.Unregister(c.userID, c.connectionID)
	h.leaveServerRooms(c.connectionID)
	h.conns.remove(c.connectionID)
	if !canonical {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	left, err := h.services.Presence.Offline(ctx, c.userID)
	if err != nil {
		h.log.Error().Err(err).Str("user", c.userID).Msg("error clearing presence")
		return
	}
	if left.ServerID != "" {
		h.emitToRoom(serverRoom(left.ServerID), EventServerDisconnect, left)
	}
	h.log.Debug().Str("user", c.userID).Str("conn", c.connectionID).Int("sessions", h.registry.Len()).Msg("session closed")
}

func sessionLockKey(userID string) string { return "session:" + userID }

func errorFrame(requestID string, err error) outboundFrame {
	return outboundFrame{Type: frameError, RequestID: requestID, Payload: apperr.Wrap(partFrame, err)}
}

type received[T any] struct {
	data T
	err  error
}

// ReadForever reads JSON messages from ws in a loop, sending each one to ch. Oversized
// or malformed messages are passed on as errors and reading continues; any other error
// ends the loop. ch is closed when the loop stops.
func ReadForever[T any](ws *websocket.Conn, ch chan<- received[T], stop <-chan struct{}) {
	defer close(ch)
	for {
		var data T
		err := websocket.JSON.Receive(ws, &data)
		if err != nil && !recoverable(err) {
			return
		}
		select {
		case ch <- received[T]{data: data, err: err}:
		case <-stop:
			return
		}
	}
}

func recoverable(err error) bool {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	return errors.Is(err, websocket.ErrFrameTooLarge) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
