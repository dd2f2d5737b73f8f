// package routes contains the exposed API endpoints: the command websocket and the
// small HTTP management surface.
package routes

import (
	"sync"

	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/lockset"
	"github.com/mcg25035/RiceCall-sub002/internal/services/channels"
	"github.com/mcg25035/RiceCall-sub002/internal/services/membership"
	"github.com/mcg25035/RiceCall-sub002/internal/services/messaging"
	"github.com/mcg25035/RiceCall-sub002/internal/services/presence"
	"github.com/mcg25035/RiceCall-sub002/internal/services/relationship"
	"github.com/mcg25035/RiceCall-sub002/internal/session"
	"github.com/mcg25035/RiceCall-sub002/internal/signaling"
	"github.com/rs/zerolog"
)

// Services are the command handlers the router dispatches to.
type Services struct {
	Relationship *relationship.Service
	Membership   *membership.Service
	Channels     *channels.Service
	Presence     *presence.Service
	Messaging    *messaging.Service
}

// Limits bound what one websocket connection may send.
type Limits struct {
	MaxFrameBytes   int
	FramesPerSecond int
}

// DefaultLimits are used for zero fields of the configured limits.
var DefaultLimits = Limits{MaxFrameBytes: 64 << 10, FramesPerSecond: 30}

// RouteHandler provides the dependencies for any endpoint, and is the receiver of the
// endpoint handling functions. rooms holds the presence rooms ("server:<id>" and
// "channel:<id>") by connection id; locks serializes connect and disconnect of a user.
type RouteHandler struct {
	store    dal.Store
	registry *session.Registry
	relay    *signaling.Relay
	rooms    *signaling.Groups
	conns    *connections
	locks    *lockset.Set
	services Services
	limits   Limits
	log      zerolog.Logger
	commands map[string]commandFunc

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	active sync.WaitGroup
}

// NewRouteHandler creates the receiver for all endpoint handling functions.
func NewRouteHandler(store dal.Store, registry *session.Registry, services Services, limits Limits, log zerolog.Logger) *RouteHandler {
	if limits.MaxFrameBytes <= 0 {
		limits.MaxFrameBytes = DefaultLimits.MaxFrameBytes
	}
	if limits.FramesPerSecond <= 0 {
		limits.FramesPerSecond = DefaultLimits.FramesPerSecond
	}

	conns := newConnections()
	h := &RouteHandler{
		store:    store,
		registry: registry,
		relay:    signaling.NewRelay(registry, conns, log),
		rooms:    signaling.NewGroups(),
		conns:    conns,
		locks:    lockset.New(),
		services: services,
		limits:   limits,
		log:      log.With().Str("component", "routes").Logger(),
		done:     make(chan struct{}),
	}
	h.commands = h.commandTable()
	return h
}

// Close ends every open websocket connection, waits for their sessions to be torn down
// and then clears the session registry. Hijacked connections are not closed by the http
// server's Shutdown, so the server calls this after it.
func (h *RouteHandler) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	h.mu.Unlock()

	h.active.Wait()
	h.registry.Close()
}

// track counts a new connection towards Close. It reports false once closing started.
func (h *RouteHandler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.active.Add(1)
	return true
}

func serverRoom(serverID string) string   { return "server:" + serverID }
func channelRoom(channelID string) string { return "channel:" + channelID }

// emitToUser pushes event to the canonical session of userID, if any.
func (h *RouteHandler) emitToUser(userID, event string, payload any) {
	conn, ok := h.registry.LookupConnection(userID)
	if !ok {
		return
	}
	if err := h.conns.Send(conn, event, payload); err != nil {
		h.log.Debug().Err(err).Str("user", userID).Str("event", event).Msg("emit failed")
	}
}

// emitToRoom pushes event to every session in room.
func (h *RouteHandler) emitToRoom(room, event string, payload any) {
	for _, conn := range h.rooms.Members(room) {
		if err := h.conns.Send(conn, event, payload); err != nil {
			h.log.Debug().Err(err).Str("room", room).Str("event", event).Msg("emit failed")
		}
	}
}

// moveRooms takes the session of userID out of the previous channel room (and call
// group) and into the new one. A nil channel only leaves.
func (h *RouteHandler) moveRooms(userID string, prevChannelID, channelID *string) {
	conn, ok := h.registry.LookupConnection(userID)
	if !ok {
		return
	}
	if prevChannelID != nil && (channelID == nil || *prevChannelID != *channelID) {
		h.rooms.Leave(channelRoom(*prevChannelID), conn)
		h.relay.LeaveChannelGroup(conn, *prevChannelID)
	}
	if channelID != nil {
		h.rooms.Join(channelRoom(*channelID), conn)
	}
}

// leaveServerRooms takes conn out of every server and channel room and call group.
func (h *RouteHandler) leaveServerRooms(conn string) {
	h.rooms.LeaveAll(conn)
	h.relay.LeaveAll(conn)
}
