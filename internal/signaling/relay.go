// package signaling forwards WebRTC call-setup metadata between connected sessions and
// keeps track of which sessions take part in each channel's call group. Nothing here is
// persisted: media flows peer to peer, only offers, answers and candidates pass through.
package signaling

import (
	"sync"

	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/session"
	"github.com/rs/zerolog"
)

// Events pushed to clients.
const (
	EventOffer     = "rtcOffer"
	EventAnswer    = "rtcAnswer"
	EventCandidate = "rtcCandidate"
	EventJoin      = "rtcJoin"
	EventLeave     = "rtcLeave"
)

// Sender delivers an event to one connection.
type Sender interface {
	Send(connectionID, event string, payload any) error
}

// Relay is the signaling relay. A session is in at most one call group at a time.
type Relay struct {
	registry *session.Registry
	sender   Sender
	calls    *Groups
	log      zerolog.Logger

	mu sync.Mutex
	// connection -> user, for sessions currently in a call group
	callers map[string]string
}

func NewRelay(registry *session.Registry, sender Sender, log zerolog.Logger) *Relay {
	return &Relay{
		registry: registry,
		sender:   sender,
		calls:    NewGroups(),
		log:      log.With().Str("component", "signaling").Logger(),
		callers:  make(map[string]string),
	}
}

func eventFor(kind schemas.SignalKind) string {
	switch kind {
	case schemas.SignalOffer:
		return EventOffer
	case schemas.SignalAnswer:
		return EventAnswer
	default:
		return EventCandidate
	}
}

// Relay forwards signal from the session fromConnectionID to the canonical session of
// toUserID. Both sessions must share a call group. Otherwise, or when either side has no
// session, the signal is dropped: there is no queue and no error. It reports whether the
// signal was handed to the transport.
func (r *Relay) Relay(fromConnectionID, toUserID string, signal schemas.RTCSignal) bool {
	from, ok := r.registry.LookupUser(fromConnectionID)
	if !ok {
		r.log.Debug().Str("conn", fromConnectionID).Msg("dropping signal from unregistered session")
		return false
	}
	to, ok := r.registry.LookupConnection(toUserID)
	if !ok {
		r.log.Debug().Str("to", toUserID).Str("kind", string(signal.Kind)).Msg("dropping signal, target offline")
		return false
	}
	if !r.shareCallGroup(fromConnectionID, to) {
		r.log.Debug().Str("from", from).Str("to", toUserID).Str("kind", string(signal.Kind)).Msg("dropping signal, no shared call group")
		return false
	}

	signal.From = from
	if err := r.sender.Send(to, eventFor(signal.Kind), signal); err != nil {
		r.log.Debug().Err(err).Str("to", toUserID).Msg("dropping signal, send failed")
		return false
	}
	return true
}

func (r *Relay) shareCallGroup(a, b string) bool {
	for _, group := range r.calls.Of(a) {
		if r.calls.Contains(group, b) {
			return true
		}
	}
	return false
}

// JoinChannelGroup puts the session in channelID's call group, leaving any other call
// group first. The users already in the group are returned so the joiner can send them
// offers, and each of them receives an rtcJoin event.
func (r *Relay) JoinChannelGroup(connectionID, channelID string) []string {
	userID, ok := r.registry.LookupUser(connectionID)
	if !ok {
		return []string{}
	}

	for _, group := range r.calls.Of(connectionID) {
		if group != channelID {
			r.LeaveChannelGroup(connectionID, group)
		}
	}

	r.mu.Lock()
	r.callers[connectionID] = userID
	r.mu.Unlock()

	if r.calls.Join(channelID, connectionID) {
		r.Broadcast(connectionID, channelID, EventJoin, schemas.RTCPeerEvent{From: userID, ChannelID: channelID})
	}
	return r.peers(connectionID, channelID)
}

// LeaveChannelGroup removes the session from channelID's call group and tells the
// remaining members. Leaving a group the session is not in does nothing.
func (r *Relay) LeaveChannelGroup(connectionID, channelID string) bool {
	r.mu.Lock()
	userID := r.callers[connectionID]
	r.mu.Unlock()

	if !r.calls.Leave(channelID, connectionID) {
		return false
	}
	if len(r.calls.Of(connectionID)) == 0 {
		r.mu.Lock()
		delete(r.callers, connectionID)
		r.mu.Unlock()
	}
	r.Broadcast(connectionID, channelID, EventLeave, schemas.RTCPeerEvent{From: userID, ChannelID: channelID})
	return true
}

// LeaveAll removes the session from every call group. Called when its connection drops.
func (r *Relay) LeaveAll(connectionID string) {
	for _, group := range r.calls.Of(connectionID) {
		r.LeaveChannelGroup(connectionID, group)
	}
}

// Broadcast sends event to every session in channelID's call group except the sender.
func (r *Relay) Broadcast(fromConnectionID, channelID, event string, payload any) {
	for _, conn := range r.calls.Members(channelID) {
		if conn == fromConnectionID {
			continue
		}
		if err := r.sender.Send(conn, event, payload); err != nil {
			r.log.Debug().Err(err).Str("conn", conn).Str("event", event).Msg("broadcast send failed")
		}
	}
}

// members returns the users in channelID's call group.
func (r *Relay) members(channelID string) []string {
	return r.peers("", channelID)
}

func (r *Relay) peers(exclude, channelID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, conn := range r.calls.Members(channelID) {
		if conn == exclude {
			continue
		}
		if u, ok := r.callers[conn]; ok {
			out = append(out, u)
		}
	}
	return out
}
