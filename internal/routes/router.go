package routes

import (
	"context"
	"encoding/json"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas/public"
	"github.com/mcg25035/RiceCall-sub002/internal/validation"
)

// Events pushed to clients as a consequence of commands.
const (
	EventFriendAdd               = "friendAdd"
	EventFriendDelete            = "friendDelete"
	EventFriendApplicationAdd    = "friendApplicationAdd"
	EventFriendApplicationUpdate = "friendApplicationUpdate"
	EventFriendApplicationDelete = "friendApplicationDelete"
	EventMemberApplicationUpdate = "memberApplicationUpdate"
	EventMemberApplicationDelete = "memberApplicationDelete"
	EventChannelAdd              = "channelAdd"
	EventChannelUpdate           = "channelUpdate"
	EventChannelDelete           = "channelDelete"
	EventChannelConnect          = "channelConnect"
	EventChannelDisconnect       = "channelDisconnect"
	EventChannelMessage          = "channelMessage"
	EventDirectMessage           = "directMessage"
	EventServerConnect           = "serverConnect"
	EventUserUpdate              = "userUpdate"
)

const (
	partRouter  = "Router"
	partRTCJoin = "RTCJoinService"
)

type commandFunc func(ctx context.Context, c *client, raw json.RawMessage) (any, error)

// command validates raw against schema, decodes it into T and runs fn.
func command[T, R any](schema validation.Schema, fn func(ctx context.Context, c *client, req T) (R, error)) commandFunc {
	return func(ctx context.Context, c *client, raw json.RawMessage) (any, error) {
		req, err := validation.Decode[T](schema, raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, c, req)
	}
}

// Dispatch runs one command for c. Every failure comes back as an *apperr.Error.
func (h *RouteHandler) Dispatch(ctx context.Context, c *client, name string, raw json.RawMessage) (any, error) {
	if !h.registry.IsCanonical(c.userID, c.connectionID) {
		return nil, apperr.Unauthenticated(partRouter, "session replaced by another login")
	}
	fn, ok := h.commands[name]
	if !ok {
		return nil, &apperr.Error{
			Kind:       apperr.KindValidation,
			Message:    "unknown command " + name,
			Part:       partRouter,
			Tag:        apperr.TagUnknownCommand,
			StatusCode: 400,
		}
	}
	result, err := fn(ctx, c, raw)
	if err != nil {
		e := apperr.Wrap(partRouter, err)
		if apperr.HasTag(e, apperr.TagException) {
			h.log.Error().Err(err).Str("command", name).Str("user", c.userID).Msg("command failed")
		}
		return nil, e
	}
	return result, nil
}

func (h *RouteHandler) commandTable() map[string]commandFunc {
	return map[string]commandFunc{
		"createFriend":            command(validation.CreateFriendSchema, h.createFriend),
		"updateFriend":            command(validation.UpdateFriendSchema, h.updateFriend),
		"deleteFriend":            command(validation.DeleteFriendSchema, h.deleteFriend),
		"createFriendGroup":       command(validation.CreateFriendGroupSchema, h.createFriendGroup),
		"updateFriendGroup":       command(validation.UpdateFriendGroupSchema, h.updateFriendGroup),
		"deleteFriendGroup":       command(validation.DeleteFriendGroupSchema, h.deleteFriendGroup),
		"createFriendApplication": command(validation.CreateFriendApplicationSchema, h.createFriendApplication),
		"updateFriendApplication": command(validation.UpdateFriendApplicationSchema, h.updateFriendApplication),
		"deleteFriendApplication": command(validation.DeleteFriendApplicationSchema, h.deleteFriendApplication),

		"createMemberApplication": command(validation.CreateMemberApplicationSchema, h.createMemberApplication),
		"updateMemberApplication": command(validation.UpdateMemberApplicationSchema, h.updateMemberApplication),
		"deleteMemberApplication": command(validation.DeleteMemberApplicationSchema, h.deleteMemberApplication),

		"createChannel":     command(validation.CreateChannelSchema, h.createChannel),
		"updateChannel":     command(validation.UpdateChannelSchema, h.updateChannel),
		"updateChannels":    command(validation.UpdateChannelsSchema, h.updateChannels),
		"deleteChannel":     command(validation.DeleteChannelSchema, h.deleteChannel),
		"connectChannel":    command(validation.ConnectChannelSchema, h.connectChannel),
		"disconnectChannel": command(validation.DisconnectChannelSchema, h.disconnectChannel),

		"sendMessage":       command(validation.SendMessageSchema, h.sendMessage),
		"sendDirectMessage": command(validation.SendDirectMessageSchema, h.sendDirectMessage),

		"connectServer":    command(validation.ConnectServerSchema, h.connectServer),
		"disconnectServer": command(validation.DisconnectServerSchema, h.disconnectServer),
		"searchServer":     command(validation.SearchServerSchema, h.searchServer),
		"searchUser":       command(validation.SearchUserSchema, h.searchUser),
		"updateUser":       command(validation.UpdateUserSchema, h.updateUser),

		"rtcOffer":     command(validation.RTCOfferSchema, h.rtcOffer),
		"rtcAnswer":    command(validation.RTCAnswerSchema, h.rtcAnswer),
		"rtcCandidate": command(validation.RTCCandidateSchema, h.rtcCandidate),
		"rtcJoin":      command(validation.RTCJoinSchema, h.rtcJoin),
		"rtcLeave":     command(validation.RTCLeaveSchema, h.rtcLeave),
	}
}

// Relationships

func (h *RouteHandler) createFriend(ctx context.Context, c *client, req schemas.CreateFriendRequest) (public.FriendAdded, error) {
	added, err := h.services.Relationship.CreateFriend(ctx, c.userID, req)
	if err != nil {
		return added, err
	}
	h.emitToUser(req.TargetID, EventFriendAdd, added.TargetFriendAdd)
	return added, nil
}

func (h *RouteHandler) updateFriend(ctx context.Context, c *client, req schemas.UpdateFriendRequest) (schemas.Friend, error) {
	return h.services.Relationship.UpdateFriend(ctx, c.userID, req)
}

func (h *RouteHandler) deleteFriend(ctx context.Context, c *client, req schemas.DeleteFriendRequest) (public.FriendRemoved, error) {
	removed, err := h.services.Relationship.DeleteFriend(ctx, c.userID, req)
	if err != nil {
		return removed, err
	}
	h.emitToUser(req.TargetID, EventFriendDelete, public.FriendRemoved{UserID: req.TargetID, TargetID: req.UserID})
	return removed, nil
}

func (h *RouteHandler) createFriendGroup(ctx context.Context, c *client, req schemas.CreateFriendGroupRequest) (schemas.FriendGroup, error) {
	return h.services.Relationship.CreateFriendGroup(ctx, c.userID, req)
}

func (h *RouteHandler) updateFriendGroup(ctx context.Context, c *client, req schemas.UpdateFriendGroupRequest) (schemas.FriendGroup, error) {
	return h.services.Relationship.UpdateFriendGroup(ctx, c.userID, req)
}

func (h *RouteHandler) deleteFriendGroup(ctx context.Context, c *client, req schemas.DeleteFriendGroupRequest) (public.FriendGroupRemoved, error) {
	return h.services.Relationship.DeleteFriendGroup(ctx, c.userID, req)
}

func (h *RouteHandler) createFriendApplication(ctx context.Context, c *client, req schemas.CreateFriendApplicationRequest) (schemas.FriendApplication, error) {
	app, err := h.services.Relationship.CreateFriendApplication(ctx, c.userID, req)
	if err != nil {
		return app, err
	}
	h.emitToUser(req.ReceiverID, EventFriendApplicationAdd, app)
	return app, nil
}

func (h *RouteHandler) updateFriendApplication(ctx context.Context, c *client, req schemas.UpdateFriendApplicationRequest) (schemas.FriendApplication, error) {
	app, err := h.services.Relationship.UpdateFriendApplication(ctx, c.userID, req)
	if err != nil {
		return app, err
	}
	h.emitToUser(req.ReceiverID, EventFriendApplicationUpdate, app)
	return app, nil
}

func (h *RouteHandler) deleteFriendApplication(ctx context.Context, c *client, req schemas.DeleteFriendApplicationRequest) (public.FriendApplicationRemoved, error) {
	removed, err := h.services.Relationship.DeleteFriendApplication(ctx, c.userID, req)
	if err != nil {
		return removed, err
	}
	h.emitToUser(req.ReceiverID, EventFriendApplicationDelete, removed)
	return removed, nil
}

// Membership

func (h *RouteHandler) createMemberApplication(ctx context.Context, c *client, req schemas.CreateMemberApplicationRequest) (schemas.MemberApplication, error) {
	return h.services.Membership.CreateMemberApplication(ctx, c.userID, req)
}

func (h *RouteHandler) updateMemberApplication(ctx context.Context, c *client, req schemas.UpdateMemberApplicationRequest) (schemas.MemberApplication, error) {
	app, err := h.services.Membership.UpdateMemberApplication(ctx, c.userID, req)
	if err != nil {
		return app, err
	}
	if req.UserID != c.userID {
		h.emitToUser(req.UserID, EventMemberApplicationUpdate, app)
	}
	return app, nil
}

func (h *RouteHandler) deleteMemberApplication(ctx context.Context, c *client, req schemas.DeleteMemberApplicationRequest) (public.MemberApplicationRemoved, error) {
	removed, err := h.services.Membership.DeleteMemberApplication(ctx, c.userID, req)
	if err != nil {
		return removed, err
	}
	if req.UserID != c.userID {
		h.emitToUser(req.UserID, EventMemberApplicationDelete, removed)
	}
	return removed, nil
}

// Channels

func (h *RouteHandler) createChannel(ctx context.Context, c *client, req schemas.CreateChannelRequest) (public.Channel, error) {
	channel, err := h.services.Channels.CreateChannel(ctx, c.userID, req)
	if err != nil {
		return channel, err
	}
	h.emitToRoom(serverRoom(req.ServerID), EventChannelAdd, channel)
	return channel, nil
}

func (h *RouteHandler) updateChannel(ctx context.Context, c *client, req schemas.UpdateChannelRequest) (public.Channel, error) {
	channel, err := h.services.Channels.UpdateChannel(ctx, c.userID, req)
	if err != nil {
		return channel, err
	}
	h.emitToRoom(serverRoom(req.ServerID), EventChannelUpdate, channel)
	return channel, nil
}

func (h *RouteHandler) updateChannels(ctx context.Context, c *client, req schemas.UpdateChannelsRequest) ([]public.Channel, error) {
	updated, err := h.services.Channels.UpdateChannels(ctx, c.userID, req)
	if err != nil {
		return nil, err
	}
	for _, channel := range updated {
		h.emitToRoom(serverRoom(req.ServerID), EventChannelUpdate, channel)
	}
	return updated, nil
}

func (h *RouteHandler) deleteChannel(ctx context.Context, c *client, req schemas.DeleteChannelRequest) (public.ChannelRemoved, error) {
	removed, err := h.services.Channels.DeleteChannel(ctx, c.userID, req)
	if err != nil {
		return removed, err
	}
	for _, userID := range removed.MovedUserIDs {
		h.moveRooms(userID, &removed.ChannelID, &removed.LobbyID)
	}
	h.emitToRoom(serverRoom(req.ServerID), EventChannelDelete, removed)
	return removed, nil
}

func (h *RouteHandler) connectChannel(ctx context.Context, c *client, req schemas.ConnectChannelRequest) (public.ChannelPresence, error) {
	presence, err := h.services.Channels.ConnectChannel(ctx, c.userID, req)
	if err != nil {
		return presence, err
	}
	h.moveRooms(req.UserID, presence.PrevChannelID, presence.ChannelID)
	h.emitToRoom(serverRoom(req.ServerID), EventChannelConnect, presence)
	return presence, nil
}

func (h *RouteHandler) disconnectChannel(ctx context.Context, c *client, req schemas.DisconnectChannelRequest) (public.ChannelPresence, error) {
	presence, err := h.services.Channels.DisconnectChannel(ctx, c.userID, req)
	if err != nil {
		return presence, err
	}
	h.moveRooms(req.UserID, presence.PrevChannelID, presence.ChannelID)
	h.emitToRoom(serverRoom(req.ServerID), EventChannelDisconnect, presence)
	return presence, nil
}

// Messaging

func (h *RouteHandler) sendMessage(ctx context.Context, c *client, req schemas.SendMessageRequest) (schemas.Message, error) {
	msg, err := h.services.Messaging.SendMessage(ctx, c.userID, req)
	if err != nil {
		return msg, err
	}
	h.emitToRoom(channelRoom(req.ChannelID), EventChannelMessage, msg)
	return msg, nil
}

func (h *RouteHandler) sendDirectMessage(ctx context.Context, c *client, req schemas.SendDirectMessageRequest) (schemas.DirectMessage, error) {
	msg, err := h.services.Messaging.SendDirectMessage(ctx, c.userID, req)
	if err != nil {
		return msg, err
	}
	h.emitToUser(req.TargetID, EventDirectMessage, msg)
	return msg, nil
}

// Servers and users

func (h *RouteHandler) connectServer(ctx context.Context, c *client, req schemas.ConnectServerRequest) (public.ServerJoined, error) {
	joined, err := h.services.Presence.ConnectServer(ctx, c.userID, req)
	if err != nil {
		return joined, err
	}
	if joined.PrevServerID != nil && *joined.PrevServerID != req.ServerID {
		h.emitToRoom(serverRoom(*joined.PrevServerID), EventServerDisconnect, public.ServerLeft{
			UserID:        req.UserID,
			ServerID:      *joined.PrevServerID,
			PrevChannelID: joined.PrevChannelID,
		})
	}
	h.leaveServerRooms(c.connectionID)
	h.rooms.Join(serverRoom(req.ServerID), c.connectionID)
	h.rooms.Join(channelRoom(joined.LobbyID), c.connectionID)
	h.emitToRoom(serverRoom(req.ServerID), EventServerConnect, public.ChannelPresence{
		UserID:    req.UserID,
		ServerID:  req.ServerID,
		ChannelID: &joined.LobbyID,
	})
	return joined, nil
}

func (h *RouteHandler) disconnectServer(ctx context.Context, c *client, req schemas.DisconnectServerRequest) (public.ServerLeft, error) {
	left, err := h.services.Presence.DisconnectServer(ctx, c.userID, req)
	if err != nil {
		return left, err
	}
	h.emitToRoom(serverRoom(req.ServerID), EventServerDisconnect, left)
	if conn, ok := h.registry.LookupConnection(req.UserID); ok {
		h.leaveServerRooms(conn)
	}
	return left, nil
}

func (h *RouteHandler) searchServer(ctx context.Context, _ *client, req schemas.SearchServerRequest) ([]schemas.Server, error) {
	return h.services.Presence.SearchServer(ctx, req)
}

func (h *RouteHandler) searchUser(ctx context.Context, _ *client, req schemas.SearchUserRequest) ([]schemas.User, error) {
	return h.services.Presence.SearchUser(ctx, req)
}

func (h *RouteHandler) updateUser(ctx context.Context, c *client, req schemas.UpdateUserRequest) (schemas.User, error) {
	user, err := h.services.Presence.UpdateUser(ctx, c.userID, req)
	if err != nil {
		return user, err
	}
	if user.CurrentServerID != nil {
		h.emitToRoom(serverRoom(*user.CurrentServerID), EventUserUpdate, user)
	}
	return user, nil
}

// Signaling

type rtcJoined struct {
	ChannelID string   `json:"channelId"`
	Peers     []string `json:"peers"`
}

func (h *RouteHandler) rtcOffer(_ context.Context, c *client, req schemas.RTCOfferRequest) (any, error) {
	h.relay.Relay(c.connectionID, req.To, schemas.RTCSignal{Kind: schemas.SignalOffer, Offer: &req.Offer})
	return nil, nil
}

func (h *RouteHandler) rtcAnswer(_ context.Context, c *client, req schemas.RTCAnswerRequest) (any, error) {
	h.relay.Relay(c.connectionID, req.To, schemas.RTCSignal{Kind: schemas.SignalAnswer, Answer: &req.Answer})
	return nil, nil
}

func (h *RouteHandler) rtcCandidate(_ context.Context, c *client, req schemas.RTCCandidateRequest) (any, error) {
	h.relay.Relay(c.connectionID, req.To, schemas.RTCSignal{Kind: schemas.SignalCandidate, Candidate: &req.Candidate})
	return nil, nil
}

// rtcJoin admits the session to a call group only for the channel its user is in.
func (h *RouteHandler) rtcJoin(ctx context.Context, c *client, req schemas.RTCJoinRequest) (rtcJoined, error) {
	user, err := dal.GetUser(ctx, h.store, c.userID)
	if err != nil {
		return rtcJoined{}, apperr.Server(partRTCJoin, err)
	}
	if user == nil || user.CurrentChannelID == nil || *user.CurrentChannelID != req.ChannelID {
		return rtcJoined{}, apperr.Permission(partRTCJoin, "not in channel %s", req.ChannelID)
	}
	peers := h.relay.JoinChannelGroup(c.connectionID, req.ChannelID)
	return rtcJoined{ChannelID: req.ChannelID, Peers: peers}, nil
}

func (h *RouteHandler) rtcLeave(_ context.Context, c *client, req schemas.RTCLeaveRequest) (any, error) {
	h.relay.LeaveChannelGroup(c.connectionID, req.ChannelID)
	return nil, nil
}
