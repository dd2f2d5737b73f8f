package channels

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/crypto"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas/public"
	"github.com/mcg25035/RiceCall-sub002/internal/services/membership"
)

const (
	partConnect    = "ConnectChannelService"
	partDisconnect = "DisconnectChannelService"
)

// ConnectChannel moves userID into channelID. Users move themselves; a moderator who
// outranks them may move them too, in which case password and occupancy limits do not
// apply.
func (s *Service) ConnectChannel(ctx context.Context, operatorID string, req schemas.ConnectChannelRequest) (public.ChannelPresence, error) {
	allowed, err := membership.CanActOn(ctx, s.store, operatorID, req.UserID, req.ServerID)
	if err != nil {
		return public.ChannelPresence{}, apperr.Server(partConnect, err)
	}
	if !allowed {
		return public.ChannelPresence{}, apperr.Permission(partConnect, "cannot move this user")
	}

	channel, err := s.getChannel(ctx, partConnect, req.ServerID, req.ChannelID)
	if err != nil {
		return public.ChannelPresence{}, err
	}
	user, err := dal.GetUser(ctx, s.store, req.UserID)
	if err != nil {
		return public.ChannelPresence{}, apperr.Server(partConnect, err)
	}
	if user == nil {
		return public.ChannelPresence{}, apperr.NotFound(partConnect, apperr.TagUserNotFound, "user %s not found", req.UserID)
	}
	if user.CurrentServerID == nil || *user.CurrentServerID != req.ServerID {
		return public.ChannelPresence{}, apperr.Permission(partConnect, "user is not in server %s", req.ServerID)
	}

	member, err := dal.GetMember(ctx, s.store, req.UserID, req.ServerID)
	if err != nil {
		return public.ChannelPresence{}, apperr.Server(partConnect, err)
	}
	if member != nil && member.IsBlocked {
		return public.ChannelPresence{}, apperr.Forbidden(partConnect, apperr.TagMemberBlocked, "user is blocked in this server")
	}
	level, err := membership.Level(ctx, s.store, req.UserID, req.ServerID)
	if err != nil {
		return public.ChannelPresence{}, apperr.Server(partConnect, err)
	}

	presence := public.ChannelPresence{
		UserID:        req.UserID,
		ServerID:      req.ServerID,
		ChannelID:     &channel.ChannelID,
		PrevChannelID: user.CurrentChannelID,
	}
	if user.CurrentChannelID != nil && *user.CurrentChannelID == channel.ChannelID {
		return presence, nil
	}

	if channel.Visibility == schemas.ChannelPrivate && level < schemas.PermissionMember {
		return public.ChannelPresence{}, apperr.Permission(partConnect, "channel is for members only")
	}

	bypass := level >= schemas.PermissionModerator || operatorID != req.UserID
	if !bypass && channel.Password != "" {
		var password string
		if req.Password != nil {
			password = *req.Password
		}
		ok, err := crypto.CheckChannelPassword(channel.Password, password)
		if err != nil {
			return public.ChannelPresence{}, apperr.Server(partConnect, err)
		}
		if !ok {
			return public.ChannelPresence{}, apperr.Forbidden(partConnect, apperr.TagPasswordIncorrect, "wrong channel password")
		}
	}
	if !bypass && channel.UserLimit > 0 {
		inside, err := dal.UsersInChannel(ctx, s.store, channel.ChannelID)
		if err != nil {
			return public.ChannelPresence{}, apperr.Server(partConnect, err)
		}
		if len(inside) >= channel.UserLimit {
			return public.ChannelPresence{}, apperr.Forbidden(partConnect, apperr.TagChannelFull, "channel is full")
		}
	}

	if err := dal.SetUserPresence(ctx, s.store, req.UserID, &req.ServerID, &channel.ChannelID); err != nil {
		return public.ChannelPresence{}, apperr.Server(partConnect, err)
	}
	return presence, nil
}

// DisconnectChannel takes userID out of channelID, leaving them in the server. It does
// nothing when the user is somewhere else.
func (s *Service) DisconnectChannel(ctx context.Context, operatorID string, req schemas.DisconnectChannelRequest) (public.ChannelPresence, error) {
	allowed, err := membership.CanActOn(ctx, s.store, operatorID, req.UserID, req.ServerID)
	if err != nil {
		return public.ChannelPresence{}, apperr.Server(partDisconnect, err)
	}
	if !allowed {
		return public.ChannelPresence{}, apperr.Permission(partDisconnect, "cannot disconnect this user")
	}

	user, err := dal.GetUser(ctx, s.store, req.UserID)
	if err != nil {
		return public.ChannelPresence{}, apperr.Server(partDisconnect, err)
	}
	if user == nil {
		return public.ChannelPresence{}, apperr.NotFound(partDisconnect, apperr.TagUserNotFound, "user %s not found", req.UserID)
	}

	presence := public.ChannelPresence{UserID: req.UserID, ServerID: req.ServerID, ChannelID: user.CurrentChannelID}
	if user.CurrentChannelID == nil || *user.CurrentChannelID != req.ChannelID {
		return presence, nil
	}
	if err := dal.SetUserPresence(ctx, s.store, req.UserID, user.CurrentServerID, nil); err != nil {
		return public.ChannelPresence{}, apperr.Server(partDisconnect, err)
	}
	presence.ChannelID = nil
	presence.PrevChannelID = &req.ChannelID
	return presence, nil
}
