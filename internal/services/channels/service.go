// package channels manages a server's channels and moves users between them.
package channels

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/crypto"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas/public"
	"github.com/mcg25035/RiceCall-sub002/internal/services/membership"
	"github.com/rs/zerolog"
)

const (
	partCreate      = "CreateChannelService"
	partUpdate      = "UpdateChannelService"
	partUpdateBatch = "UpdateChannelsService"
	partDelete      = "DeleteChannelService"
)

type Service struct {
	store dal.Store
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

func New(store dal.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("component", "channels").Logger(),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// requireModerator loads the server and checks that operatorID may manage its channels.
func (s *Service) requireModerator(ctx context.Context, part, operatorID, serverID string) (*schemas.Server, error) {
	server, err := dal.GetServer(ctx, s.store, serverID)
	if err != nil {
		return nil, apperr.Server(part, err)
	}
	if server == nil {
		return nil, apperr.NotFound(part, apperr.TagServerNotFound, "server %s not found", serverID)
	}
	level, err := membership.Level(ctx, s.store, operatorID, serverID)
	if err != nil {
		return nil, apperr.Server(part, err)
	}
	if level < schemas.PermissionModerator {
		return nil, apperr.Permission(part, "moderator level required to manage channels")
	}
	return server, nil
}

func (s *Service) getChannel(ctx context.Context, part, serverID, channelID string) (*schemas.Channel, error) {
	channel, err := dal.GetChannel(ctx, s.store, serverID, channelID)
	if err != nil {
		return nil, apperr.Server(part, err)
	}
	if channel == nil {
		return nil, apperr.NotFound(part, apperr.TagChannelNotFound, "channel %s not found", channelID)
	}
	return channel, nil
}

// CreateChannel adds a channel to the server. New channels are never lobbies.
func (s *Service) CreateChannel(ctx context.Context, operatorID string, req schemas.CreateChannelRequest) (public.Channel, error) {
	if _, err := s.requireModerator(ctx, partCreate, operatorID, req.ServerID); err != nil {
		return public.Channel{}, err
	}

	channel := schemas.Channel{
		ChannelID:  s.newID(),
		ServerID:   req.ServerID,
		Visibility: schemas.ChannelPublic,
		CreatedAt:  s.now().UnixMilli(),
	}
	patch, err := presetPatch(req.Channel)
	if err != nil {
		return public.Channel{}, apperr.Server(partCreate, err)
	}
	applyPatch(&channel, patch)

	if err := dal.SetChannel(ctx, s.store, req.ServerID, channel.ChannelID, channel); err != nil {
		return public.Channel{}, apperr.Server(partCreate, err)
	}
	return public.NewChannel(channel), nil
}

// UpdateChannel edits one channel. An empty password removes the protection.
func (s *Service) UpdateChannel(ctx context.Context, operatorID string, req schemas.UpdateChannelRequest) (public.Channel, error) {
	if _, err := s.requireModerator(ctx, partUpdate, operatorID, req.ServerID); err != nil {
		return public.Channel{}, err
	}
	channel, err := s.getChannel(ctx, partUpdate, req.ServerID, req.ChannelID)
	if err != nil {
		return public.Channel{}, err
	}
	if err := s.update(ctx, partUpdate, channel, req.Channel); err != nil {
		return public.Channel{}, err
	}
	return public.NewChannel(*channel), nil
}

// UpdateChannels applies a batch of edits. Every channel must exist before anything is
// written.
func (s *Service) UpdateChannels(ctx context.Context, operatorID string, req schemas.UpdateChannelsRequest) ([]public.Channel, error) {
	if _, err := s.requireModerator(ctx, partUpdateBatch, operatorID, req.ServerID); err != nil {
		return nil, err
	}

	loaded := make([]*schemas.Channel, 0, len(req.Channels))
	for _, u := range req.Channels {
		channel, err := s.getChannel(ctx, partUpdateBatch, req.ServerID, u.ChannelID)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, channel)
	}

	out := make([]public.Channel, 0, len(loaded))
	for i, channel := range loaded {
		if err := s.update(ctx, partUpdateBatch, channel, req.Channels[i].ChannelPreset); err != nil {
			return nil, err
		}
		out = append(out, public.NewChannel(*channel))
	}
	return out, nil
}

func (s *Service) update(ctx context.Context, part string, channel *schemas.Channel, preset schemas.ChannelPreset) error {
	patch, err := presetPatch(preset)
	if err != nil {
		return apperr.Server(part, err)
	}
	if len(patch) == 0 {
		return nil
	}
	found, err := dal.UpdateChannel(ctx, s.store, channel.ServerID, channel.ChannelID, patch)
	if err != nil {
		return apperr.Server(part, err)
	}
	if !found {
		return apperr.NotFound(part, apperr.TagChannelNotFound, "channel %s not found", channel.ChannelID)
	}
	applyPatch(channel, patch)
	return nil
}

// DeleteChannel removes a channel and moves everyone inside it to the lobby. The lobby
// itself cannot be removed.
func (s *Service) DeleteChannel(ctx context.Context, operatorID string, req schemas.DeleteChannelRequest) (public.ChannelRemoved, error) {
	server, err := s.requireModerator(ctx, partDelete, operatorID, req.ServerID)
	if err != nil {
		return public.ChannelRemoved{}, err
	}
	channel, err := s.getChannel(ctx, partDelete, req.ServerID, req.ChannelID)
	if err != nil {
		return public.ChannelRemoved{}, err
	}
	if channel.IsLobby || channel.ChannelID == server.LobbyID {
		return public.ChannelRemoved{}, apperr.Forbidden(partDelete, apperr.TagLobbyChannel, "the lobby cannot be deleted")
	}

	users, err := dal.UsersInChannel(ctx, s.store, req.ChannelID)
	if err != nil {
		return public.ChannelRemoved{}, apperr.Server(partDelete, err)
	}
	moved := make([]string, 0, len(users))
	for _, u := range users {
		if err := dal.SetUserPresence(ctx, s.store, u.UserID, &req.ServerID, &server.LobbyID); err != nil {
			return public.ChannelRemoved{}, apperr.Server(partDelete, err)
		}
		moved = append(moved, u.UserID)
	}

	if err := dal.DeleteChannel(ctx, s.store, req.ServerID, req.ChannelID); err != nil {
		return public.ChannelRemoved{}, apperr.Server(partDelete, err)
	}
	s.log.Debug().Str("server", req.ServerID).Str("channel", req.ChannelID).Int("moved", len(moved)).Msg("channel deleted")
	return public.ChannelRemoved{ServerID: req.ServerID, ChannelID: req.ChannelID, LobbyID: server.LobbyID, MovedUserIDs: moved}, nil
}

// presetPatch turns the set fields of p into a store patch, hashing the password.
func presetPatch(p schemas.ChannelPreset) (map[string]any, error) {
	patch := map[string]any{}
	if p.Name != nil {
		patch["name"] = *p.Name
	}
	if p.Visibility != nil {
		patch["visibility"] = *p.Visibility
	}
	if p.Password != nil {
		hashed, err := crypto.HashChannelPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		patch["password"] = hashed
	}
	if p.UserLimit != nil {
		patch["userLimit"] = *p.UserLimit
	}
	if p.Order != nil {
		patch["order"] = *p.Order
	}
	return patch, nil
}

func applyPatch(c *schemas.Channel, patch map[string]any) {
	if v, ok := patch["name"].(string); ok {
		c.Name = v
	}
	if v, ok := patch["visibility"].(string); ok {
		c.Visibility = v
	}
	if v, ok := patch["password"].(string); ok {
		c.Password = v
	}
	if v, ok := patch["userLimit"].(int); ok {
		c.UserLimit = v
	}
	if v, ok := patch["order"].(int); ok {
		c.Order = v
	}
}
