// package messaging persists channel and direct messages.
package messaging

import (
	"context"
	"time"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/services/membership"
	"github.com/oklog/ulid/v2"
)

// readonlyLevel is the level needed to speak in a readonly channel.
const readonlyLevel = 3

const (
	partSendMessage       = "SendMessageService"
	partSendDirectMessage = "SendDirectMessageService"
)

type Service struct {
	store dal.Store
	now   func() time.Time
}

func New(store dal.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the time source used for message timestamps and ids.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// newID returns a ULID so that message keys sort by creation time.
func (s *Service) newID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), ulid.DefaultEntropy()).String()
}

// SendMessage posts to the channel the user is currently in.
func (s *Service) SendMessage(ctx context.Context, operatorID string, req schemas.SendMessageRequest) (schemas.Message, error) {
	if operatorID != req.UserID {
		return schemas.Message{}, apperr.Permission(partSendMessage, "cannot send messages as another user")
	}

	channel, err := dal.GetChannel(ctx, s.store, req.ServerID, req.ChannelID)
	if err != nil {
		return schemas.Message{}, apperr.Server(partSendMessage, err)
	}
	if channel == nil {
		return schemas.Message{}, apperr.NotFound(partSendMessage, apperr.TagChannelNotFound, "channel %s not found", req.ChannelID)
	}
	user, err := dal.GetUser(ctx, s.store, req.UserID)
	if err != nil {
		return schemas.Message{}, apperr.Server(partSendMessage, err)
	}
	if user == nil || user.CurrentChannelID == nil || *user.CurrentChannelID != req.ChannelID {
		return schemas.Message{}, apperr.Permission(partSendMessage, "user is not in channel %s", req.ChannelID)
	}

	member, err := dal.GetMember(ctx, s.store, req.UserID, req.ServerID)
	if err != nil {
		return schemas.Message{}, apperr.Server(partSendMessage, err)
	}
	if member != nil && member.IsBlocked {
		return schemas.Message{}, apperr.Forbidden(partSendMessage, apperr.TagMemberBlocked, "user is blocked in this server")
	}
	if channel.Visibility == schemas.ChannelReadonly {
		level, err := membership.Level(ctx, s.store, req.UserID, req.ServerID)
		if err != nil {
			return schemas.Message{}, apperr.Server(partSendMessage, err)
		}
		if level < readonlyLevel {
			return schemas.Message{}, apperr.Permission(partSendMessage, "channel is read only")
		}
	}

	msg := schemas.Message{
		MessageID: s.newID(),
		ServerID:  req.ServerID,
		ChannelID: req.ChannelID,
		SenderID:  req.UserID,
		Content:   req.Message.Content,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := dal.SetMessage(ctx, s.store, msg); err != nil {
		return schemas.Message{}, apperr.Server(partSendMessage, err)
	}
	return msg, nil
}

// SendDirectMessage sends to a friend who has not blocked the sender.
func (s *Service) SendDirectMessage(ctx context.Context, operatorID string, req schemas.SendDirectMessageRequest) (schemas.DirectMessage, error) {
	if operatorID != req.UserID {
		return schemas.DirectMessage{}, apperr.Permission(partSendDirectMessage, "cannot send messages as another user")
	}

	own, err := dal.GetFriend(ctx, s.store, req.UserID, req.TargetID)
	if err != nil {
		return schemas.DirectMessage{}, apperr.Server(partSendDirectMessage, err)
	}
	if own == nil {
		return schemas.DirectMessage{}, apperr.NotFound(partSendDirectMessage, apperr.TagFriendNotFound, "%s is not a friend of %s", req.TargetID, req.UserID)
	}
	theirs, err := dal.GetFriend(ctx, s.store, req.TargetID, req.UserID)
	if err != nil {
		return schemas.DirectMessage{}, apperr.Server(partSendDirectMessage, err)
	}
	if theirs != nil && theirs.IsBlocked {
		return schemas.DirectMessage{}, apperr.Permission(partSendDirectMessage, "blocked by %s", req.TargetID)
	}

	msg := schemas.DirectMessage{
		MessageID: s.newID(),
		SenderID:  req.UserID,
		TargetID:  req.TargetID,
		Content:   req.DirectMessage.Content,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := dal.SetDirectMessage(ctx, s.store, msg); err != nil {
		return schemas.DirectMessage{}, apperr.Server(partSendDirectMessage, err)
	}
	return msg, nil
}
