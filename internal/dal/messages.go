package dal

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/lockset"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
)

func MessageKey(channelID, messageID string) Key { return Key{channelID, messageID} }

func SetMessage(ctx context.Context, s Store, m schemas.Message) error {
	return s.Set(ctx, KindMessage, MessageKey(m.ChannelID, m.MessageID), m)
}

// ListMessages returns a channel's messages oldest first (message ids sort by time).
func ListMessages(ctx context.Context, s Store, channelID string) ([]schemas.Message, error) {
	return list[schemas.Message](ctx, s, KindMessage, Key{channelID})
}

// DirectMessageKey files both directions of a conversation under the same pair.
func DirectMessageKey(userID, targetID, messageID string) Key {
	return Key{lockset.PairKey("dm", userID, targetID), messageID}
}

func SetDirectMessage(ctx context.Context, s Store, m schemas.DirectMessage) error {
	return s.Set(ctx, KindDirectMessage, DirectMessageKey(m.SenderID, m.TargetID, m.MessageID), m)
}

func ListDirectMessages(ctx context.Context, s Store, userID, targetID string) ([]schemas.DirectMessage, error) {
	return list[schemas.DirectMessage](ctx, s, KindDirectMessage, Key{lockset.PairKey("dm", userID, targetID)})
}
