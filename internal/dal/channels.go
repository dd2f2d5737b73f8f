package dal

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
)

func ChannelKey(serverID, channelID string) Key { return Key{serverID, channelID} }

func GetChannel(ctx context.Context, s Store, serverID, channelID string) (*schemas.Channel, error) {
	return get[schemas.Channel](ctx, s, KindChannel, ChannelKey(serverID, channelID))
}

func SetChannel(ctx context.Context, s Store, serverID, channelID string, patch any) error {
	return s.Set(ctx, KindChannel, ChannelKey(serverID, channelID), patch)
}

func UpdateChannel(ctx context.Context, s Store, serverID, channelID string, patch any) (bool, error) {
	return s.Update(ctx, KindChannel, ChannelKey(serverID, channelID), patch)
}

func DeleteChannel(ctx context.Context, s Store, serverID, channelID string) error {
	return s.Delete(ctx, KindChannel, ChannelKey(serverID, channelID))
}

// ListChannels returns the channels of a server in key order.
func ListChannels(ctx context.Context, s Store, serverID string) ([]schemas.Channel, error) {
	return list[schemas.Channel](ctx, s, KindChannel, Key{serverID})
}
