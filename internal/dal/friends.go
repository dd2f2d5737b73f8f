package dal

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
)

func FriendKey(userID, targetID string) Key { return Key{userID, targetID} }

func GetFriend(ctx context.Context, s Store, userID, targetID string) (*schemas.Friend, error) {
	return get[schemas.Friend](ctx, s, KindFriend, FriendKey(userID, targetID))
}

func SetFriend(ctx context.Context, s Store, userID, targetID string, patch any) error {
	return s.Set(ctx, KindFriend, FriendKey(userID, targetID), patch)
}

// UpdateFriend patches an existing edge and reports whether it existed.
func UpdateFriend(ctx context.Context, s Store, userID, targetID string, patch any) (bool, error) {
	return s.Update(ctx, KindFriend, FriendKey(userID, targetID), patch)
}

func DeleteFriend(ctx context.Context, s Store, userID, targetID string) error {
	return s.Delete(ctx, KindFriend, FriendKey(userID, targetID))
}

// ListFriends returns the outgoing edges of userID.
func ListFriends(ctx context.Context, s Store, userID string) ([]schemas.Friend, error) {
	return list[schemas.Friend](ctx, s, KindFriend, Key{userID})
}

func FriendGroupKey(userID, friendGroupID string) Key { return Key{userID, friendGroupID} }

func GetFriendGroup(ctx context.Context, s Store, userID, friendGroupID string) (*schemas.FriendGroup, error) {
	return get[schemas.FriendGroup](ctx, s, KindFriendGroup, FriendGroupKey(userID, friendGroupID))
}

func SetFriendGroup(ctx context.Context, s Store, userID, friendGroupID string, patch any) error {
	return s.Set(ctx, KindFriendGroup, FriendGroupKey(userID, friendGroupID), patch)
}

func UpdateFriendGroup(ctx context.Context, s Store, userID, friendGroupID string, patch any) (bool, error) {
	return s.Update(ctx, KindFriendGroup, FriendGroupKey(userID, friendGroupID), patch)
}

func DeleteFriendGroup(ctx context.Context, s Store, userID, friendGroupID string) error {
	return s.Delete(ctx, KindFriendGroup, FriendGroupKey(userID, friendGroupID))
}

func ListFriendGroups(ctx context.Context, s Store, userID string) ([]schemas.FriendGroup, error) {
	return list[schemas.FriendGroup](ctx, s, KindFriendGroup, Key{userID})
}

func FriendApplicationKey(senderID, receiverID string) Key { return Key{senderID, receiverID} }

func GetFriendApplication(ctx context.Context, s Store, senderID, receiverID string) (*schemas.FriendApplication, error) {
	return get[schemas.FriendApplication](ctx, s, KindFriendApplication, FriendApplicationKey(senderID, receiverID))
}

func SetFriendApplication(ctx context.Context, s Store, senderID, receiverID string, patch any) error {
	return s.Set(ctx, KindFriendApplication, FriendApplicationKey(senderID, receiverID), patch)
}

func UpdateFriendApplication(ctx context.Context, s Store, senderID, receiverID string, patch any) (bool, error) {
	return s.Update(ctx, KindFriendApplication, FriendApplicationKey(senderID, receiverID), patch)
}

func DeleteFriendApplication(ctx context.Context, s Store, senderID, receiverID string) error {
	return s.Delete(ctx, KindFriendApplication, FriendApplicationKey(senderID, receiverID))
}

// ListSentFriendApplications returns applications sent by senderID.
func ListSentFriendApplications(ctx context.Context, s Store, senderID string) ([]schemas.FriendApplication, error) {
	return list[schemas.FriendApplication](ctx, s, KindFriendApplication, Key{senderID})
}

// ListReceivedFriendApplications scans every application for those addressed to receiverID.
func ListReceivedFriendApplications(ctx context.Context, s Store, receiverID string) ([]schemas.FriendApplication, error) {
	all, err := list[schemas.FriendApplication](ctx, s, KindFriendApplication, nil)
	if err != nil {
		return nil, err
	}
	out := []schemas.FriendApplication{}
	for _, a := range all {
		if a.ReceiverID == receiverID {
			out = append(out, a)
		}
	}
	return out, nil
}
