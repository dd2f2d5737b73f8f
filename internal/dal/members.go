package dal

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
)

func MemberKey(userID, serverID string) Key { return Key{userID, serverID} }

func GetMember(ctx context.Context, s Store, userID, serverID string) (*schemas.Member, error) {
	return get[schemas.Member](ctx, s, KindMember, MemberKey(userID, serverID))
}

func SetMember(ctx context.Context, s Store, userID, serverID string, patch any) error {
	return s.Set(ctx, KindMember, MemberKey(userID, serverID), patch)
}

// ListUserMembers returns every membership held by userID.
func ListUserMembers(ctx context.Context, s Store, userID string) ([]schemas.Member, error) {
	return list[schemas.Member](ctx, s, KindMember, Key{userID})
}

func MemberApplicationKey(userID, serverID string) Key { return Key{userID, serverID} }

func GetMemberApplication(ctx context.Context, s Store, userID, serverID string) (*schemas.MemberApplication, error) {
	return get[schemas.MemberApplication](ctx, s, KindMemberApplication, MemberApplicationKey(userID, serverID))
}

func SetMemberApplication(ctx context.Context, s Store, userID, serverID string, patch any) error {
	return s.Set(ctx, KindMemberApplication, MemberApplicationKey(userID, serverID), patch)
}

func UpdateMemberApplication(ctx context.Context, s Store, userID, serverID string, patch any) (bool, error) {
	return s.Update(ctx, KindMemberApplication, MemberApplicationKey(userID, serverID), patch)
}

func DeleteMemberApplication(ctx context.Context, s Store, userID, serverID string) error {
	return s.Delete(ctx, KindMemberApplication, MemberApplicationKey(userID, serverID))
}
