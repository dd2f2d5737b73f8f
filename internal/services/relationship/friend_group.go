package relationship

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas/public"
)

const (
	partCreateFriendGroup = "CreateFriendGroupService"
	partUpdateFriendGroup = "UpdateFriendGroupService"
	partDeleteFriendGroup = "DeleteFriendGroupService"
)

func (s *Service) CreateFriendGroup(ctx context.Context, operatorID string, req schemas.CreateFriendGroupRequest) (schemas.FriendGroup, error) {
	if operatorID != req.UserID {
		return schemas.FriendGroup{}, apperr.Permission(partCreateFriendGroup, "cannot create friend groups for another user")
	}

	group := applyGroupPreset(schemas.FriendGroup{
		FriendGroupID: s.newID(),
		UserID:        req.UserID,
		CreatedAt:     s.now().UnixMilli(),
	}, req.Group)
	if err := dal.SetFriendGroup(ctx, s.store, req.UserID, group.FriendGroupID, group); err != nil {
		return schemas.FriendGroup{}, apperr.Server(partCreateFriendGroup, err)
	}
	return group, nil
}

func (s *Service) UpdateFriendGroup(ctx context.Context, operatorID string, req schemas.UpdateFriendGroupRequest) (schemas.FriendGroup, error) {
	if operatorID != req.UserID {
		return schemas.FriendGroup{}, apperr.Permission(partUpdateFriendGroup, "cannot update friend groups of another user")
	}

	group, err := dal.GetFriendGroup(ctx, s.store, req.UserID, req.FriendGroupID)
	if err != nil {
		return schemas.FriendGroup{}, apperr.Server(partUpdateFriendGroup, err)
	}
	if group == nil {
		return schemas.FriendGroup{}, apperr.NotFound(partUpdateFriendGroup, apperr.TagFriendGroupNotFound, "friend group %s not found", req.FriendGroupID)
	}

	patch := map[string]any{}
	if req.Group.Name != nil {
		patch["name"] = *req.Group.Name
	}
	if req.Group.Order != nil {
		patch["order"] = *req.Group.Order
	}
	if len(patch) > 0 {
		found, err := dal.UpdateFriendGroup(ctx, s.store, req.UserID, req.FriendGroupID, patch)
		if err != nil {
			return schemas.FriendGroup{}, apperr.Server(partUpdateFriendGroup, err)
		}
		if !found {
			return schemas.FriendGroup{}, apperr.NotFound(partUpdateFriendGroup, apperr.TagFriendGroupNotFound, "friend group %s not found", req.FriendGroupID)
		}
	}
	return applyGroupPreset(*group, req.Group), nil
}

// DeleteFriendGroup removes the group and detaches the owner's friends that were filed
// under it.
func (s *Service) DeleteFriendGroup(ctx context.Context, operatorID string, req schemas.DeleteFriendGroupRequest) (public.FriendGroupRemoved, error) {
	if operatorID != req.UserID {
		return public.FriendGroupRemoved{}, apperr.Permission(partDeleteFriendGroup, "cannot delete friend groups of another user")
	}

	group, err := dal.GetFriendGroup(ctx, s.store, req.UserID, req.FriendGroupID)
	if err != nil {
		return public.FriendGroupRemoved{}, apperr.Server(partDeleteFriendGroup, err)
	}
	if group == nil {
		return public.FriendGroupRemoved{}, apperr.NotFound(partDeleteFriendGroup, apperr.TagFriendGroupNotFound, "friend group %s not found", req.FriendGroupID)
	}

	friends, err := dal.ListFriends(ctx, s.store, req.UserID)
	if err != nil {
		return public.FriendGroupRemoved{}, apperr.Server(partDeleteFriendGroup, err)
	}
	for _, f := range friends {
		if f.FriendGroupID != req.FriendGroupID {
			continue
		}
		if err := s.detachFromGroup(ctx, f.UserID, f.TargetID, req.FriendGroupID); err != nil {
			return public.FriendGroupRemoved{}, apperr.Server(partDeleteFriendGroup, err)
		}
	}

	if err := dal.DeleteFriendGroup(ctx, s.store, req.UserID, req.FriendGroupID); err != nil {
		return public.FriendGroupRemoved{}, apperr.Server(partDeleteFriendGroup, err)
	}
	return public.FriendGroupRemoved{UserID: req.UserID, FriendGroupID: req.FriendGroupID}, nil
}

// detachFromGroup clears the group of the userID -> targetID edge if it is still filed
// under friendGroupID. An edge deleted in the meantime stays deleted.
func (s *Service) detachFromGroup(ctx context.Context, userID, targetID, friendGroupID string) error {
	unlock := s.lockFriendPair(userID, targetID)
	defer unlock()

	f, err := dal.GetFriend(ctx, s.store, userID, targetID)
	if err != nil || f == nil || f.FriendGroupID != friendGroupID {
		return err
	}
	_, err = dal.UpdateFriend(ctx, s.store, userID, targetID, map[string]any{"friendGroupId": ""})
	return err
}

func applyGroupPreset(g schemas.FriendGroup, p schemas.FriendGroupPreset) schemas.FriendGroup {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Order != nil {
		g.Order = *p.Order
	}
	return g
}
