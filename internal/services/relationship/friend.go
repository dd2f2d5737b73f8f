package relationship

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas/public"
)

const (
	partCreateFriend = "CreateFriendService"
	partUpdateFriend = "UpdateFriendService"
	partDeleteFriend = "DeleteFriendService"
)

// CreateFriend writes both edges of a new friendship between userID and targetID.
func (s *Service) CreateFriend(ctx context.Context, operatorID string, req schemas.CreateFriendRequest) (public.FriendAdded, error) {
	unlock := s.lockFriendPair(req.UserID, req.TargetID)
	defer unlock()

	exists, err := s.friendshipExists(ctx, req.UserID, req.TargetID)
	if err != nil {
		return public.FriendAdded{}, apperr.Server(partCreateFriend, err)
	}
	if exists {
		return public.FriendAdded{}, apperr.Conflict(partCreateFriend, apperr.TagFriendExists, "%s and %s are already friends", req.UserID, req.TargetID)
	}
	if operatorID != req.UserID {
		return public.FriendAdded{}, apperr.Permission(partCreateFriend, "cannot add friends for another user")
	}
	if req.UserID == req.TargetID {
		return public.FriendAdded{}, apperr.Permission(partCreateFriend, "cannot befriend yourself")
	}

	target, err := dal.GetUser(ctx, s.store, req.TargetID)
	if err != nil {
		return public.FriendAdded{}, apperr.Server(partCreateFriend, err)
	}
	if target == nil {
		return public.FriendAdded{}, apperr.NotFound(partCreateFriend, apperr.TagUserNotFound, "user %s not found", req.TargetID)
	}
	if err := s.checkGroup(ctx, partCreateFriend, req.UserID, req.Friend.FriendGroupID); err != nil {
		return public.FriendAdded{}, err
	}

	createdAt := s.now().UnixMilli()
	userEdge := applyFriendPreset(schemas.Friend{UserID: req.UserID, TargetID: req.TargetID, CreatedAt: createdAt}, req.Friend)
	targetEdge := schemas.Friend{UserID: req.TargetID, TargetID: req.UserID, CreatedAt: createdAt}

	if err := dal.SetFriend(ctx, s.store, req.UserID, req.TargetID, userEdge); err != nil {
		return public.FriendAdded{}, apperr.Server(partCreateFriend, err)
	}
	if err := dal.SetFriend(ctx, s.store, req.TargetID, req.UserID, targetEdge); err != nil {
		// keep the pair all-or-nothing
		_ = dal.DeleteFriend(ctx, s.store, req.UserID, req.TargetID)
		return public.FriendAdded{}, apperr.Server(partCreateFriend, err)
	}
	return public.FriendAdded{UserFriendAdd: userEdge, TargetFriendAdd: targetEdge}, nil
}

// UpdateFriend edits the userID -> targetID edge only. The mirror edge belongs to the
// other user's view of the friendship and is left alone.
func (s *Service) UpdateFriend(ctx context.Context, operatorID string, req schemas.UpdateFriendRequest) (schemas.Friend, error) {
	if operatorID != req.UserID {
		return schemas.Friend{}, apperr.Permission(partUpdateFriend, "cannot update friends of another user")
	}

	unlock := s.lockFriendPair(req.UserID, req.TargetID)
	defer unlock()

	friend, err := dal.GetFriend(ctx, s.store, req.UserID, req.TargetID)
	if err != nil {
		return schemas.Friend{}, apperr.Server(partUpdateFriend, err)
	}
	if friend == nil {
		return schemas.Friend{}, apperr.NotFound(partUpdateFriend, apperr.TagFriendNotFound, "%s is not a friend of %s", req.TargetID, req.UserID)
	}
	if err := s.checkGroup(ctx, partUpdateFriend, req.UserID, req.Friend.FriendGroupID); err != nil {
		return schemas.Friend{}, err
	}

	patch := map[string]any{}
	if req.Friend.IsBlocked != nil {
		patch["isBlocked"] = *req.Friend.IsBlocked
	}
	if req.Friend.FriendGroupID != nil {
		patch["friendGroupId"] = *req.Friend.FriendGroupID
	}
	if len(patch) > 0 {
		found, err := dal.UpdateFriend(ctx, s.store, req.UserID, req.TargetID, patch)
		if err != nil {
			return schemas.Friend{}, apperr.Server(partUpdateFriend, err)
		}
		if !found {
			return schemas.Friend{}, apperr.NotFound(partUpdateFriend, apperr.TagFriendNotFound, "%s is not a friend of %s", req.TargetID, req.UserID)
		}
	}
	return applyFriendPreset(*friend, req.Friend), nil
}

// DeleteFriend removes both edges of the friendship. Missing edges are not an error.
func (s *Service) DeleteFriend(ctx context.Context, operatorID string, req schemas.DeleteFriendRequest) (public.FriendRemoved, error) {
	if operatorID != req.UserID {
		return public.FriendRemoved{}, apperr.Permission(partDeleteFriend, "cannot delete friends of another user")
	}

	unlock := s.lockFriendPair(req.UserID, req.TargetID)
	defer unlock()

	if err := dal.DeleteFriend(ctx, s.store, req.UserID, req.TargetID); err != nil {
		return public.FriendRemoved{}, apperr.Server(partDeleteFriend, err)
	}
	if err := dal.DeleteFriend(ctx, s.store, req.TargetID, req.UserID); err != nil {
		return public.FriendRemoved{}, apperr.Server(partDeleteFriend, err)
	}
	return public.FriendRemoved{UserID: req.UserID, TargetID: req.TargetID}, nil
}

func (s *Service) friendshipExists(ctx context.Context, a, b string) (bool, error) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		f, err := dal.GetFriend(ctx, s.store, pair[0], pair[1])
		if err != nil {
			return false, err
		}
		if f != nil {
			return true, nil
		}
	}
	return false, nil
}

// checkGroup verifies that a referenced friend group belongs to userID. Nil and "" mean
// no group.
func (s *Service) checkGroup(ctx context.Context, part, userID string, groupID *string) error {
	if groupID == nil || *groupID == "" {
		return nil
	}
	g, err := dal.GetFriendGroup(ctx, s.store, userID, *groupID)
	if err != nil {
		return apperr.Server(part, err)
	}
	if g == nil {
		return apperr.NotFound(part, apperr.TagFriendGroupNotFound, "friend group %s not found", *groupID)
	}
	return nil
}

func applyFriendPreset(f schemas.Friend, p schemas.FriendPreset) schemas.Friend {
	if p.IsBlocked != nil {
		f.IsBlocked = *p.IsBlocked
	}
	if p.FriendGroupID != nil {
		f.FriendGroupID = *p.FriendGroupID
	}
	return f
}
