package relationship

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas/public"
)

const (
	partCreateFriendApplication = "CreateFriendApplicationService"
	partUpdateFriendApplication = "UpdateFriendApplicationService"
	partDeleteFriendApplication = "DeleteFriendApplicationService"
)

// CreateFriendApplication files a friend request from senderID to receiverID. Accepting
// a request is not an operation of this service.
func (s *Service) CreateFriendApplication(ctx context.Context, operatorID string, req schemas.CreateFriendApplicationRequest) (schemas.FriendApplication, error) {
	unlock := s.lockApplicationPair(req.SenderID, req.ReceiverID)
	defer unlock()

	existing, err := dal.GetFriendApplication(ctx, s.store, req.SenderID, req.ReceiverID)
	if err != nil {
		return schemas.FriendApplication{}, apperr.Server(partCreateFriendApplication, err)
	}
	if existing != nil {
		return schemas.FriendApplication{}, apperr.Conflict(partCreateFriendApplication, apperr.TagFriendApplicationExists, "application from %s to %s already exists", req.SenderID, req.ReceiverID)
	}
	if operatorID != req.SenderID {
		return schemas.FriendApplication{}, apperr.Permission(partCreateFriendApplication, "cannot send applications for another user")
	}
	if req.SenderID == req.ReceiverID {
		return schemas.FriendApplication{}, apperr.Permission(partCreateFriendApplication, "cannot send an application to yourself")
	}

	receiver, err := dal.GetUser(ctx, s.store, req.ReceiverID)
	if err != nil {
		return schemas.FriendApplication{}, apperr.Server(partCreateFriendApplication, err)
	}
	if receiver == nil {
		return schemas.FriendApplication{}, apperr.NotFound(partCreateFriendApplication, apperr.TagUserNotFound, "user %s not found", req.ReceiverID)
	}

	app := schemas.FriendApplication{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		CreatedAt:  s.now().UnixMilli(),
	}
	if req.FriendApplication.Description != nil {
		app.Description = *req.FriendApplication.Description
	}
	if err := dal.SetFriendApplication(ctx, s.store, req.SenderID, req.ReceiverID, app); err != nil {
		return schemas.FriendApplication{}, apperr.Server(partCreateFriendApplication, err)
	}
	return app, nil
}

func (s *Service) UpdateFriendApplication(ctx context.Context, operatorID string, req schemas.UpdateFriendApplicationRequest) (schemas.FriendApplication, error) {
	if operatorID != req.SenderID {
		return schemas.FriendApplication{}, apperr.Permission(partUpdateFriendApplication, "only the sender may update an application")
	}

	unlock := s.lockApplicationPair(req.SenderID, req.ReceiverID)
	defer unlock()

	app, err := dal.GetFriendApplication(ctx, s.store, req.SenderID, req.ReceiverID)
	if err != nil {
		return schemas.FriendApplication{}, apperr.Server(partUpdateFriendApplication, err)
	}
	if app == nil {
		return schemas.FriendApplication{}, apperr.NotFound(partUpdateFriendApplication, apperr.TagFriendApplicationNotFound, "no application from %s to %s", req.SenderID, req.ReceiverID)
	}

	if req.FriendApplication.Description != nil {
		app.Description = *req.FriendApplication.Description
		patch := map[string]any{"description": app.Description}
		found, err := dal.UpdateFriendApplication(ctx, s.store, req.SenderID, req.ReceiverID, patch)
		if err != nil {
			return schemas.FriendApplication{}, apperr.Server(partUpdateFriendApplication, err)
		}
		if !found {
			return schemas.FriendApplication{}, apperr.NotFound(partUpdateFriendApplication, apperr.TagFriendApplicationNotFound, "no application from %s to %s", req.SenderID, req.ReceiverID)
		}
	}
	return *app, nil
}

func (s *Service) DeleteFriendApplication(ctx context.Context, operatorID string, req schemas.DeleteFriendApplicationRequest) (public.FriendApplicationRemoved, error) {
	if operatorID != req.SenderID {
		return public.FriendApplicationRemoved{}, apperr.Permission(partDeleteFriendApplication, "only the sender may delete an application")
	}

	unlock := s.lockApplicationPair(req.SenderID, req.ReceiverID)
	defer unlock()

	app, err := dal.GetFriendApplication(ctx, s.store, req.SenderID, req.ReceiverID)
	if err != nil {
		return public.FriendApplicationRemoved{}, apperr.Server(partDeleteFriendApplication, err)
	}
	if app == nil {
		return public.FriendApplicationRemoved{}, apperr.NotFound(partDeleteFriendApplication, apperr.TagFriendApplicationNotFound, "no application from %s to %s", req.SenderID, req.ReceiverID)
	}
	if err := dal.DeleteFriendApplication(ctx, s.store, req.SenderID, req.ReceiverID); err != nil {
		return public.FriendApplicationRemoved{}, apperr.Server(partDeleteFriendApplication, err)
	}
	return public.FriendApplicationRemoved{SenderID: req.SenderID, ReceiverID: req.ReceiverID}, nil
}
