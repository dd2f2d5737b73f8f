package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas/public"
)

const (
	partCreateApplication = "CreateMemberApplicationService"
	partUpdateApplication = "UpdateMemberApplicationService"
	partDeleteApplication = "DeleteMemberApplicationService"
	partGrant             = "GrantMemberService"
)

// Service holds the dependencies of the membership operations. It keeps no per-call state.
type Service struct {
	store dal.Store
	now   func() time.Time
}

func New(store dal.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the time source used for createdAt stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateMemberApplication files userID's request to join serverID. Only the user may
// apply for themselves, and only while they are an unaffiliated guest (level 1).
// An existing application is overwritten.
func (s *Service) CreateMemberApplication(ctx context.Context, operatorID string, req schemas.CreateMemberApplicationRequest) (schemas.MemberApplication, error) {
	level, err := Level(ctx, s.store, operatorID, req.ServerID)
	if err != nil {
		return schemas.MemberApplication{}, apperr.Server(partCreateApplication, err)
	}
	if operatorID != req.UserID {
		return schemas.MemberApplication{}, apperr.Permission(partCreateApplication, "cannot apply on behalf of another user")
	}
	if level != schemas.PermissionGuest {
		return schemas.MemberApplication{}, apperr.Permission(partCreateApplication, "only guests may apply for membership")
	}

	server, err := dal.GetServer(ctx, s.store, req.ServerID)
	if err != nil {
		return schemas.MemberApplication{}, apperr.Server(partCreateApplication, err)
	}
	if server == nil {
		return schemas.MemberApplication{}, apperr.NotFound(partCreateApplication, apperr.TagServerNotFound, "server %s not found", req.ServerID)
	}

	app := schemas.MemberApplication{
		UserID:    req.UserID,
		ServerID:  req.ServerID,
		CreatedAt: s.now().UnixMilli(),
	}
	if req.MemberApplication.Description != nil {
		app.Description = *req.MemberApplication.Description
	}
	if err := dal.SetMemberApplication(ctx, s.store, req.UserID, req.ServerID, app); err != nil {
		return schemas.MemberApplication{}, apperr.Server(partCreateApplication, err)
	}
	return app, nil
}

// UpdateMemberApplication edits an application. Acting on another user's application
// needs moderator level in the server; acting on one's own is always allowed.
func (s *Service) UpdateMemberApplication(ctx context.Context, operatorID string, req schemas.UpdateMemberApplicationRequest) (schemas.MemberApplication, error) {
	if err := s.checkElevated(ctx, partUpdateApplication, operatorID, req.UserID, req.ServerID); err != nil {
		return schemas.MemberApplication{}, err
	}

	app, err := dal.GetMemberApplication(ctx, s.store, req.UserID, req.ServerID)
	if err != nil {
		return schemas.MemberApplication{}, apperr.Server(partUpdateApplication, err)
	}
	if app == nil {
		return schemas.MemberApplication{}, apperr.NotFound(partUpdateApplication, apperr.TagMemberApplicationNotFound, "no application from %s to %s", req.UserID, req.ServerID)
	}

	if req.MemberApplication.Description != nil {
		app.Description = *req.MemberApplication.Description
		patch := map[string]any{"description": app.Description}
		found, err := dal.UpdateMemberApplication(ctx, s.store, req.UserID, req.ServerID, patch)
		if err != nil {
			return schemas.MemberApplication{}, apperr.Server(partUpdateApplication, err)
		}
		if !found {
			return schemas.MemberApplication{}, apperr.NotFound(partUpdateApplication, apperr.TagMemberApplicationNotFound, "no application from %s to %s", req.UserID, req.ServerID)
		}
	}
	return *app, nil
}

// DeleteMemberApplication withdraws or rejects an application, with the same gate as
// UpdateMemberApplication.
func (s *Service) DeleteMemberApplication(ctx context.Context, operatorID string, req schemas.DeleteMemberApplicationRequest) (public.MemberApplicationRemoved, error) {
	if err := s.checkElevated(ctx, partDeleteApplication, operatorID, req.UserID, req.ServerID); err != nil {
		return public.MemberApplicationRemoved{}, err
	}

	app, err := dal.GetMemberApplication(ctx, s.store, req.UserID, req.ServerID)
	if err != nil {
		return public.MemberApplicationRemoved{}, apperr.Server(partDeleteApplication, err)
	}
	if app == nil {
		return public.MemberApplicationRemoved{}, apperr.NotFound(partDeleteApplication, apperr.TagMemberApplicationNotFound, "no application from %s to %s", req.UserID, req.ServerID)
	}
	if err := dal.DeleteMemberApplication(ctx, s.store, req.UserID, req.ServerID); err != nil {
		return public.MemberApplicationRemoved{}, apperr.Server(partDeleteApplication, err)
	}
	return public.MemberApplicationRemoved{UserID: req.UserID, ServerID: req.ServerID}, nil
}

func (s *Service) checkElevated(ctx context.Context, part, operatorID, userID, serverID string) error {
	if operatorID == userID {
		return nil
	}
	level, err := Level(ctx, s.store, operatorID, serverID)
	if err != nil {
		return apperr.Server(part, err)
	}
	if level < schemas.PermissionModerator {
		return apperr.Permission(part, "moderator level required to act on another user's application")
	}
	return nil
}

// Grant writes userID's Member record in serverID at level and clears any pending
// application. It is not reachable from clients: administrators run it through the
// grant-member command.
func (s *Service) Grant(ctx context.Context, userID, serverID string, level int) (schemas.Member, error) {
	if level < schemas.PermissionGuest || level > schemas.PermissionMax {
		return schemas.Member{}, apperr.Validation(partGrant, "permission level must be between %d and %d", schemas.PermissionGuest, schemas.PermissionMax)
	}
	server, err := dal.GetServer(ctx, s.store, serverID)
	if err != nil {
		return schemas.Member{}, apperr.Server(partGrant, err)
	}
	if server == nil {
		return schemas.Member{}, apperr.NotFound(partGrant, apperr.TagServerNotFound, "server %s not found", serverID)
	}

	member, err := dal.GetMember(ctx, s.store, userID, serverID)
	if err != nil {
		return schemas.Member{}, apperr.Server(partGrant, err)
	}
	if member == nil {
		member = &schemas.Member{UserID: userID, ServerID: serverID, CreatedAt: s.now().UnixMilli()}
	}
	member.PermissionLevel = level
	if err := dal.SetMember(ctx, s.store, userID, serverID, member); err != nil {
		return schemas.Member{}, apperr.Server(partGrant, err)
	}
	if err := dal.DeleteMemberApplication(ctx, s.store, userID, serverID); err != nil {
		return schemas.Member{}, apperr.Server(partGrant, fmt.Errorf("error clearing application: %w", err))
	}
	return *member, nil
}
