// package presence tracks which server and channel each user is in, and serves the
// user-facing lookups around it: search, profile updates and the status snapshot.
package presence

import (
	"context"
	"time"

	"github.com/mcg25035/RiceCall-sub002/internal/apperr"
	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas/public"
	"github.com/mcg25035/RiceCall-sub002/internal/services/membership"
)

// SearchLimit caps search results.
const SearchLimit = 20

const (
	partConnectServer    = "ConnectServerService"
	partDisconnectServer = "DisconnectServerService"
	partSearchServer     = "SearchServerService"
	partSearchUser       = "SearchUserService"
	partUpdateUser       = "UpdateUserService"
	partStatus           = "StatusService"
	partSession          = "SessionService"
)

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

// ConnectServer puts userID in the lobby of serverID. A first visit creates a guest
// Member record. Invisible servers only admit existing members.
func (s *Service) ConnectServer(ctx context.Context, operatorID string, req schemas.ConnectServerRequest) (public.ServerJoined, error) {
	if operatorID != req.UserID {
		return public.ServerJoined{}, apperr.Permission(partConnectServer, "cannot connect another user to a server")
	}

	user, err := s.getUser(ctx, partConnectServer, req.UserID)
	if err != nil {
		return public.ServerJoined{}, err
	}
	server, err := dal.GetServer(ctx, s.store, req.ServerID)
	if err != nil {
		return public.ServerJoined{}, apperr.Server(partConnectServer, err)
	}
	if server == nil {
		return public.ServerJoined{}, apperr.NotFound(partConnectServer, apperr.TagServerNotFound, "server %s not found", req.ServerID)
	}

	member, err := dal.GetMember(ctx, s.store, req.UserID, req.ServerID)
	if err != nil {
		return public.ServerJoined{}, apperr.Server(partConnectServer, err)
	}
	if member != nil && member.IsBlocked {
		return public.ServerJoined{}, apperr.Forbidden(partConnectServer, apperr.TagMemberBlocked, "user is blocked in this server")
	}
	if server.Visibility == schemas.ServerInvisible && (member == nil || member.PermissionLevel < schemas.PermissionMember) {
		return public.ServerJoined{}, apperr.Permission(partConnectServer, "server is invisible")
	}
	if member == nil {
		member = &schemas.Member{
			UserID:          req.UserID,
			ServerID:        req.ServerID,
			PermissionLevel: schemas.PermissionGuest,
			CreatedAt:       s.now().UnixMilli(),
		}
		if err := dal.SetMember(ctx, s.store, req.UserID, req.ServerID, member); err != nil {
			return public.ServerJoined{}, apperr.Server(partConnectServer, err)
		}
	}

	channels, err := dal.ListChannels(ctx, s.store, req.ServerID)
	if err != nil {
		return public.ServerJoined{}, apperr.Server(partConnectServer, err)
	}

	var lobby *string
	if server.LobbyID != "" {
		lobby = &server.LobbyID
	}
	if err := dal.SetUserPresence(ctx, s.store, req.UserID, &req.ServerID, lobby); err != nil {
		return public.ServerJoined{}, apperr.Server(partConnectServer, err)
	}

	return public.ServerJoined{
		UserID:        req.UserID,
		Server:        *server,
		Member:        *member,
		Channels:      public.NewChannels(channels),
		LobbyID:       server.LobbyID,
		PrevServerID:  user.CurrentServerID,
		PrevChannelID: user.CurrentChannelID,
	}, nil
}

// DisconnectServer takes userID out of serverID. A moderator who outranks the user may
// do this to them (a kick).
func (s *Service) DisconnectServer(ctx context.Context, operatorID string, req schemas.DisconnectServerRequest) (public.ServerLeft, error) {
	allowed, err := membership.CanActOn(ctx, s.store, operatorID, req.UserID, req.ServerID)
	if err != nil {
		return public.ServerLeft{}, apperr.Server(partDisconnectServer, err)
	}
	if !allowed {
		return public.ServerLeft{}, apperr.Permission(partDisconnectServer, "cannot disconnect this user")
	}

	user, err := s.getUser(ctx, partDisconnectServer, req.UserID)
	if err != nil {
		return public.ServerLeft{}, err
	}
	left := public.ServerLeft{UserID: req.UserID, ServerID: req.ServerID}
	if user.CurrentServerID == nil || *user.CurrentServerID != req.ServerID {
		return left, nil
	}
	if err := dal.SetUserPresence(ctx, s.store, req.UserID, nil, nil); err != nil {
		return public.ServerLeft{}, apperr.Server(partDisconnectServer, err)
	}
	left.PrevChannelID = user.CurrentChannelID
	return left, nil
}

// SearchServer matches names and display ids. Invisible servers are never listed.
func (s *Service) SearchServer(ctx context.Context, req schemas.SearchServerRequest) ([]schemas.Server, error) {
	servers, err := dal.SearchServers(ctx, s.store, req.Query, SearchLimit)
	if err != nil {
		return nil, apperr.Server(partSearchServer, err)
	}
	return servers, nil
}

func (s *Service) SearchUser(ctx context.Context, req schemas.SearchUserRequest) ([]schemas.User, error) {
	users, err := dal.SearchUsers(ctx, s.store, req.Query, SearchLimit)
	if err != nil {
		return nil, apperr.Server(partSearchUser, err)
	}
	return users, nil
}

func (s *Service) UpdateUser(ctx context.Context, operatorID string, req schemas.UpdateUserRequest) (schemas.User, error) {
	if operatorID != req.UserID {
		return schemas.User{}, apperr.Permission(partUpdateUser, "cannot update another user")
	}
	user, err := s.getUser(ctx, partUpdateUser, req.UserID)
	if err != nil {
		return schemas.User{}, err
	}

	patch := map[string]any{}
	if p := req.User.Name; p != nil {
		patch["name"], user.Name = *p, *p
	}
	if p := req.User.Signature; p != nil {
		patch["signature"], user.Signature = *p, *p
	}
	if p := req.User.Status; p != nil {
		patch["status"], user.Status = *p, *p
	}
	if p := req.User.Gender; p != nil {
		patch["gender"], user.Gender = *p, *p
	}
	if len(patch) > 0 {
		if err := dal.SetUser(ctx, s.store, req.UserID, patch); err != nil {
			return schemas.User{}, apperr.Server(partUpdateUser, err)
		}
	}
	return *user, nil
}

// Status collects everything a freshly connected client shows about itself.
func (s *Service) Status(ctx context.Context, userID string) (public.Status, error) {
	user, err := s.getUser(ctx, partStatus, userID)
	if err != nil {
		return public.Status{}, err
	}
	status := public.Status{User: *user}

	if status.Friends, err = dal.ListFriends(ctx, s.store, userID); err != nil {
		return public.Status{}, apperr.Server(partStatus, err)
	}
	if status.FriendGroups, err = dal.ListFriendGroups(ctx, s.store, userID); err != nil {
		return public.Status{}, apperr.Server(partStatus, err)
	}
	if status.FriendApplicationsSent, err = dal.ListSentFriendApplications(ctx, s.store, userID); err != nil {
		return public.Status{}, apperr.Server(partStatus, err)
	}
	if status.FriendApplicationsReceived, err = dal.ListReceivedFriendApplications(ctx, s.store, userID); err != nil {
		return public.Status{}, apperr.Server(partStatus, err)
	}
	if status.Members, err = dal.ListUserMembers(ctx, s.store, userID); err != nil {
		return public.Status{}, apperr.Server(partStatus, err)
	}
	return status, nil
}

// Online records a new authenticated session for userID, creating the user record on
// first sight. Accounts themselves are issued elsewhere; the token subject is trusted.
func (s *Service) Online(ctx context.Context, userID, name string) (schemas.User, error) {
	user, err := dal.GetUser(ctx, s.store, userID)
	if err != nil {
		return schemas.User{}, apperr.Server(partSession, err)
	}
	if user == nil {
		if name == "" {
			name = userID
		}
		user = &schemas.User{UserID: userID, Name: name, CreatedAt: s.now().UnixMilli()}
	}
	user.Status = "online"
	if err := dal.SetUser(ctx, s.store, userID, user); err != nil {
		return schemas.User{}, apperr.Server(partSession, err)
	}
	return *user, nil
}

// Offline clears userID's presence when their canonical session ends. The previous
// location is returned so the transport can notify the rooms they left.
func (s *Service) Offline(ctx context.Context, userID string) (public.ServerLeft, error) {
	user, err := dal.GetUser(ctx, s.store, userID)
	if err != nil {
		return public.ServerLeft{}, apperr.Server(partSession, err)
	}
	if user == nil {
		return public.ServerLeft{UserID: userID}, nil
	}
	left := public.ServerLeft{UserID: userID, PrevChannelID: user.CurrentChannelID}
	if user.CurrentServerID != nil {
		left.ServerID = *user.CurrentServerID
	}
	patch := map[string]any{"status": "offline", "currentServerId": nil, "currentChannelId": nil}
	if err := dal.SetUser(ctx, s.store, userID, patch); err != nil {
		return public.ServerLeft{}, apperr.Server(partSession, err)
	}
	return left, nil
}

func (s *Service) getUser(ctx context.Context, part, userID string) (*schemas.User, error) {
	user, err := dal.GetUser(ctx, s.store, userID)
	if err != nil {
		return nil, apperr.Server(part, err)
	}
	if user == nil {
		return nil, apperr.NotFound(part, apperr.TagUserNotFound, "user %s not found", userID)
	}
	return user, nil
}
