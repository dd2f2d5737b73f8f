package dal

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
)

func UserKey(userID string) Key { return Key{userID} }

// GetUser returns nil, nil when the user does not exist.
func GetUser(ctx context.Context, s Store, userID string) (*schemas.User, error) {
	return get[schemas.User](ctx, s, KindUser, UserKey(userID))
}

// SetUser merges patch into the user record.
func SetUser(ctx context.Context, s Store, userID string, patch any) error {
	if err := s.Set(ctx, KindUser, UserKey(userID), patch); err != nil {
		return fmt.Errorf("error setting user %s: %w", userID, err)
	}
	return nil
}

// SetUserPresence points the user at a server and channel. nil clears a pointer.
func SetUserPresence(ctx context.Context, s Store, userID string, serverID, channelID *string) error {
	return SetUser(ctx, s, userID, map[string]any{
		"currentServerId":  serverID,
		"currentChannelId": channelID,
	})
}

// ListUsers returns every user. Only search and occupancy counts need this.
func ListUsers(ctx context.Context, s Store) ([]schemas.User, error) {
	return list[schemas.User](ctx, s, KindUser, nil)
}

// SearchUsers matches an exact user id or a case-insensitive name substring.
func SearchUsers(ctx context.Context, s Store, query string, limit int) ([]schemas.User, error) {
	users, err := ListUsers(ctx, s)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []schemas.User{}
	for _, u := range users {
		if len(out) >= limit {
			break
		}
		if u.UserID == query || (q != "" && strings.Contains(strings.ToLower(u.Name), q)) {
			out = append(out, u)
		}
	}
	return out, nil
}

// UsersInChannel returns the users whose presence points at channelID.
func UsersInChannel(ctx context.Context, s Store, channelID string) ([]schemas.User, error) {
	users, err := ListUsers(ctx, s)
	if err != nil {
		return nil, err
	}
	out := []schemas.User{}
	for _, u := range users {
		if u.CurrentChannelID != nil && *u.CurrentChannelID == channelID {
			out = append(out, u)
		}
	}
	return out, nil
}
