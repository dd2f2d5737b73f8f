package dal

import (
	"context"
	"strings"

	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
)

func ServerKey(serverID string) Key { return Key{serverID} }

func GetServer(ctx context.Context, s Store, serverID string) (*schemas.Server, error) {
	return get[schemas.Server](ctx, s, KindServer, ServerKey(serverID))
}

func SetServer(ctx context.Context, s Store, serverID string, patch any) error {
	return s.Set(ctx, KindServer, ServerKey(serverID), patch)
}

// SearchServers matches a case-insensitive name substring or an exact display id.
// Invisible servers are never returned.
func SearchServers(ctx context.Context, s Store, query string, limit int) ([]schemas.Server, error) {
	servers, err := list[schemas.Server](ctx, s, KindServer, nil)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []schemas.Server{}
	for _, srv := range servers {
		if len(out) >= limit {
			break
		}
		if srv.Visibility == schemas.ServerInvisible {
			continue
		}
		if srv.DisplayID == query || (q != "" && strings.Contains(strings.ToLower(srv.Name), q)) {
			out = append(out, srv)
		}
	}
	return out, nil
}
