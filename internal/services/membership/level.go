// package membership implements the member application lifecycle and resolves the
// permission level every other service gates on.
package membership

import (
	"context"

	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/schemas"
)

// Level returns userID's permission level in serverID. A user with no Member record is
// an unaffiliated guest at level 1.
func Level(ctx context.Context, store dal.Store, userID, serverID string) (int, error) {
	m, err := dal.GetMember(ctx, store, userID, serverID)
	if err != nil {
		return 0, err
	}
	if m == nil || m.PermissionLevel < schemas.PermissionGuest {
		return schemas.PermissionGuest, nil
	}
	return m.PermissionLevel, nil
}

// CanActOn reports whether operatorID may act on targetID within serverID: either they
// are the same user, or the operator is at least a moderator and outranks the target.
func CanActOn(ctx context.Context, store dal.Store, operatorID, targetID, serverID string) (bool, error) {
	if operatorID == targetID {
		return true, nil
	}
	opLevel, err := Level(ctx, store, operatorID, serverID)
	if err != nil {
		return false, err
	}
	if opLevel < schemas.PermissionModerator {
		return false, nil
	}
	targetLevel, err := Level(ctx, store, targetID, serverID)
	if err != nil {
		return false, err
	}
	return opLevel > targetLevel, nil
}
