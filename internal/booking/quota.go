package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"room-reservation/internal/storage"
)

// CheckQuota validates a candidate reservation against the user's group
// entitlement for the room. Superusers never reach this check; callers skip
// it for privileged requesters.
//
// The check uses the candidate END time against the group's booking
// horizon. It runs at creation and edit only; existing reservations are not
// re-validated when policy changes later.
func CheckQuota(ctx context.Context, dir storage.DirectoryStore, user *storage.User, room *storage.Room, candidateEnd, now time.Time) error {
	if user.GroupID == nil {
		return fmt.Errorf("%w: user %q", ErrNoGroupAssigned, user.Email)
	}

	group, err := dir.GetGroup(ctx, *user.GroupID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: user %q references missing group %d", ErrNoGroupAssigned, user.Email, *user.GroupID)
	}
	if err != nil {
		return fmt.Errorf("resolve group: %w", err)
	}

	perms, err := dir.PermissionsFor(ctx, group.ID, room.ID)
	if err != nil {
		return fmt.Errorf("resolve group permissions: %w", err)
	}

	switch {
	case len(perms) == 0:
		return fmt.Errorf("%w: group %q, room %q", ErrRoomNotPermitted, group.Name, room.Name)
	case len(perms) > 1:
		return fmt.Errorf("%w: group %q, room %q has %d permission rows", ErrDuplicatePermission, group.Name, room.Name, len(perms))
	}

	horizon := perms[0].MaxFuture()
	if candidateEnd.Sub(now) > horizon {
		return fmt.Errorf("%w: group %q may book room %q at most %s ahead", ErrHorizonExceeded, group.Name, room.Name, horizon)
	}

	return nil
}
