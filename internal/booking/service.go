package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"room-reservation/internal/audit"
	"room-reservation/internal/storage"
)

// Provider is the storage surface the lifecycle manager needs: the full
// query set plus a transaction boundary. The conflict check and the write
// that follows it always run inside WithTx so concurrent requests cannot
// both commit overlapping intervals for the same room or user.
type Provider interface {
	storage.Store
	WithTx(ctx context.Context, fn func(storage.Store) error) error
}

// Service orchestrates reservation create/edit/cancel/list. Quota and
// overlap validation failures abort the write; nothing is partially
// committed.
type Service struct {
	store  Provider
	audit  audit.Emitter
	grace  time.Duration
	logger *slog.Logger

	now func() time.Time
}

func NewService(store Provider, sink audit.Emitter, editGrace time.Duration) *Service {
	return &Service{
		store:  store,
		audit:  sink,
		grace:  editGrace,
		logger: slog.With("component", "booking"),
		now:    time.Now,
	}
}

type CreateRequest struct {
	RoomID int64
	// Book on behalf of this user. Only superusers may set it to someone
	// other than themselves.
	UserID *int64
	Start  time.Time
	End    time.Time
}

type EditRequest struct {
	Start time.Time
	End   time.Time
	// Present only to reject it: owner change on edit is unsupported.
	UserID *int64
}

func describeReservation(r *storage.Reservation, roomName string) string {
	return fmt.Sprintf("room %q from %s to %s for user %d (id %s)",
		roomName, r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339), r.UserID, r.ID)
}

// Create books a room. Validation order follows the policy: resolve
// references, enforce group quota for non-superusers, then scan for
// conflicts in both the room and the target-user scope.
func (s *Service) Create(ctx context.Context, req CreateRequest, requester *storage.User) (*storage.Reservation, error) {
	interval := Interval{Start: req.Start, End: req.End}
	if !interval.Valid() {
		return nil, fmt.Errorf("%w: start %s, end %s", ErrInvalidInterval, req.Start, req.End)
	}

	now := s.now()
	var created *storage.Reservation
	var roomName string

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		room, err := tx.GetRoom(ctx, req.RoomID)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrRoomNotFound, req.RoomID)
		}
		if err != nil {
			return err
		}
		roomName = room.Name

		target := requester
		if req.UserID != nil && *req.UserID != requester.ID {
			if !requester.IsSuperuser {
				return ErrForbidden
			}
			target, err = tx.GetUser(ctx, *req.UserID)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: id %d", ErrUserNotFound, *req.UserID)
			}
			if err != nil {
				return err
			}
		}

		if !requester.IsSuperuser {
			if err := CheckQuota(ctx, tx, target, room, req.End, now); err != nil {
				return err
			}
		}

		if err := checkConflicts(ctx, tx, room.ID, target.ID, interval, ""); err != nil {
			return err
		}

		created = &storage.Reservation{
			ID:     uuid.NewString(),
			RoomID: room.ID,
			UserID: target.ID,
			Start:  req.Start,
			End:    req.End,
		}
		return tx.CreateReservation(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, "Reservation created: "+describeReservation(created, roomName), &requester.ID)
	return created, nil
}

// Edit changes a reservation's interval. The reservation's own row is
// excluded from the conflict scans so a booking can shrink or shift within
// its original slot.
func (s *Service) Edit(ctx context.Context, id string, req EditRequest, requester *storage.User) (*storage.Reservation, error) {
	if req.UserID != nil {
		return nil, ErrOwnerChangeUnsupported
	}

	interval := Interval{Start: req.Start, End: req.End}
	if !interval.Valid() {
		return nil, fmt.Errorf("%w: start %s, end %s", ErrInvalidInterval, req.Start, req.End)
	}

	now := s.now()
	var before, after storage.Reservation
	var roomName string

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		existing, err := tx.GetReservation(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: id %s", ErrReservationNotFound, id)
		}
		if err != nil {
			return err
		}
		before = *existing

		if err := s.checkEditWindow(existing, requester, now); err != nil {
			return err
		}

		room, err := tx.GetRoom(ctx, existing.RoomID)
		if err != nil {
			return fmt.Errorf("resolve room for reservation %s: %w", id, err)
		}
		roomName = room.Name

		if !requester.IsSuperuser {
			owner, err := tx.GetUser(ctx, existing.UserID)
			if err != nil {
				return fmt.Errorf("resolve owner for reservation %s: %w", id, err)
			}
			if err := CheckQuota(ctx, tx, owner, room, req.End, now); err != nil {
				return err
			}
		}

		if err := checkConflicts(ctx, tx, existing.RoomID, existing.UserID, interval, existing.ID); err != nil {
			return err
		}

		if err := tx.UpdateReservationInterval(ctx, id, req.Start, req.End); err != nil {
			return err
		}

		after = *existing
		after.Start = req.Start
		after.End = req.End
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, fmt.Sprintf("Reservation %s changed, was: %s, now: %s",
		id, describeReservation(&before, roomName), describeReservation(&after, roomName)), &requester.ID)
	return &after, nil
}

// Cancel removes a reservation, subject to the same edit-window policy as
// Edit.
func (s *Service) Cancel(ctx context.Context, id string, requester *storage.User) (*storage.Reservation, error) {
	now := s.now()
	var removed storage.Reservation
	var roomName string

	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		existing, err := tx.GetReservation(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: id %s", ErrReservationNotFound, id)
		}
		if err != nil {
			return err
		}
		removed = *existing

		if err := s.checkEditWindow(existing, requester, now); err != nil {
			return err
		}

		if room, err := tx.GetRoom(ctx, existing.RoomID); err == nil {
			roomName = room.Name
		}

		return tx.DeleteReservation(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, "Reservation cancelled: "+describeReservation(&removed, roomName), &requester.ID)
	return &removed, nil
}

// List returns every reservation, or only those live right now.
func (s *Service) List(ctx context.Context, currentOnly bool) ([]storage.Reservation, error) {
	if currentOnly {
		return s.store.ListCurrentReservations(ctx, s.now())
	}
	return s.store.ListReservations(ctx)
}

// ListForUser returns a user's upcoming reservations, or with history only
// the finished ones. Requesting another user's list requires superuser.
func (s *Service) ListForUser(ctx context.Context, userID int64, history bool, requester *storage.User) ([]storage.Reservation, error) {
	if userID != requester.ID && !requester.IsSuperuser {
		return nil, ErrForbidden
	}
	if userID != requester.ID {
		if _, err := s.store.GetUser(ctx, userID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
			}
			return nil, err
		}
	}
	return s.store.ListReservationsForUser(ctx, userID, history, s.now())
}

// checkEditWindow enforces who may still touch a reservation and until
// when. Superusers bypass every rule.
func (s *Service) checkEditWindow(r *storage.Reservation, requester *storage.User, now time.Time) error {
	if requester.IsSuperuser {
		return nil
	}
	if r.UserID != requester.ID {
		return ErrNotOwner
	}
	if r.End.Before(now) {
		return fmt.Errorf("%w: ended %s", ErrAlreadyEnded, r.End.Format(time.RFC3339))
	}
	if now.After(r.Start.Add(s.grace)) {
		return fmt.Errorf("%w: started %s, grace %s", ErrEditWindowClosed, r.Start.Format(time.RFC3339), s.grace)
	}
	return nil
}

// checkConflicts scans both exclusivity scopes: the room across all users,
// and the user across all rooms. excludeID drops the reservation's own row
// when editing.
func checkConflicts(ctx context.Context, tx storage.Store, roomID, userID int64, candidate Interval, excludeID string) error {
	roomOverlaps, err := tx.FindOverlappingForRoom(ctx, roomID, candidate.Start, candidate.End, excludeID)
	if err != nil {
		return err
	}
	for _, other := range roomOverlaps {
		if Conflicts(Interval{Start: other.Start, End: other.End}, candidate) {
			return fmt.Errorf("%w: already reserved %s to %s (id %s)",
				ErrRoomConflict, other.Start.Format(time.RFC3339), other.End.Format(time.RFC3339), other.ID)
		}
	}

	userOverlaps, err := tx.FindOverlappingForUser(ctx, userID, candidate.Start, candidate.End, excludeID)
	if err != nil {
		return err
	}
	for _, other := range userOverlaps {
		if Conflicts(Interval{Start: other.Start, End: other.End}, candidate) {
			return fmt.Errorf("%w: already reserved %s to %s (id %s)",
				ErrUserConflict, other.Start.Format(time.RFC3339), other.End.Format(time.RFC3339), other.ID)
		}
	}
	return nil
}
