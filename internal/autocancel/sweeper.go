// Package autocancel reconciles claimed-but-unused reservations against
// observed presence pings. A periodic sweep confirms reservations with
// recent activity and deletes the ones without any.
package autocancel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"room-reservation/internal/audit"
	"room-reservation/internal/config"
	"room-reservation/internal/storage"
)

// Store is the slice of the reservation database the sweeper touches.
type Store interface {
	ListCurrentReservations(ctx context.Context, now time.Time) ([]storage.Reservation, error)
	FindPing(ctx context.Context, userID, roomID int64, since time.Time) (*storage.ActivityPing, error)
	ConfirmReservationActivity(ctx context.Context, id string) (bool, error)
	DeleteReservationIfUnconfirmed(ctx context.Context, id string) (bool, error)
	GetUser(ctx context.Context, id int64) (*storage.User, error)
	GetRoom(ctx context.Context, id int64) (*storage.Room, error)
}

// Notifier tells a user their reservation was cancelled. Delivery is
// best-effort; failures are logged and never fail the sweep.
type Notifier interface {
	ReservationAutocancelled(ctx context.Context, user *storage.User, room *storage.Room, r storage.Reservation) error
}

type Sweeper struct {
	store    Store
	audit    audit.Emitter
	notifier Notifier // nil disables notices
	cfg      config.AutocancelConfig
	logger   *slog.Logger

	now func() time.Time
}

func NewSweeper(store Store, sink audit.Emitter, notifier Notifier, cfg config.AutocancelConfig) *Sweeper {
	return &Sweeper{
		store:    store,
		audit:    sink,
		notifier: notifier,
		cfg:      cfg,
		logger:   slog.With("component", "autocancel"),
		now:      time.Now,
	}
}

// RunTick performs one sweep over all currently live reservations. The
// returned error covers pre-tick setup failures only; per-reservation
// failures are logged and isolated so one bad row cannot abort the rest of
// the tick. Transitions committed before an abort stay committed.
func (s *Sweeper) RunTick(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("Autocancel sweep is disabled, skipping tick")
		return nil
	}

	if timeout := s.cfg.TickTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	now := s.now()

	current, err := s.store.ListCurrentReservations(ctx, now)
	if err != nil {
		s.logger.Error("Sweep tick aborted, cannot list current reservations", "error", err)
		return fmt.Errorf("list current reservations: %w", err)
	}

	s.logger.Info("Starting autocancel sweep", "live_reservations", len(current))

	for _, reservation := range current {
		if ctx.Err() != nil {
			s.logger.Warn("Sweep tick deadline reached, remaining reservations carry over to the next tick",
				"error", ctx.Err())
			break
		}
		if err := s.process(ctx, reservation, now); err != nil {
			s.logger.Error("Failed to process reservation, continuing sweep",
				"reservation_id", reservation.ID, "error", err)
		}
	}

	s.logger.Info("Finished autocancel sweep")
	return nil
}

// process applies the per-reservation state machine: confirmed rows are
// terminal, too-young rows wait for a later tick, and everything else is
// either confirmed by a recent ping or deleted.
func (s *Sweeper) process(ctx context.Context, r storage.Reservation, now time.Time) error {
	if r.ConfirmedActivity {
		s.logger.Debug("Reservation already has confirmed activity, skipping", "reservation_id", r.ID)
		return nil
	}
	if r.End.Before(now) {
		// Already finished; completion is not a cancel trigger.
		s.logger.Debug("Reservation already finished, skipping", "reservation_id", r.ID)
		return nil
	}
	if r.Start.After(now.Add(-s.cfg.Grace())) {
		s.logger.Debug("Reservation too recent to judge absence, skipping", "reservation_id", r.ID)
		return nil
	}

	ping, err := s.store.FindPing(ctx, r.UserID, r.RoomID, now.Add(-s.cfg.Lookback()))
	if err != nil {
		return fmt.Errorf("find ping: %w", err)
	}

	if ping != nil {
		return s.confirm(ctx, r)
	}
	return s.cancel(ctx, r)
}

func (s *Sweeper) confirm(ctx context.Context, r storage.Reservation) error {
	ok, err := s.store.ConfirmReservationActivity(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("confirm activity: %w", err)
	}
	if !ok {
		// A user edit or cancel won the race; nothing to do this tick.
		s.logger.Debug("Reservation changed underneath the sweep, skipping confirm", "reservation_id", r.ID)
		return nil
	}

	s.logger.Info("Activity confirmed for reservation", "reservation_id", r.ID, "user_id", r.UserID)
	s.audit.Emit(ctx, fmt.Sprintf("Reservation %s activity confirmed", r.ID), nil)
	return nil
}

func (s *Sweeper) cancel(ctx context.Context, r storage.Reservation) error {
	ok, err := s.store.DeleteReservationIfUnconfirmed(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if !ok {
		s.logger.Debug("Reservation changed underneath the sweep, skipping cancel", "reservation_id", r.ID)
		return nil
	}

	s.logger.Info("Reservation autocancelled for no activity",
		"reservation_id", r.ID, "user_id", r.UserID, "room_id", r.RoomID)
	s.audit.Emit(ctx, fmt.Sprintf("Reservation %s autocancelled, no activity between %s and %s",
		r.ID, r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339)), nil)

	s.notify(ctx, r)
	return nil
}

func (s *Sweeper) notify(ctx context.Context, r storage.Reservation) {
	if s.notifier == nil {
		return
	}
	user, err := s.store.GetUser(ctx, r.UserID)
	if err != nil {
		s.logger.Warn("Cannot resolve user for cancellation notice", "user_id", r.UserID, "error", err)
		return
	}
	room, err := s.store.GetRoom(ctx, r.RoomID)
	if err != nil {
		s.logger.Warn("Cannot resolve room for cancellation notice", "room_id", r.RoomID, "error", err)
		return
	}
	if err := s.notifier.ReservationAutocancelled(ctx, user, room, r); err != nil {
		s.logger.Warn("Failed to send cancellation notice", "user_id", r.UserID, "error", err)
	}
}
