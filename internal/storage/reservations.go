package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const reservationColumns = "id, room_id, user_id, start_at, end_at, confirmed_activity, created_at"

// Matches any stored interval that the candidate [start, end] touches:
// either endpoint inside a stored interval, or the candidate containing a
// stored interval outright. Boundaries are inclusive on purpose; two
// back-to-back reservations sharing an endpoint count as overlapping.
const overlapPredicate = `(
		? BETWEEN start_at AND end_at
		OR ? BETWEEN start_at AND end_at
		OR (? <= start_at AND ? >= end_at)
	)`

func (q *queries) CreateReservation(ctx context.Context, r *Reservation) error {
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO reservations (id, room_id, user_id, start_at, end_at, confirmed_activity)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.RoomID, r.UserID, r.Start.UTC(), r.End.UTC(), r.ConfirmedActivity)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (q *queries) GetReservation(ctx context.Context, id string) (*Reservation, error) {
	var r Reservation
	err := sqlx.GetContext(ctx, q.ext, &r,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &r, nil
}

func (q *queries) UpdateReservationInterval(ctx context.Context, id string, start, end time.Time) error {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE reservations SET start_at = ?, end_at = ? WHERE id = ?",
		start.UTC(), end.UTC(), id)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) DeleteReservation(ctx context.Context, id string) error {
	res, err := q.ext.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) ConfirmReservationActivity(ctx context.Context, id string) (bool, error) {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE reservations SET confirmed_activity = 1 WHERE id = ? AND confirmed_activity = 0", id)
	if err != nil {
		return false, fmt.Errorf("confirm reservation activity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *queries) DeleteReservationIfUnconfirmed(ctx context.Context, id string) (bool, error) {
	res, err := q.ext.ExecContext(ctx,
		"DELETE FROM reservations WHERE id = ? AND confirmed_activity = 0", id)
	if err != nil {
		return false, fmt.Errorf("delete unconfirmed reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *queries) FindOverlappingForRoom(ctx context.Context, roomID int64, start, end time.Time, excludeID string) ([]Reservation, error) {
	var out []Reservation
	err := sqlx.SelectContext(ctx, q.ext, &out,
		"SELECT "+reservationColumns+" FROM reservations WHERE room_id = ? AND id <> ? AND "+overlapPredicate+" ORDER BY start_at",
		roomID, excludeID, start.UTC(), end.UTC(), start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("find overlapping for room: %w", err)
	}
	return out, nil
}

func (q *queries) FindOverlappingForUser(ctx context.Context, userID int64, start, end time.Time, excludeID string) ([]Reservation, error) {
	var out []Reservation
	err := sqlx.SelectContext(ctx, q.ext, &out,
		"SELECT "+reservationColumns+" FROM reservations WHERE user_id = ? AND id <> ? AND "+overlapPredicate+" ORDER BY start_at",
		userID, excludeID, start.UTC(), end.UTC(), start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("find overlapping for user: %w", err)
	}
	return out, nil
}

func (q *queries) ListReservations(ctx context.Context) ([]Reservation, error) {
	var out []Reservation
	err := sqlx.SelectContext(ctx, q.ext, &out,
		"SELECT "+reservationColumns+" FROM reservations ORDER BY start_at")
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

func (q *queries) ListCurrentReservations(ctx context.Context, now time.Time) ([]Reservation, error) {
	var out []Reservation
	err := sqlx.SelectContext(ctx, q.ext, &out,
		"SELECT "+reservationColumns+" FROM reservations WHERE start_at <= ? AND end_at >= ? ORDER BY start_at DESC",
		now.UTC(), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list current reservations: %w", err)
	}
	return out, nil
}

// ListReservationsForUser returns upcoming and in-progress reservations by
// default; with includePast it returns only finished ones, newest first.
func (q *queries) ListReservationsForUser(ctx context.Context, userID int64, includePast bool, now time.Time) ([]Reservation, error) {
	var out []Reservation
	var err error
	if includePast {
		err = sqlx.SelectContext(ctx, q.ext, &out,
			"SELECT "+reservationColumns+" FROM reservations WHERE user_id = ? AND end_at < ? ORDER BY start_at DESC",
			userID, now.UTC())
	} else {
		err = sqlx.SelectContext(ctx, q.ext, &out,
			"SELECT "+reservationColumns+" FROM reservations WHERE user_id = ? AND end_at >= ? ORDER BY start_at",
			userID, now.UTC())
	}
	if err != nil {
		return nil, fmt.Errorf("list reservations for user: %w", err)
	}
	return out, nil
}

func (q *queries) PurgeReservationsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.ext.ExecContext(ctx,
		"DELETE FROM reservations WHERE end_at <= ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge reservations: %w", err)
	}
	return res.RowsAffected()
}
