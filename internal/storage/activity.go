package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

func (q *queries) RecordPing(ctx context.Context, ping *ActivityPing) error {
	res, err := q.ext.ExecContext(ctx,
		`INSERT INTO activity_log (user_id, room_id, observed_at, received_at)
		 VALUES (?, ?, ?, ?)`,
		ping.UserID, ping.RoomID, ping.ObservedAt.UTC(), ping.ReceivedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert ping: %w", err)
	}
	ping.ID, err = res.LastInsertId()
	return err
}

func (q *queries) FindPing(ctx context.Context, userID, roomID int64, since time.Time) (*ActivityPing, error) {
	var p ActivityPing
	err := sqlx.GetContext(ctx, q.ext, &p,
		`SELECT * FROM activity_log
		 WHERE user_id = ? AND room_id = ? AND observed_at > ?
		 ORDER BY observed_at DESC LIMIT 1`,
		userID, roomID, since.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ping: %w", err)
	}
	return &p, nil
}

func (q *queries) ListPingsForRoom(ctx context.Context, roomID int64, since time.Time) ([]ActivityPing, error) {
	var out []ActivityPing
	err := sqlx.SelectContext(ctx, q.ext, &out,
		`SELECT * FROM activity_log
		 WHERE room_id = ? AND observed_at > ?
		 ORDER BY observed_at DESC`,
		roomID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("list pings for room: %w", err)
	}
	return out, nil
}
