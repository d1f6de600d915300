package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func (q *queries) CreateUser(ctx context.Context, user *User) error {
	res, err := q.ext.ExecContext(ctx,
		`INSERT INTO users (email, full_name, password_hash, is_superuser, group_id)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Email, user.FullName, user.PasswordHash, user.IsSuperuser, user.GroupID)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

func (q *queries) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	err := sqlx.GetContext(ctx, q.ext, &u, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := sqlx.GetContext(ctx, q.ext, &u, "SELECT * FROM users WHERE email = ?", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (q *queries) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := sqlx.SelectContext(ctx, q.ext, &out, "SELECT * FROM users ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (q *queries) CreateRoom(ctx context.Context, room *Room) error {
	res, err := q.ext.ExecContext(ctx,
		"INSERT INTO rooms (name, description) VALUES (?, ?)",
		room.Name, room.Description)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	room.ID, err = res.LastInsertId()
	return err
}

func (q *queries) GetRoom(ctx context.Context, id int64) (*Room, error) {
	var r Room
	err := sqlx.GetContext(ctx, q.ext, &r, "SELECT * FROM rooms WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &r, nil
}

func (q *queries) GetRoomByName(ctx context.Context, name string) (*Room, error) {
	var r Room
	err := sqlx.GetContext(ctx, q.ext, &r, "SELECT * FROM rooms WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room by name: %w", err)
	}
	return &r, nil
}

func (q *queries) ListRooms(ctx context.Context) ([]Room, error) {
	var out []Room
	if err := sqlx.SelectContext(ctx, q.ext, &out, "SELECT * FROM rooms ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return out, nil
}

func (q *queries) UpdateRoom(ctx context.Context, room *Room) error {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE rooms SET name = ?, description = ? WHERE id = ?",
		room.Name, room.Description, room.ID)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) DeleteRoom(ctx context.Context, id int64) error {
	res, err := q.ext.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) CreateGroup(ctx context.Context, group *Group) error {
	res, err := q.ext.ExecContext(ctx, "INSERT INTO groups (name) VALUES (?)", group.Name)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	group.ID, err = res.LastInsertId()
	return err
}

func (q *queries) GetGroup(ctx context.Context, id int64) (*Group, error) {
	var g Group
	err := sqlx.GetContext(ctx, q.ext, &g, "SELECT * FROM groups WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

func (q *queries) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	var g Group
	err := sqlx.GetContext(ctx, q.ext, &g, "SELECT * FROM groups WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group by name: %w", err)
	}
	return &g, nil
}

func (q *queries) PermissionsFor(ctx context.Context, groupID, roomID int64) ([]GroupRoomPermission, error) {
	var out []GroupRoomPermission
	err := sqlx.SelectContext(ctx, q.ext, &out,
		"SELECT * FROM group_room_permissions WHERE group_id = ? AND room_id = ?",
		groupID, roomID)
	if err != nil {
		return nil, fmt.Errorf("permissions for group/room: %w", err)
	}
	return out, nil
}

func (q *queries) UpsertPermission(ctx context.Context, perm *GroupRoomPermission) error {
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO group_room_permissions (group_id, room_id, max_future_seconds)
		 VALUES (?, ?, ?)
		 ON CONFLICT (group_id, room_id) DO UPDATE SET max_future_seconds = excluded.max_future_seconds`,
		perm.GroupID, perm.RoomID, perm.MaxFutureSeconds)
	if err != nil {
		return fmt.Errorf("upsert permission: %w", err)
	}
	return nil
}
