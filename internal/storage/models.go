package storage

import "time"

type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	PasswordHash string    `db:"password_hash"`
	IsSuperuser  bool      `db:"is_superuser"`
	GroupID      *int64    `db:"group_id"`
	CreatedAt    time.Time `db:"created_at"`
}

type Room struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

type Group struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// GroupRoomPermission entitles one group to book one room, up to a maximum
// look-ahead horizon. At most one row may exist per (group, room) pair.
type GroupRoomPermission struct {
	ID               int64 `db:"id"`
	GroupID          int64 `db:"group_id"`
	RoomID           int64 `db:"room_id"`
	MaxFutureSeconds int64 `db:"max_future_seconds"`
}

// MaxFuture is the booking horizon: how far into the future a reservation's
// end may fall.
func (p GroupRoomPermission) MaxFuture() time.Duration {
	return time.Duration(p.MaxFutureSeconds) * time.Second
}

type Reservation struct {
	ID     string    `db:"id"`
	RoomID int64     `db:"room_id"`
	UserID int64     `db:"user_id"`
	Start  time.Time `db:"start_at"`
	End    time.Time `db:"end_at"`
	// Set once presence has been confirmed; never reset.
	ConfirmedActivity bool      `db:"confirmed_activity"`
	CreatedAt         time.Time `db:"created_at"`
}

// ActivityPing is a presence signal reported from a room's device. UserID is
// nil when nobody is logged into the device. Append-only.
type ActivityPing struct {
	ID         int64     `db:"id"`
	UserID     *int64    `db:"user_id"`
	RoomID     int64     `db:"room_id"`
	ObservedAt time.Time `db:"observed_at"`
	ReceivedAt time.Time `db:"received_at"`
}

// AuditEvent records a fact about a state change. UserID is nil for
// system-initiated actions such as autocancel.
type AuditEvent struct {
	ID          int64     `db:"id"`
	Time        time.Time `db:"created_at"`
	Description string    `db:"description"`
	UserID      *int64    `db:"user_id"`
}
