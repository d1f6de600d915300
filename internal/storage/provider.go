package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"room-reservation/internal/config"
)

// ErrNotFound is returned by Get* methods when no matching row exists.
var ErrNotFound = errors.New("record not found")

// DirectoryStore resolves users, rooms, groups and group entitlements.
type DirectoryStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, id int64) (*Room, error)
	GetRoomByName(ctx context.Context, name string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	UpdateRoom(ctx context.Context, room *Room) error
	DeleteRoom(ctx context.Context, id int64) error

	CreateGroup(ctx context.Context, group *Group) error
	GetGroup(ctx context.Context, id int64) (*Group, error)
	GetGroupByName(ctx context.Context, name string) (*Group, error)

	// PermissionsFor returns every entitlement row for the pair. A healthy
	// database yields zero or one; callers treat more as corruption.
	PermissionsFor(ctx context.Context, groupID, roomID int64) ([]GroupRoomPermission, error)
	UpsertPermission(ctx context.Context, perm *GroupRoomPermission) error
}

// ReservationStore holds the booking rows the scheduling core operates on.
type ReservationStore interface {
	CreateReservation(ctx context.Context, r *Reservation) error
	GetReservation(ctx context.Context, id string) (*Reservation, error)
	UpdateReservationInterval(ctx context.Context, id string, start, end time.Time) error
	DeleteReservation(ctx context.Context, id string) error

	// ConfirmReservationActivity sets confirmed_activity for a reservation
	// that is still unconfirmed. Returns false when the row was already
	// confirmed or gone, in which case nothing was written.
	ConfirmReservationActivity(ctx context.Context, id string) (bool, error)
	// DeleteReservationIfUnconfirmed removes the reservation only while it
	// is still unconfirmed. Returns false when a concurrent confirm or
	// delete won.
	DeleteReservationIfUnconfirmed(ctx context.Context, id string) (bool, error)

	FindOverlappingForRoom(ctx context.Context, roomID int64, start, end time.Time, excludeID string) ([]Reservation, error)
	FindOverlappingForUser(ctx context.Context, userID int64, start, end time.Time, excludeID string) ([]Reservation, error)

	ListReservations(ctx context.Context) ([]Reservation, error)
	ListCurrentReservations(ctx context.Context, now time.Time) ([]Reservation, error)
	ListReservationsForUser(ctx context.Context, userID int64, includePast bool, now time.Time) ([]Reservation, error)

	PurgeReservationsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityStore is the append-only presence ping log.
type ActivityStore interface {
	RecordPing(ctx context.Context, ping *ActivityPing) error
	// FindPing returns the most recent ping for the user in the room since
	// the given time, or nil when none exists.
	FindPing(ctx context.Context, userID, roomID int64, since time.Time) (*ActivityPing, error)
	ListPingsForRoom(ctx context.Context, roomID int64, since time.Time) ([]ActivityPing, error)
}

type AuditStore interface {
	AppendAuditEvent(ctx context.Context, event *AuditEvent) error
	ListAuditEvents(ctx context.Context, limit int) ([]AuditEvent, error)
}

// Store is the full query/command surface of the reservation database.
type Store interface {
	DirectoryStore
	ReservationStore
	ActivityStore
	AuditStore
}

type Provider interface {
	Store

	// WithTx runs fn against a transactional view of the store. The
	// conflict-check-then-write sequences of the booking core run through
	// this so concurrent requests cannot both commit overlapping intervals.
	WithTx(ctx context.Context, fn func(Store) error) error

	GetSchemaVersion(ctx context.Context) (int, error)
	Close() error
}

func NewProvider(config *config.Storage) Provider {
	switch {
	case config.SQLite != nil:
		provider := NewSQLiteProvider(config)
		if provider == nil {
			return nil
		}
		if err := provider.runMigrations("sqlite3"); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			return nil
		}
		return provider

	default:
		slog.Error("Unsupported storage configuration", "config", config)
	}

	return nil
}
