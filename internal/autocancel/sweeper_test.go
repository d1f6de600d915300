package autocancel

import (
	"context"
	"errors"
	"testing"
	"time"

	"room-reservation/internal/audit"
	"room-reservation/internal/config"
	"room-reservation/internal/storage"
)

type sweepStore struct {
	reservations []*storage.Reservation
	pings        []storage.ActivityPing
	users        map[int64]*storage.User
	rooms        map[int64]*storage.Room

	listErr      error
	pingErrFor   map[int64]error // keyed by user id
	blockPingFor map[int64]bool  // FindPing waits out the context for these users
	confirmed    []string
	deleted      []string
}

func (s *sweepStore) ListCurrentReservations(ctx context.Context, now time.Time) ([]storage.Reservation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]storage.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, *r)
	}
	return out, nil
}

func (s *sweepStore) FindPing(ctx context.Context, userID, roomID int64, since time.Time) (*storage.ActivityPing, error) {
	if err, ok := s.pingErrFor[userID]; ok {
		return nil, err
	}
	if s.blockPingFor[userID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	for i := range s.pings {
		p := s.pings[i]
		if p.UserID != nil && *p.UserID == userID && p.RoomID == roomID && !p.ObservedAt.Before(since) {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *sweepStore) ConfirmReservationActivity(ctx context.Context, id string) (bool, error) {
	for _, r := range s.reservations {
		if r.ID == id {
			if r.ConfirmedActivity {
				return false, nil
			}
			r.ConfirmedActivity = true
			s.confirmed = append(s.confirmed, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *sweepStore) DeleteReservationIfUnconfirmed(ctx context.Context, id string) (bool, error) {
	for i, r := range s.reservations {
		if r.ID == id {
			if r.ConfirmedActivity {
				return false, nil
			}
			s.reservations = append(s.reservations[:i], s.reservations[i+1:]...)
			s.deleted = append(s.deleted, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *sweepStore) GetUser(ctx context.Context, id int64) (*storage.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (s *sweepStore) GetRoom(ctx context.Context, id int64) (*storage.Room, error) {
	if r, ok := s.rooms[id]; ok {
		return r, nil
	}
	return nil, storage.ErrNotFound
}

type recordingNotifier struct {
	notified []string
}

func (n *recordingNotifier) ReservationAutocancelled(ctx context.Context, user *storage.User, room *storage.Room, r storage.Reservation) error {
	n.notified = append(n.notified, r.ID)
	return nil
}

func sweepConfig() config.AutocancelConfig {
	return config.AutocancelConfig{
		Enabled:       true,
		GraceSeconds:  600,
		LookbackHours: 24,
	}
}

func newTestSweeper(store *sweepStore, notifier Notifier, now time.Time) *Sweeper {
	s := NewSweeper(store, audit.Discard{}, notifier, sweepConfig())
	s.now = func() time.Time { return now }
	return s
}

func ts(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
}

func reservation(id string, userID, roomID int64, start, end time.Time) *storage.Reservation {
	return &storage.Reservation{ID: id, UserID: userID, RoomID: roomID, Start: start, End: end}
}

func TestRunTick_Disabled(t *testing.T) {
	store := &sweepStore{listErr: errors.New("must not be called")}
	sweeper := NewSweeper(store, audit.Discard{}, nil, config.AutocancelConfig{Enabled: false})

	if err := sweeper.RunTick(context.Background()); err != nil {
		t.Errorf("disabled tick returned error: %v", err)
	}
}

func TestRunTick_ListFailure(t *testing.T) {
	store := &sweepStore{listErr: errors.New("db gone")}
	sweeper := newTestSweeper(store, nil, ts(10, 30))

	if err := sweeper.RunTick(context.Background()); err == nil {
		t.Error("expected an error when listing fails")
	}
}

func TestRunTick_ConfirmsReservationWithActivity(t *testing.T) {
	now := ts(10, 30)
	userID := int64(10)
	store := &sweepStore{
		reservations: []*storage.Reservation{
			reservation("r1", userID, 1, ts(10, 0), ts(12, 0)),
		},
		pings: []storage.ActivityPing{
			{UserID: &userID, RoomID: 1, ObservedAt: ts(10, 5)},
		},
	}
	sweeper := newTestSweeper(store, nil, now)

	if err := sweeper.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if len(store.confirmed) != 1 || store.confirmed[0] != "r1" {
		t.Errorf("confirmed = %v, want [r1]", store.confirmed)
	}
	if len(store.deleted) != 0 {
		t.Errorf("deleted = %v, want none", store.deleted)
	}
}

func TestRunTick_CancelsIdleReservation(t *testing.T) {
	now := ts(10, 30)
	store := &sweepStore{
		reservations: []*storage.Reservation{
			reservation("r1", 10, 1, ts(10, 0), ts(12, 0)),
		},
		users: map[int64]*storage.User{10: {ID: 10, Email: "alice@example.com", FullName: "Alice"}},
		rooms: map[int64]*storage.Room{1: {ID: 1, Name: "A101"}},
	}
	notifier := &recordingNotifier{}
	sweeper := newTestSweeper(store, notifier, now)

	if err := sweeper.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "r1" {
		t.Errorf("deleted = %v, want [r1]", store.deleted)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != "r1" {
		t.Errorf("notified = %v, want [r1]", notifier.notified)
	}
}

func TestRunTick_SkipsReservationWithinGrace(t *testing.T) {
	// Started 5 minutes ago with a 10 minute grace; absence cannot be
	// judged yet.
	now := ts(10, 5)
	store := &sweepStore{
		reservations: []*storage.Reservation{
			reservation("r1", 10, 1, ts(10, 0), ts(12, 0)),
		},
	}
	sweeper := newTestSweeper(store, nil, now)

	if err := sweeper.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if len(store.confirmed) != 0 || len(store.deleted) != 0 {
		t.Errorf("reservation touched within grace: confirmed=%v deleted=%v", store.confirmed, store.deleted)
	}
}

func TestRunTick_SkipsConfirmedReservation(t *testing.T) {
	now := ts(10, 30)
	r := reservation("r1", 10, 1, ts(10, 0), ts(12, 0))
	r.ConfirmedActivity = true
	store := &sweepStore{
		reservations: []*storage.Reservation{r},
		// No pings; a confirmed reservation must still survive.
	}
	sweeper := newTestSweeper(store, nil, now)

	if err := sweeper.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Errorf("confirmed reservation was deleted: %v", store.deleted)
	}
}

func TestRunTick_Idempotent(t *testing.T) {
	now := ts(10, 30)
	userID := int64(10)
	store := &sweepStore{
		reservations: []*storage.Reservation{
			reservation("r1", userID, 1, ts(10, 0), ts(12, 0)),
			reservation("r2", 11, 2, ts(10, 0), ts(12, 0)),
		},
		pings: []storage.ActivityPing{
			{UserID: &userID, RoomID: 1, ObservedAt: ts(10, 5)},
		},
		users: map[int64]*storage.User{11: {ID: 11, Email: "bob@example.com"}},
		rooms: map[int64]*storage.Room{2: {ID: 2, Name: "B202"}},
	}
	sweeper := newTestSweeper(store, nil, now)

	for i := 0; i < 2; i++ {
		if err := sweeper.RunTick(context.Background()); err != nil {
			t.Fatalf("RunTick %d failed: %v", i, err)
		}
	}

	// One confirm and one delete total, regardless of how many ticks ran.
	if len(store.confirmed) != 1 {
		t.Errorf("confirmed %v times, want once", store.confirmed)
	}
	if len(store.deleted) != 1 {
		t.Errorf("deleted %v times, want once", store.deleted)
	}
}

func TestRunTick_DeadlineLeavesRemainderForNextTick(t *testing.T) {
	now := ts(10, 30)
	store := &sweepStore{
		reservations: []*storage.Reservation{
			reservation("r1", 10, 1, ts(10, 0), ts(12, 0)),
			reservation("r2", 11, 2, ts(10, 0), ts(12, 0)),
			reservation("r3", 12, 3, ts(10, 0), ts(12, 0)),
		},
		// The second reservation's ping lookup hangs until the tick's soft
		// deadline expires.
		blockPingFor: map[int64]bool{11: true},
		users:        map[int64]*storage.User{10: {ID: 10, Email: "alice@example.com"}},
		rooms:        map[int64]*storage.Room{1: {ID: 1, Name: "A101"}},
	}

	cfg := sweepConfig()
	cfg.TickTimeoutSeconds = 1
	sweeper := NewSweeper(store, audit.Discard{}, nil, cfg)
	sweeper.now = func() time.Time { return now }

	// An exhausted deadline is not a tick failure; the remaining rows wait
	// for the next tick.
	if err := sweeper.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}

	// The cancel committed before the deadline stays committed.
	if len(store.deleted) != 1 || store.deleted[0] != "r1" {
		t.Errorf("deleted = %v, want [r1]", store.deleted)
	}

	// The reservation after the stall was never judged.
	for _, r := range store.reservations {
		if r.ID == "r3" {
			if r.ConfirmedActivity {
				t.Error("r3 was confirmed after the deadline expired")
			}
			return
		}
	}
	t.Error("r3 is gone, want it untouched for the next tick")
}

func TestRunTick_IsolatesPerReservationFailures(t *testing.T) {
	now := ts(10, 30)
	store := &sweepStore{
		reservations: []*storage.Reservation{
			reservation("r1", 10, 1, ts(10, 0), ts(12, 0)),
			reservation("r2", 11, 2, ts(10, 0), ts(12, 0)),
		},
		pingErrFor: map[int64]error{10: errors.New("ping table corrupt")},
		users:      map[int64]*storage.User{11: {ID: 11, Email: "bob@example.com"}},
		rooms:      map[int64]*storage.Room{2: {ID: 2, Name: "B202"}},
	}
	sweeper := newTestSweeper(store, nil, now)

	// The failing first reservation must not abort the tick.
	if err := sweeper.RunTick(context.Background()); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "r2" {
		t.Errorf("deleted = %v, want [r2]", store.deleted)
	}
}
