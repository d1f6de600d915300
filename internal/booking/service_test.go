package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"room-reservation/internal/audit"
	"room-reservation/internal/storage"
)

// fakeStore is an in-memory Provider. The embedded interface panics on any
// method a test reaches that the fake does not implement.
type fakeStore struct {
	storage.Store

	users        map[int64]*storage.User
	groups       map[int64]*storage.Group
	rooms        map[int64]*storage.Room
	perms        []storage.GroupRoomPermission
	reservations map[string]*storage.Reservation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[int64]*storage.User),
		groups:       make(map[int64]*storage.Group),
		rooms:        make(map[int64]*storage.Room),
		reservations: make(map[string]*storage.Reservation),
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	return fn(f)
}

func (f *fakeStore) GetUser(ctx context.Context, id int64) (*storage.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) GetGroup(ctx context.Context, id int64) (*storage.Group, error) {
	if g, ok := f.groups[id]; ok {
		return g, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) GetRoom(ctx context.Context, id int64) (*storage.Room, error) {
	if r, ok := f.rooms[id]; ok {
		return r, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) PermissionsFor(ctx context.Context, groupID, roomID int64) ([]storage.GroupRoomPermission, error) {
	var out []storage.GroupRoomPermission
	for _, p := range f.perms {
		if p.GroupID == groupID && p.RoomID == roomID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetReservation(ctx context.Context, id string) (*storage.Reservation, error) {
	if r, ok := f.reservations[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) CreateReservation(ctx context.Context, r *storage.Reservation) error {
	copied := *r
	f.reservations[r.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateReservationInterval(ctx context.Context, id string, start, end time.Time) error {
	r, ok := f.reservations[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.Start = start
	r.End = end
	return nil
}

func (f *fakeStore) DeleteReservation(ctx context.Context, id string) error {
	if _, ok := f.reservations[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.reservations, id)
	return nil
}

func (f *fakeStore) FindOverlappingForRoom(ctx context.Context, roomID int64, start, end time.Time, excludeID string) ([]storage.Reservation, error) {
	var out []storage.Reservation
	for _, r := range f.reservations {
		if r.RoomID == roomID && r.ID != excludeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) FindOverlappingForUser(ctx context.Context, userID int64, start, end time.Time, excludeID string) ([]storage.Reservation, error) {
	var out []storage.Reservation
	for _, r := range f.reservations {
		if r.UserID == userID && r.ID != excludeID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Shared fixture: one group entitled to one room with a 7 day horizon, one
// regular member and one superuser.
func newTestService(t *testing.T, now time.Time) (*Service, *fakeStore) {
	t.Helper()

	store := newFakeStore()
	groupID := int64(1)
	store.groups[1] = &storage.Group{ID: 1, Name: "staff"}
	store.rooms[1] = &storage.Room{ID: 1, Name: "A101"}
	store.rooms[2] = &storage.Room{ID: 2, Name: "B202"}
	store.perms = []storage.GroupRoomPermission{
		{ID: 1, GroupID: 1, RoomID: 1, MaxFutureSeconds: int64(7 * 24 * time.Hour / time.Second)},
		{ID: 2, GroupID: 1, RoomID: 2, MaxFutureSeconds: int64(7 * 24 * time.Hour / time.Second)},
	}
	store.users[10] = &storage.User{ID: 10, Email: "alice@example.com", GroupID: &groupID}
	store.users[11] = &storage.User{ID: 11, Email: "bob@example.com", GroupID: &groupID}
	store.users[99] = &storage.User{ID: 99, Email: "admin@example.com", IsSuperuser: true}

	svc := NewService(store, audit.Discard{}, 10*time.Minute)
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestCreate(t *testing.T) {
	now := at(8, 0)
	svc, store := newTestService(t, now)
	alice := store.users[10]

	created, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(11, 0),
	}, alice)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a generated reservation id")
	}
	if created.UserID != alice.ID {
		t.Errorf("reservation owner = %d, want %d", created.UserID, alice.ID)
	}
	if _, ok := store.reservations[created.ID]; !ok {
		t.Error("reservation was not persisted")
	}
}

func TestCreate_InvalidInterval(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))

	_, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(11, 0), End: at(10, 0),
	}, store.users[10])
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestCreate_RoomNotFound(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))

	_, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 404, Start: at(10, 0), End: at(11, 0),
	}, store.users[10])
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestCreate_RoomConflict(t *testing.T) {
	now := at(8, 0)
	svc, store := newTestService(t, now)

	if _, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(11, 0),
	}, store.users[10]); err != nil {
		t.Fatalf("seed reservation failed: %v", err)
	}

	// Another user, same room, touching endpoint. Inclusive boundaries
	// make this a conflict.
	_, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(11, 0), End: at(12, 0),
	}, store.users[11])
	if !errors.Is(err, ErrRoomConflict) {
		t.Errorf("expected ErrRoomConflict, got %v", err)
	}
	if len(store.reservations) != 1 {
		t.Errorf("conflicting reservation was persisted, have %d rows", len(store.reservations))
	}
}

func TestCreate_UserConflict(t *testing.T) {
	now := at(8, 0)
	svc, store := newTestService(t, now)
	alice := store.users[10]

	if _, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(11, 0),
	}, alice); err != nil {
		t.Fatalf("seed reservation failed: %v", err)
	}

	// Same user cannot hold two rooms over the same span.
	_, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 2, Start: at(10, 30), End: at(11, 30),
	}, alice)
	if !errors.Is(err, ErrUserConflict) {
		t.Errorf("expected ErrUserConflict, got %v", err)
	}
}

func TestCreate_BookForOtherRequiresSuperuser(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))
	bobID := int64(11)

	_, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, UserID: &bobID, Start: at(10, 0), End: at(11, 0),
	}, store.users[10])
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	created, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, UserID: &bobID, Start: at(10, 0), End: at(11, 0),
	}, store.users[99])
	if err != nil {
		t.Fatalf("superuser booking for other failed: %v", err)
	}
	if created.UserID != bobID {
		t.Errorf("reservation owner = %d, want %d", created.UserID, bobID)
	}
}

func TestCreate_SuperuserBypassesQuota(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))

	// The superuser has no group at all; quota must not apply.
	if _, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(11, 0),
	}, store.users[99]); err != nil {
		t.Fatalf("superuser create failed: %v", err)
	}
}

func TestEdit_ShiftWithinOwnSlot(t *testing.T) {
	now := at(8, 0)
	svc, store := newTestService(t, now)
	alice := store.users[10]

	created, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(12, 0),
	}, alice)
	if err != nil {
		t.Fatalf("seed reservation failed: %v", err)
	}

	// Shrinking within the original slot overlaps the old row itself; the
	// row under edit must be excluded from the conflict scan.
	updated, err := svc.Edit(context.Background(), created.ID, EditRequest{
		Start: at(10, 30), End: at(11, 30),
	}, alice)
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if !updated.Start.Equal(at(10, 30)) || !updated.End.Equal(at(11, 30)) {
		t.Errorf("interval not updated, got %s to %s", updated.Start, updated.End)
	}
}

func TestEdit_OwnerChangeUnsupported(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))
	bobID := int64(11)

	_, err := svc.Edit(context.Background(), "whatever", EditRequest{
		Start: at(10, 0), End: at(11, 0), UserID: &bobID,
	}, store.users[10])
	if !errors.Is(err, ErrOwnerChangeUnsupported) {
		t.Errorf("expected ErrOwnerChangeUnsupported, got %v", err)
	}
}

func TestEdit_WindowClosed(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))
	alice := store.users[10]

	created, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(12, 0),
	}, alice)
	if err != nil {
		t.Fatalf("seed reservation failed: %v", err)
	}

	// 11 minutes past start with a 10 minute grace.
	svc.now = func() time.Time { return at(10, 11) }

	_, err = svc.Edit(context.Background(), created.ID, EditRequest{
		Start: at(10, 30), End: at(11, 30),
	}, alice)
	if !errors.Is(err, ErrEditWindowClosed) {
		t.Errorf("expected ErrEditWindowClosed, got %v", err)
	}

	// The superuser is not bound by the window.
	if _, err := svc.Edit(context.Background(), created.ID, EditRequest{
		Start: at(10, 30), End: at(11, 30),
	}, store.users[99]); err != nil {
		t.Errorf("superuser edit failed: %v", err)
	}
}

func TestCancel_NotOwner(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))

	created, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(11, 0),
	}, store.users[10])
	if err != nil {
		t.Fatalf("seed reservation failed: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), created.ID, store.users[11]); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if _, ok := store.reservations[created.ID]; !ok {
		t.Error("reservation was deleted despite the rejection")
	}
}

func TestCancel_AlreadyEnded(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))
	alice := store.users[10]

	created, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(11, 0),
	}, alice)
	if err != nil {
		t.Fatalf("seed reservation failed: %v", err)
	}

	svc.now = func() time.Time { return at(13, 0) }

	if _, err := svc.Cancel(context.Background(), created.ID, alice); !errors.Is(err, ErrAlreadyEnded) {
		t.Errorf("expected ErrAlreadyEnded, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))
	alice := store.users[10]

	created, err := svc.Create(context.Background(), CreateRequest{
		RoomID: 1, Start: at(10, 0), End: at(11, 0),
	}, alice)
	if err != nil {
		t.Fatalf("seed reservation failed: %v", err)
	}

	removed, err := svc.Cancel(context.Background(), created.ID, alice)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if removed.ID != created.ID {
		t.Errorf("cancelled id = %s, want %s", removed.ID, created.ID)
	}
	if _, ok := store.reservations[created.ID]; ok {
		t.Error("reservation still present after cancel")
	}
}

func TestListForUser_RequiresSuperuserForOthers(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))

	if _, err := svc.ListForUser(context.Background(), 11, false, store.users[10]); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestListForUser_UnknownUser(t *testing.T) {
	svc, store := newTestService(t, at(8, 0))

	_, err := svc.ListForUser(context.Background(), 404, false, store.users[99])
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
