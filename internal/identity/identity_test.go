package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"room-reservation/internal/storage"
)

type fakeDirectory struct {
	storage.DirectoryStore

	users map[int64]*storage.User
}

func (d *fakeDirectory) GetUser(ctx context.Context, id int64) (*storage.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (d *fakeDirectory) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func newTestDirectory(t *testing.T) *fakeDirectory {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}
	return &fakeDirectory{
		users: map[int64]*storage.User{
			10: {ID: 10, Email: "alice@example.com", FullName: "Alice", PasswordHash: string(hash)},
		},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(newTestDirectory(t), "test-secret", time.Hour)

	token, err := svc.GenerateToken(10)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := svc.DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken failed: %v", err)
	}
	if claims.UserID != 10 {
		t.Errorf("UserID = %d, want 10", claims.UserID)
	}
}

func TestDecodeToken_WrongSecret(t *testing.T) {
	dir := newTestDirectory(t)
	issuer := NewService(dir, "secret-a", time.Hour)
	verifier := NewService(dir, "secret-b", time.Hour)

	token, err := issuer.GenerateToken(10)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := verifier.DecodeToken(token); err == nil {
		t.Error("expected a token signed with another secret to be rejected")
	}
}

func TestLogin(t *testing.T) {
	svc := NewService(newTestDirectory(t), "test-secret", time.Hour)

	token, user, err := svc.Login(context.Background(), "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if user.ID != 10 {
		t.Errorf("user id = %d, want 10", user.ID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := NewService(newTestDirectory(t), "test-secret", time.Hour)

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := NewService(newTestDirectory(t), "test-secret", time.Hour)

	// Unknown account and wrong password must be indistinguishable.
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "hunter2")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestResolveUser(t *testing.T) {
	svc := NewService(newTestDirectory(t), "test-secret", time.Hour)

	token, err := svc.GenerateToken(10)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	user, err := svc.ResolveUser(context.Background(), token)
	if err != nil {
		t.Fatalf("ResolveUser failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", user.Email)
	}
}

func TestResolveUser_DeletedAccount(t *testing.T) {
	dir := newTestDirectory(t)
	svc := NewService(dir, "test-secret", time.Hour)

	token, err := svc.GenerateToken(10)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	delete(dir.users, 10)
	if _, err := svc.ResolveUser(context.Background(), token); !errors.Is(err, ErrNonValidToken) {
		t.Errorf("expected ErrNonValidToken for a deleted account, got %v", err)
	}
}
