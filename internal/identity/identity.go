// Package identity handles password login and session tokens. The rest of
// the system consumes identity as an opaque (user, superuser, group)
// triple resolved per request.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"room-reservation/internal/storage"
)

var tokenSignatureAlg = jwt.SigningMethodHS256

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrNonValidToken      = errors.New("token did not pass validation")
	ErrInvalidClaimType   = errors.New("invalid claim type")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type SessionClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Service issues and verifies session tokens and checks passwords against
// the user directory.
type Service struct {
	store  storage.DirectoryStore
	secret []byte
	ttl    time.Duration
}

func NewService(store storage.DirectoryStore, secret string, ttl time.Duration) *Service {
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *Service) GenerateToken(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(tokenSignatureAlg, claims)
	return token.SignedString(s.secret)
}

func (s *Service) DecodeToken(tokenString string) (*SessionClaims, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}))

	if err != nil {
		return nil, err
	} else if parsedToken == nil || !parsedToken.Valid {
		return nil, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(*SessionClaims); ok {
		return claims, nil
	}

	return nil, ErrInvalidClaimType
}

// Login checks the password for the account and returns a session token
// plus the user row. A missing user and a wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *storage.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("resolve user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// ResolveUser loads the full user row for a verified token.
func (s *Service) ResolveUser(ctx context.Context, tokenString string) (*storage.User, error) {
	claims, err := s.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNonValidToken
	}
	return user, err
}

// HashPassword derives a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
