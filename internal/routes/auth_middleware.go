// Authentication middleware. Checks for a valid bearer token in the
// request header, resolves the full user row and sets it in the context.
package routes

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"room-reservation/internal/identity"
	"room-reservation/internal/storage"
)

const userContextKey = "user"

var (
	ErrUserNotInContext = errors.New("user not found in context")
	ErrUserWrongType    = errors.New("user in context has unexpected type")
)

// GetUser returns the authenticated user set by AuthMiddleware.
func GetUser(c *gin.Context) (*storage.User, error) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, ErrUserNotInContext
	}
	user, ok := value.(*storage.User)
	if !ok {
		slog.Warn("GetUser: user in context has unexpected type")
		return nil, ErrUserWrongType
	}
	return user, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

// AuthMiddleware requires a valid session token and loads the caller's
// user row, including superuser flag and group assignment.
func AuthMiddleware(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := ids.ResolveUser(c.Request.Context(), token)
		if err != nil {
			slog.Warn("AuthMiddleware: invalid or expired token", "error", err)
			AbortWithError(c, identity.ErrNonValidToken)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireSuperuser gates an endpoint to privileged callers. Must run after
// AuthMiddleware.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUser(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !user.IsSuperuser {
			AbortWithError(c, ErrSuperuserRequired)
			return
		}
		c.Next()
	}
}
