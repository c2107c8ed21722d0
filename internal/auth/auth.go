// Package auth is the identity boundary of the service. Real identity
// providers live behind the Verifier interface; the service itself only
// needs a user id per request.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key under which the authenticated user id is
// stored.
const UserIDKey = "user_id"

// ErrUnauthorized is returned by verifiers for unusable credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticVerifier accepts a single configured token and maps it to a fixed
// user. Used for local development; deployments swap in a real provider.
type StaticVerifier struct {
	token  string
	userID string
}

// NewStaticVerifier creates a StaticVerifier. An empty token disables
// authentication and every request runs as the given user.
func NewStaticVerifier(token, userID string) *StaticVerifier {
	if userID == "" {
		userID = "local-dev"
	}
	return &StaticVerifier{token: token, userID: userID}
}

// Verify checks the token against the configured value.
func (v *StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	if v.token == "" || token == v.token {
		return v.userID, nil
	}
	return "", ErrUnauthorized
}

// RequireAuth is echo middleware that resolves the Authorization header
// through the verifier and stores the user id on the request context.
func RequireAuth(verifier Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request())
			userID, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing credentials")
			}
			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user id set by RequireAuth.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
