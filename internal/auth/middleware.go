package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/ayush/app-store/backend/internal/httpx"
	"github.com/ayush/app-store/backend/internal/models"
)

type contextKey string

const identityKey contextKey = "appstore_identity"

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// RequireAuth validates the Authorization header and injects the caller's
// identity into the request context. A missing token is 401, a bad one 403.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err == nil {
				var id *models.Identity
				id, err = a.Authenticate(r.Context(), token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
			}

			status, msg := Status(err)
			httpx.WriteError(w, status, msg)
		})
	}
}

// bearerToken extracts the token from "Bearer <token>". An absent header or
// a bare scheme is ErrMissingToken; any other shape is ErrInvalidToken.
func bearerToken(header string) (string, error) {
	fields := strings.Fields(header)
	switch {
	case len(fields) == 0:
		return "", ErrMissingToken
	case !strings.EqualFold(fields[0], "Bearer"):
		return "", ErrInvalidToken
	case len(fields) == 1:
		return "", ErrMissingToken
	case len(fields) > 2:
		return "", ErrInvalidToken
	}
	return fields[1], nil
}

func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity set by RequireAuth.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*models.Identity)
	return id, ok && id != nil
}
