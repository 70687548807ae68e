package middleware

import (
	"context"
	"net/http"

	"github.com/Dosada05/round-submissions/services"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is what the request's credential resolved to.
type Identity struct {
	// Presented is true when the request carried any credential.
	Presented bool
	UserID    int
	Resolved  bool
}

// Requester returns the user id for read paths, where an unresolvable
// credential counts as anonymous.
func (i Identity) Requester() *int {
	if !i.Resolved {
		return nil
	}
	id := i.UserID
	return &id
}

// Identify resolves the Authorization header once per request and stores the
// outcome in the context. It never rejects a request by itself.
func Identify(resolver services.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id Identity
			if credential := r.Header.Get("Authorization"); credential != "" {
				id.Presented = true
				id.UserID, id.Resolved = resolver.ResolveUserID(r.Context(), credential)
			}
			ctx := context.WithValue(r.Context(), identityContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey).(Identity)
	return id
}

// RequireUser reports the authenticated user id, or the error the upload
// paths return for an absent or unresolvable credential.
func RequireUser(ctx context.Context) (int, error) {
	id := IdentityFromContext(ctx)
	if !id.Presented {
		return 0, services.ErrAuthenticationRequired
	}
	if !id.Resolved {
		return 0, services.ErrAuthenticationFailed
	}
	return id.UserID, nil
}
