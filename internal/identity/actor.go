// Package identity attributes requests to a staff actor for audit purposes.
//
// The attribution is best-effort and NOT cryptographically trusted: bearer
// token claims are read without signature verification. The resolved actor is
// a logged label only; no business rule in this service may gate on it.
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// Unknown is the sentinel actor when no identity hint is present. Resolution
// never fails a request.
const Unknown = "unknown"

// StaffIDHeader is an explicit override that takes precedence over any
// bearer credential.
const StaffIDHeader = "X-Staff-Id"

type contextKey struct{}

// Resolve extracts a best-effort staff identifier from the request.
// Precedence: explicit X-Staff-Id header, then the sub/username claim of a
// bearer token (unverified), then Unknown.
func Resolve(r *http.Request) string {
	if staff := r.Header.Get(StaffIDHeader); staff != "" {
		return staff
	}

	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return actorFromToken(auth[7:])
	}
	return Unknown
}

func actorFromToken(raw string) string {
	claims := jwt.MapClaims{}
	// ParseUnverified decodes the payload without checking the signature.
	// Good enough for an advisory audit label; never for authorization.
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Unknown
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if username, ok := claims["username"].(string); ok && username != "" {
		return username
	}
	return Unknown
}

// Middleware resolves the actor once and stores it on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), contextKey{}, Resolve(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the actor resolved by Middleware, or Unknown when
// the middleware did not run.
func ActorFromContext(ctx context.Context) string {
	actor, ok := ctx.Value(contextKey{}).(string)
	if !ok || actor == "" {
		return Unknown
	}
	return actor
}
