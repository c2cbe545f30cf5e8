package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danhyun/simpleshop/internal/domain"
)

// SessionCookieName is the cookie carrying the opaque session identifier.
const SessionCookieName = "session_id"

type contextKey string

const principalContextKey contextKey = "principal"

// PrincipalFromContext extracts the authenticated principal from the request
// context. Returns nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(principalContextKey).(*domain.Principal)
	return p
}

// ContextWithPrincipal returns a context carrying the given principal.
func ContextWithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// isPublicPath reports whether the request skips session resolution
// entirely: the auth endpoints themselves plus all product reads.
func isPublicPath(method, path string) bool {
	if method == http.MethodPost && (path == "/api/users/signup" || path == "/api/users/login") {
		return true
	}
	if method == http.MethodGet && (path == "/api/products" || strings.HasPrefix(path, "/api/products/")) {
		return true
	}
	return path == "/healthz" || path == "/metrics"
}

// SessionGate resolves the session cookie into a Principal and attaches it
// to the request context. It runs on every request but never rejects one:
// rejection is RequireAuth's job. A missing or expired session, a session
// whose user no longer exists, or a failing session store all degrade the
// request to anonymous.
//
// A session pointing at a deleted user is invalidated on sight so it cannot
// keep coming back.
func SessionGate(sessions domain.SessionStore, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			// Resolution happens at most once per request.
			if PrincipalFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			sess, err := sessions.Get(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					slog.Error("resolve session", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(ctx, sess.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// Dangling session: its user is gone.
					if err := sessions.Invalidate(ctx, sess.ID); err != nil {
						slog.Error("invalidate dangling session", "session_id", sess.ID, "error", err)
					}
				} else {
					slog.Error("load session user", "user_id", sess.UserID, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			if err := sessions.Touch(ctx, sess.ID); err != nil {
				slog.Warn("touch session", "session_id", sess.ID, "error", err)
			}

			principal := &domain.Principal{UserID: user.ID, Roles: []string{domain.RoleUser}}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, principal)))
		})
	}
}

// RequireAuth blocks requests that carry no principal. It sits behind the
// session gate on routes that need an authenticated caller.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
