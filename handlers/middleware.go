package handlers

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"movietrack/models"
	"movietrack/services/auth"
)

// AuthedHandlerFunc is a handler that receives the authenticated caller.
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, user *models.User)

type tokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

var _ tokenAuthenticator = (*auth.Service)(nil)

// Authenticator resolves bearer tokens to users for protected routes.
type Authenticator struct {
	auth tokenAuthenticator
}

func NewAuthenticator(a tokenAuthenticator) *Authenticator {
	return &Authenticator{auth: a}
}

// RequireAuth rejects requests without a valid bearer token for an active user.
func (a *Authenticator) RequireAuth(next AuthedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			jsonError(w, "Not authorized, no token", http.StatusUnauthorized)
			return
		}

		user, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				jsonError(w, "Not authorized, token failed", http.StatusUnauthorized)
				return
			}
			writeError(w, r, err)
			return
		}
		if user.IsBanned() {
			jsonError(w, "Your account has been banned", http.StatusForbidden)
			return
		}
		next(w, r, user)
	}
}

// RequireAdmin additionally requires the admin role.
func (a *Authenticator) RequireAdmin(next AuthedHandlerFunc) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request, user *models.User) {
		if !user.IsAdmin() {
			jsonError(w, "Access denied. Admin only.", http.StatusForbidden)
			return
		}
		next(w, r, user)
	})
}

// OptionalAuth passes the caller when a valid token is present and nil otherwise.
func (a *Authenticator) OptionalAuth(next AuthedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var user *models.User
		if token := bearerToken(r); token != "" {
			u, err := a.auth.Authenticate(r.Context(), token)
			switch {
			case err == nil && !u.IsBanned():
				user = u
			case err != nil && !errors.Is(err, auth.ErrInvalidToken):
				log.Printf("[auth] optional authentication failed: %v", err)
			}
		}
		next(w, r, user)
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// clientIP returns the first X-Forwarded-For hop, falling back to the peer address.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
