package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"movietrack/models"
	"movietrack/services/auth"
)

type fakeTokenAuth struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeTokenAuth) Authenticate(ctx context.Context, token string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}

func newFakeTokenAuth() *fakeTokenAuth {
	return &fakeTokenAuth{users: map[string]*models.User{
		"user-token":   {ID: "u1", Name: "Ada", Role: models.RoleUser, Status: models.StatusActive},
		"admin-token":  {ID: "a1", Name: "Root", Role: models.RoleAdmin, Status: models.StatusActive},
		"banned-token": {ID: "b1", Name: "Mallory", Role: models.RoleUser, Status: models.StatusBanned},
	}}
}

func echoUser(w http.ResponseWriter, r *http.Request, user *models.User) {
	id := ""
	if user != nil {
		id = user.ID
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": id})
}

func serve(h http.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRequireAuth(t *testing.T) {
	authn := NewAuthenticator(newFakeTokenAuth())
	h := authn.RequireAuth(echoUser)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic user-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"banned user", "Bearer banned-token", http.StatusForbidden},
		{"valid token", "Bearer user-token", http.StatusOK},
		{"case-insensitive scheme", "bearer user-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.header)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, rec.Code, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if body["success"] != (tt.status == http.StatusOK) {
				t.Fatalf("unexpected success flag in %v", body)
			}
		})
	}
}

func TestRequireAuthStoreFailureIs500(t *testing.T) {
	fake := newFakeTokenAuth()
	fake.err = errors.New("database is locked")
	rec := serve(NewAuthenticator(fake).RequireAuth(echoUser), "Bearer user-token")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Server error" {
		t.Fatalf("internal detail leaked: %v", body)
	}
}

func TestRequireAdmin(t *testing.T) {
	authn := NewAuthenticator(newFakeTokenAuth())
	h := authn.RequireAdmin(echoUser)

	if rec := serve(h, "Bearer user-token"); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", rec.Code)
	}
	if rec := serve(h, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}
	rec := serve(h, "Bearer admin-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["userId"] != "a1" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestOptionalAuth(t *testing.T) {
	fake := newFakeTokenAuth()
	h := NewAuthenticator(fake).OptionalAuth(echoUser)

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer nope", ""},
		{"Bearer banned-token", ""},
		{"Bearer user-token", "u1"},
	}
	for _, tt := range tests {
		rec := serve(h, tt.header)
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tt.header, rec.Code)
		}
		if body := decodeBody(t, rec); body["userId"] != tt.want {
			t.Fatalf("%q: expected user %q, got %v", tt.header, tt.want, body["userId"])
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	if got := clientIP(req); got != "192.0.2.7" {
		t.Fatalf("expected peer address, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}
