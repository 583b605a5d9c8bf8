package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"movietrack/internal/validation"
	"movietrack/services/admin"
	"movietrack/services/announcements"
	"movietrack/services/auth"
	"movietrack/services/movies"
)

const maxBodyBytes = 1 << 20

// writeJSON encodes fields with success=true.
func writeJSON(w http.ResponseWriter, status int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}

func validationFailed(w http.ResponseWriter, verr *validation.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "Validation failed",
		"errors":  verr.Fields,
	})
}

// writeError maps a service error to its HTTP status. Unknown errors are
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if verr, ok := validation.As(err); ok {
		validationFailed(w, verr)
		return
	}

	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		jsonError(w, "User already exists with this email", http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials):
		jsonError(w, "Invalid email or password", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrIncorrectPassword):
		jsonError(w, "Current password is incorrect", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken):
		jsonError(w, "Not authorized, token failed", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrAccountBanned):
		jsonError(w, "Your account has been banned", http.StatusForbidden)
	case errors.Is(err, auth.ErrUserNotFound):
		jsonError(w, "No account matches the supplied details", http.StatusNotFound)
	case errors.Is(err, auth.ErrAdminProtected):
		jsonError(w, "Admin accounts cannot be deleted", http.StatusBadRequest)
	case errors.Is(err, movies.ErrMovieNotFound):
		jsonError(w, "Movie not found", http.StatusNotFound)
	case errors.Is(err, movies.ErrForbidden):
		jsonError(w, "Not authorized", http.StatusUnauthorized)
	case errors.Is(err, admin.ErrUserNotFound):
		jsonError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, admin.ErrAdminProtected):
		jsonError(w, "Cannot modify an admin account", http.StatusBadRequest)
	case errors.Is(err, admin.ErrAnnouncementNotFound), errors.Is(err, announcements.ErrNotFound):
		jsonError(w, "Announcement not found", http.StatusNotFound)
	default:
		log.Printf("[http] %s %s failed: %v", r.Method, r.URL.Path, err)
		jsonError(w, "Server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		jsonError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.New(name, name+" must be a number")
	}
	return n, nil
}
