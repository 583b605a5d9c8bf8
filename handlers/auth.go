package handlers

import (
	"context"
	"net/http"

	"movietrack/models"
	authsvc "movietrack/services/auth"
)

type authService interface {
	Signup(ctx context.Context, req models.SignupRequest, ip string) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest, ip string) (*models.AuthResponse, error)
	Logout(user *models.User, ip string)
	UpdateProfile(ctx context.Context, user *models.User, req models.UpdateProfileRequest, ip string) (*models.User, error)
	ChangePassword(ctx context.Context, user *models.User, req models.ChangePasswordRequest, ip string) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest, ip string) error
	DeleteAccount(ctx context.Context, user *models.User, ip string) error
	UpdateNotificationPreferences(ctx context.Context, user *models.User, req models.NotificationPreferencesRequest) (models.NotificationPreferences, error)
}

var _ authService = (*authsvc.Service)(nil)

// AuthHandler serves /api/auth account endpoints.
type AuthHandler struct {
	Service authService
}

func NewAuthHandler(s authService) *AuthHandler {
	return &AuthHandler{Service: s}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.Service.Signup(r.Context(), req, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": resp.Token, "user": resp.User})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.Service.Login(r.Context(), req, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": resp.Token, "user": resp.User})
}

// Logout only records the event. Tokens are discarded by the client.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, user *models.User) {
	h.Service.Logout(user, clientIP(r))
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, user *models.User) {
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.Service.UpdateProfile(r.Context(), user, req, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": updated})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req models.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), user, req, clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password changed successfully"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.ResetPassword(r.Context(), req, clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset successfully"})
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := h.Service.DeleteAccount(r.Context(), user, clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Account deleted successfully"})
}

func (h *AuthHandler) GetNotificationPreferences(w http.ResponseWriter, r *http.Request, user *models.User) {
	writeJSON(w, http.StatusOK, map[string]any{"preferences": user.NotificationPreferences})
}

func (h *AuthHandler) UpdateNotificationPreferences(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req models.NotificationPreferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	prefs, err := h.Service.UpdateNotificationPreferences(r.Context(), user, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}
