package models

import "time"

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the body of PUT /api/auth/update-profile.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

// ChangePasswordRequest is the body of POST /api/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Name        string `json:"name" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// NotificationPreferencesRequest is the body of PUT /api/auth/notification-preferences.
type NotificationPreferencesRequest struct {
	MutedTypes []AnnouncementType `json:"mutedTypes" validate:"max=4,dive,oneof=info success warning error"`
	MuteUntil  *time.Time         `json:"muteUntil"`
}

// BulkUserRequest is the body of the admin bulk endpoints.
type BulkUserRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,max=500"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
