package models

import "time"

// Role is the privilege level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus tracks whether an account may sign in.
type UserStatus string

const (
	StatusActive UserStatus = "active"
	StatusBanned UserStatus = "banned"
)

// NotificationPreferences controls which announcements a user sees.
// MuteUntil nil means the muted types stay muted until changed.
type NotificationPreferences struct {
	MutedTypes []AnnouncementType `json:"mutedTypes"`
	MuteUntil  *time.Time         `json:"muteUntil"`
}

// Mutes reports whether announcements of type t are hidden at the given time.
func (p NotificationPreferences) Mutes(t AnnouncementType, now time.Time) bool {
	if p.MuteUntil != nil && !p.MuteUntil.After(now) {
		return false
	}
	for _, muted := range p.MutedTypes {
		if muted == t {
			return true
		}
	}
	return false
}

// User models a MovieTrack account. PasswordHash is never serialised.
type User struct {
	ID                      string                  `json:"id"`
	Name                    string                  `json:"name"`
	Email                   string                  `json:"email"`
	PasswordHash            string                  `json:"-"`
	Role                    Role                    `json:"role"`
	Status                  UserStatus              `json:"status"`
	LastLogin               *time.Time              `json:"lastLogin"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
	CreatedAt               time.Time               `json:"createdAt"`
	UpdatedAt               time.Time               `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsBanned reports whether the account is banned.
func (u *User) IsBanned() bool {
	return u != nil && u.Status == StatusBanned
}

// UserSummary is the row shape used by admin listings.
type UserSummary struct {
	User
	MovieCount int `json:"movieCount"`
}
