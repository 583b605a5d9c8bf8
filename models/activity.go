package models

import "time"

// ActivityAction enumerates audited operations.
type ActivityAction string

const (
	ActionLogin               ActivityAction = "login"
	ActionLogout              ActivityAction = "logout"
	ActionRegister            ActivityAction = "register"
	ActionAddMovie            ActivityAction = "add_movie"
	ActionUpdateMovie         ActivityAction = "update_movie"
	ActionDeleteMovie         ActivityAction = "delete_movie"
	ActionSearch              ActivityAction = "search"
	ActionFilter              ActivityAction = "filter"
	ActionPasswordChange      ActivityAction = "password_change"
	ActionPasswordReset       ActivityAction = "password_reset"
	ActionProfileUpdate       ActivityAction = "profile_update"
	ActionBanned              ActivityAction = "banned"
	ActionUnbanned            ActivityAction = "unbanned"
	ActionUserDeleted         ActivityAction = "user_deleted"
	ActionAnnouncementCreated ActivityAction = "announcement_created"
)

// ActivityActions lists every known action, in display order.
var ActivityActions = []ActivityAction{
	ActionLogin, ActionLogout, ActionRegister,
	ActionAddMovie, ActionUpdateMovie, ActionDeleteMovie,
	ActionSearch, ActionFilter,
	ActionPasswordChange, ActionPasswordReset, ActionProfileUpdate,
	ActionBanned, ActionUnbanned, ActionUserDeleted,
	ActionAnnouncementCreated,
}

// Valid reports whether a is a known action.
func (a ActivityAction) Valid() bool {
	for _, known := range ActivityActions {
		if a == known {
			return true
		}
	}
	return false
}

// ActivityLog is an immutable audit entry.
type ActivityLog struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	UserName  string         `json:"userName"`
	Action    ActivityAction `json:"action"`
	Details   string         `json:"details"`
	IPAddress string         `json:"ipAddress"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ActivityFilter narrows an audit query.
type ActivityFilter struct {
	Action ActivityAction
	UserID string
}

// ActivityPage is one page of audit entries, newest first.
type ActivityPage struct {
	Logs       []ActivityLog `json:"logs"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
}
