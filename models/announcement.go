package models

import "time"

// AnnouncementType is the severity shown with an announcement.
type AnnouncementType string

const (
	AnnouncementInfo    AnnouncementType = "info"
	AnnouncementSuccess AnnouncementType = "success"
	AnnouncementWarning AnnouncementType = "warning"
	AnnouncementError   AnnouncementType = "error"
)

// Valid reports whether t is a known severity.
func (t AnnouncementType) Valid() bool {
	switch t {
	case AnnouncementInfo, AnnouncementSuccess, AnnouncementWarning, AnnouncementError:
		return true
	}
	return false
}

// AnnouncementView is a read receipt. A user has at most one per announcement.
type AnnouncementView struct {
	UserID   string    `json:"userId"`
	ViewedAt time.Time `json:"viewedAt"`
}

// Announcement is an operator broadcast.
type Announcement struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	Type      AnnouncementType   `json:"type"`
	IsActive  bool               `json:"isActive"`
	CreatedBy string             `json:"createdBy"`
	Views     []AnnouncementView `json:"views,omitempty"`
	ViewCount int                `json:"viewCount"`
	Viewed    bool               `json:"viewed"`
	CreatedAt time.Time          `json:"createdAt"`
}

// AnnouncementInput is the payload an admin submits.
type AnnouncementInput struct {
	Title   string           `json:"title" validate:"required,max=200"`
	Message string           `json:"message" validate:"required,max=5000"`
	Type    AnnouncementType `json:"type" validate:"omitempty,oneof=info success warning error"`
}
