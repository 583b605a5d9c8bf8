// Package announcements serves operator broadcasts to users and records read
// receipts.
package announcements

import (
	"context"
	"errors"
	"time"

	"movietrack/internal/database"
	"movietrack/models"
)

var ErrNotFound = errors.New("announcement not found")

// Store reads announcements and stores read receipts.
type Store interface {
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	ListActive(ctx context.Context) ([]models.Announcement, error)
	AddView(ctx context.Context, announcementID, userID string, at time.Time) error
	ViewedBy(ctx context.Context, userID string) (map[string]bool, error)
}

var _ Store = (*database.AnnouncementRepository)(nil)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ListActive returns active announcements, newest first. With a user, types
// the user has muted are left out and each item reports whether it was seen.
func (s *Service) ListActive(ctx context.Context, user *models.User) ([]models.Announcement, error) {
	list, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return list, nil
	}

	viewed, err := s.store.ViewedBy(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.Announcement, 0, len(list))
	for _, a := range list {
		if user.NotificationPreferences.Mutes(a.Type, now) {
			continue
		}
		a.Viewed = viewed[a.ID]
		out = append(out, a)
	}
	return out, nil
}

// MarkViewed records that user has seen the announcement. Repeat calls are no-ops.
func (s *Service) MarkViewed(ctx context.Context, user *models.User, id string) error {
	a, err := s.store.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !a.IsActive {
		return ErrNotFound
	}
	return s.store.AddView(ctx, id, user.ID, s.now().UTC())
}
