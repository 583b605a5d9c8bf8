package announcements

import (
	"context"
	"errors"
	"testing"
	"time"

	"movietrack/internal/database"
	"movietrack/models"
)

type fakeStore struct {
	items []models.Announcement
	views map[string]map[string]time.Time
}

func newFakeStore(items ...models.Announcement) *fakeStore {
	return &fakeStore{items: items, views: map[string]map[string]time.Time{}}
}

func (f *fakeStore) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			a := f.items[i]
			return &a, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) ListActive(ctx context.Context) ([]models.Announcement, error) {
	var out []models.Announcement
	for _, a := range f.items {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) AddView(ctx context.Context, announcementID, userID string, at time.Time) error {
	if f.views[announcementID] == nil {
		f.views[announcementID] = map[string]time.Time{}
	}
	if _, ok := f.views[announcementID][userID]; !ok {
		f.views[announcementID][userID] = at
	}
	return nil
}

func (f *fakeStore) ViewedBy(ctx context.Context, userID string) (map[string]bool, error) {
	out := map[string]bool{}
	for id, users := range f.views {
		if _, ok := users[userID]; ok {
			out[id] = true
		}
	}
	return out, nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	s := NewService(store)
	s.now = func() time.Time { return fixedNow }
	return s
}

func sampleAnnouncements() []models.Announcement {
	return []models.Announcement{
		{ID: "a1", Title: "Welcome", Type: models.AnnouncementInfo, IsActive: true},
		{ID: "a2", Title: "Outage", Type: models.AnnouncementWarning, IsActive: true},
		{ID: "a3", Title: "Old", Type: models.AnnouncementInfo, IsActive: false},
	}
}

func ids(list []models.Announcement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestListActiveAnonymous(t *testing.T) {
	svc := newTestService(newFakeStore(sampleAnnouncements()...))

	list, err := svc.ListActive(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if got := ids(list); len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Fatalf("unexpected announcements %v", got)
	}
}

func TestListActiveHonoursMutes(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	tests := []struct {
		name  string
		prefs models.NotificationPreferences
		want  []string
	}{
		{"no mutes", models.NotificationPreferences{}, []string{"a1", "a2"}},
		{"muted indefinitely", models.NotificationPreferences{MutedTypes: []models.AnnouncementType{models.AnnouncementInfo}}, []string{"a2"}},
		{"muted until future", models.NotificationPreferences{MutedTypes: []models.AnnouncementType{models.AnnouncementWarning}, MuteUntil: &future}, []string{"a1"}},
		{"mute expired", models.NotificationPreferences{MutedTypes: []models.AnnouncementType{models.AnnouncementInfo}, MuteUntil: &past}, []string{"a1", "a2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakeStore(sampleAnnouncements()...))
			user := &models.User{ID: "u1", NotificationPreferences: tt.prefs}

			list, err := svc.ListActive(context.Background(), user)
			if err != nil {
				t.Fatalf("ListActive: %v", err)
			}
			got := ids(list)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMarkViewed(t *testing.T) {
	store := newFakeStore(sampleAnnouncements()...)
	svc := newTestService(store)
	user := &models.User{ID: "u1"}
	ctx := context.Background()

	if err := svc.MarkViewed(ctx, user, "a1"); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if err := svc.MarkViewed(ctx, user, "a1"); err != nil {
		t.Fatalf("repeat MarkViewed: %v", err)
	}
	if n := len(store.views["a1"]); n != 1 {
		t.Fatalf("expected one receipt, got %d", n)
	}

	list, err := svc.ListActive(ctx, user)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if !list[0].Viewed || list[1].Viewed {
		t.Fatalf("unexpected viewed flags: %+v", list)
	}

	if err := svc.MarkViewed(ctx, user, "a3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive announcement: expected ErrNotFound, got %v", err)
	}
	if err := svc.MarkViewed(ctx, user, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing announcement: expected ErrNotFound, got %v", err)
	}
}
