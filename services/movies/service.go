// Package movies manages each user's personal list of films and series.
// Every operation is scoped to the authenticated owner.
package movies

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"movietrack/internal/database"
	"movietrack/internal/validation"
	"movietrack/models"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	// ErrForbidden is returned when the movie exists but has another owner.
	ErrForbidden = errors.New("not authorized")
)

// Store persists movies.
type Store interface {
	Create(ctx context.Context, m *models.Movie) error
	FindByID(ctx context.Context, id string) (*models.Movie, error)
	ListByOwner(ctx context.Context, ownerID string, f models.MovieFilter) ([]models.Movie, error)
	Update(ctx context.Context, m *models.Movie) error
	Delete(ctx context.Context, ownerID, id string) error
}

// AuditLogger receives best-effort audit entries.
type AuditLogger interface {
	Log(user *models.User, action models.ActivityAction, details, ip string)
}

var _ Store = (*database.MovieRepository)(nil)

// Service implements owner-scoped movie operations.
type Service struct {
	store Store
	audit AuditLogger
	now   func() time.Time
}

// NewService returns a movie service.
func NewService(store Store, audit AuditLogger) *Service {
	return &Service{store: store, audit: audit, now: time.Now}
}

// List returns the owner's movies. A search or status filter is audited.
func (s *Service) List(ctx context.Context, owner *models.User, f models.MovieFilter, ip string) ([]models.Movie, error) {
	f.Search = strings.TrimSpace(f.Search)
	verr := &validation.Error{}
	if f.Status != "" && !f.Status.Valid() {
		verr.Add("status", "Invalid status")
	}
	if f.Sort != "" && !f.Sort.Valid() {
		verr.Add("sort", "Invalid sort option")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	list, err := s.store.ListByOwner(ctx, owner.ID, f)
	if err != nil {
		return nil, err
	}

	switch {
	case f.Search != "":
		s.audit.Log(owner, models.ActionSearch, fmt.Sprintf("Searched for %q", f.Search), ip)
	case f.Status != "":
		s.audit.Log(owner, models.ActionFilter, fmt.Sprintf("Filtered by status %s", f.Status), ip)
	}
	return list, nil
}

// Get returns one of the owner's movies.
func (s *Service) Get(ctx context.Context, owner *models.User, id string) (*models.Movie, error) {
	m, err := s.store.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.UserID != owner.ID {
		return nil, ErrForbidden
	}
	return m, nil
}

// Create adds a movie owned by owner.
func (s *Service) Create(ctx context.Context, owner *models.User, in models.MovieInput, ip string) (*models.Movie, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.MediaType == "" {
		in.MediaType = models.MediaMovie
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := checkStatus(in.Status, in.MediaType); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m := &models.Movie{
		ID:          uuid.NewString(),
		UserID:      owner.ID,
		Title:       in.Title,
		Year:        now.Year(),
		MediaType:   in.MediaType,
		Status:      in.Status,
		Notes:       in.Notes,
		WatchedDate: in.WatchedDate.Ptr(),
		Poster:      strings.TrimSpace(in.Poster),
		Genres:      cleanList(in.Genres),
		Cast:        cleanList(in.Cast),
		Director:    strings.TrimSpace(in.Director),
		Plot:        in.Plot,
		IMDbID:      strings.TrimSpace(in.IMDbID),
		AddedAt:     now,
		UpdatedAt:   now,
	}
	if in.Year != nil {
		m.Year = *in.Year
	}
	if in.Rating != nil {
		m.Rating = *in.Rating
	}
	if in.Runtime != nil {
		m.Runtime = *in.Runtime
	}
	if in.TMDbID != nil {
		m.TMDbID = *in.TMDbID
	}
	switch {
	case m.Status != models.MovieWatched:
		m.WatchedDate = nil
	case m.WatchedDate == nil:
		m.WatchedDate = &now
	}

	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	s.audit.Log(owner, models.ActionAddMovie, fmt.Sprintf("Added %q", m.Title), ip)
	return m, nil
}

// Update applies patch to one of the owner's movies. Fields absent from the
// patch keep their stored values.
func (s *Service) Update(ctx context.Context, owner *models.User, id string, patch models.MoviePatch, ip string) (*models.Movie, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	wasWatched := m.Status == models.MovieWatched

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, validation.New("title", "title is required")
		}
		m.Title = title
	}
	if patch.Year != nil {
		m.Year = *patch.Year
	}
	if patch.MediaType != nil {
		m.MediaType = *patch.MediaType
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.Rating != nil {
		m.Rating = *patch.Rating
	}
	if patch.Notes != nil {
		m.Notes = *patch.Notes
	}
	if patch.WatchedDate.Set {
		m.WatchedDate = patch.WatchedDate.Ptr()
	}
	if patch.Poster != nil {
		m.Poster = strings.TrimSpace(*patch.Poster)
	}
	if patch.Genres != nil {
		m.Genres = cleanList(*patch.Genres)
	}
	if patch.Cast != nil {
		m.Cast = cleanList(*patch.Cast)
	}
	if patch.Runtime != nil {
		m.Runtime = *patch.Runtime
	}
	if patch.Director != nil {
		m.Director = strings.TrimSpace(*patch.Director)
	}
	if patch.Plot != nil {
		m.Plot = *patch.Plot
	}
	if patch.IMDbID != nil {
		m.IMDbID = strings.TrimSpace(*patch.IMDbID)
	}
	if patch.TMDbID != nil {
		m.TMDbID = *patch.TMDbID
	}

	if err := checkStatus(m.Status, m.MediaType); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	switch {
	case m.Status != models.MovieWatched:
		m.WatchedDate = nil
	case !wasWatched && m.WatchedDate == nil:
		m.WatchedDate = &now
	}
	m.UpdatedAt = now

	if err := s.store.Update(ctx, m); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	s.audit.Log(owner, models.ActionUpdateMovie, fmt.Sprintf("Updated %q", m.Title), ip)
	return m, nil
}

// Delete removes one of the owner's movies.
func (s *Service) Delete(ctx context.Context, owner *models.User, id string, ip string) error {
	m, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, owner.ID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrMovieNotFound
		}
		return err
	}
	s.audit.Log(owner, models.ActionDeleteMovie, fmt.Sprintf("Deleted %q", m.Title), ip)
	return nil
}

// Stats summarises the owner's list.
func (s *Service) Stats(ctx context.Context, owner *models.User) (*models.MovieStats, error) {
	list, err := s.store.ListByOwner(ctx, owner.ID, models.MovieFilter{})
	if err != nil {
		return nil, err
	}
	return Summarise(list), nil
}

// Summarise computes counts per status and media type and the average of
// non-zero ratings, rounded to one decimal.
func Summarise(list []models.Movie) *models.MovieStats {
	stats := &models.MovieStats{
		Total: len(list),
		ByStatus: map[models.MovieStatus]int{
			models.MovieWatched:   0,
			models.MovieWatchlist: 0,
			models.MovieWatching:  0,
		},
		ByMediaType: map[models.MediaType]int{
			models.MediaMovie:  0,
			models.MediaSeries: 0,
		},
	}
	sum := 0
	for _, m := range list {
		stats.ByStatus[m.Status]++
		stats.ByMediaType[m.MediaType]++
		if m.Rating > 0 {
			stats.RatedCount++
			sum += m.Rating
		}
	}
	if stats.RatedCount > 0 {
		stats.AverageRating = math.Round(float64(sum)/float64(stats.RatedCount)*10) / 10
	}
	return stats
}

func checkStatus(status models.MovieStatus, media models.MediaType) error {
	if status == models.MovieWatching && media != models.MediaSeries {
		return validation.New("status", "status watching is only allowed for series")
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
