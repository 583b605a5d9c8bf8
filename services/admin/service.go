// Package admin implements user moderation, dashboard reads and announcement
// management for administrators.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"movietrack/internal/database"
	"movietrack/internal/validation"
	"movietrack/models"
	"movietrack/services/movies"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrAdminProtected       = errors.New("cannot modify an admin account")
	ErrAnnouncementNotFound = errors.New("announcement not found")
)

const (
	defaultUserPageSize = 20
	maxUserPageSize     = 100
	recentItems         = 10
	userDetailLogs      = 20
	topUsers            = 10
	defaultStatsDays    = 30
	maxStatsDays        = 365
)

// UserStore is the user persistence moderation needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, q database.UserQuery) ([]models.UserSummary, int, error)
	UpdateStatus(ctx context.Context, id string, status models.UserStatus, at time.Time) error
}

// AccountDeleter removes a user together with everything they own.
type AccountDeleter interface {
	DeleteUserCascade(ctx context.Context, userID string) (*database.CascadeResult, error)
}

// MovieLister reads a user's movies.
type MovieLister interface {
	ListByOwner(ctx context.Context, ownerID string, f models.MovieFilter) ([]models.Movie, error)
}

// StatsSource runs the dashboard aggregations.
type StatsSource interface {
	Totals(ctx context.Context) (database.Totals, error)
	CountUsersSince(ctx context.Context, since time.Time) (int, error)
	SignupsPerDay(ctx context.Context, since time.Time) ([]database.DayCount, error)
	ActivityPerDay(ctx context.Context, since time.Time) ([]database.DayCount, error)
	ActionCounts(ctx context.Context, since time.Time) ([]database.KeyCount, error)
	MovieStatusCounts(ctx context.Context) ([]database.KeyCount, error)
	TopUsersByMovies(ctx context.Context, limit int) ([]database.TopUser, error)
}

// AnnouncementStore persists broadcasts.
type AnnouncementStore interface {
	Create(ctx context.Context, a *models.Announcement) error
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	ListAll(ctx context.Context) ([]models.Announcement, error)
	Views(ctx context.Context, announcementID string) ([]models.AnnouncementView, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// AuditLog appends and reads audit entries.
type AuditLog interface {
	Log(user *models.User, action models.ActivityAction, details, ip string)
	Query(ctx context.Context, f models.ActivityFilter, page, limit int) (*models.ActivityPage, error)
}

var (
	_ UserStore         = (*database.UserRepository)(nil)
	_ AccountDeleter    = (*database.DB)(nil)
	_ MovieLister       = (*database.MovieRepository)(nil)
	_ StatsSource       = (*database.StatsRepository)(nil)
	_ AnnouncementStore = (*database.AnnouncementRepository)(nil)
)

// Deps groups the collaborators of Service.
type Deps struct {
	Users         UserStore
	Accounts      AccountDeleter
	Movies        MovieLister
	Stats         StatsSource
	Announcements AnnouncementStore
	Audit         AuditLog
}

// Service implements the admin operations.
type Service struct {
	users         UserStore
	accounts      AccountDeleter
	movies        MovieLister
	stats         StatsSource
	announcements AnnouncementStore
	audit         AuditLog
	now           func() time.Time
}

// NewService returns an admin service.
func NewService(deps Deps) *Service {
	return &Service{
		users:         deps.Users,
		accounts:      deps.Accounts,
		movies:        deps.Movies,
		stats:         deps.Stats,
		announcements: deps.Announcements,
		audit:         deps.Audit,
		now:           time.Now,
	}
}

// Dashboard is the admin landing summary.
type Dashboard struct {
	Totals         database.Totals      `json:"totals"`
	NewUsersWeek   int                  `json:"newUsersLast7Days"`
	RecentUsers    []models.UserSummary `json:"recentUsers"`
	RecentActivity []models.ActivityLog `json:"recentActivity"`
}

// UserDetail is everything an admin sees about one account.
type UserDetail struct {
	User           *models.User         `json:"user"`
	Movies         []models.Movie       `json:"movies"`
	Stats          *models.MovieStats   `json:"stats"`
	RecentActivity []models.ActivityLog `json:"recentActivity"`
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users      []models.UserSummary `json:"users"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"totalPages"`
}

// UserListQuery narrows ListUsers.
type UserListQuery struct {
	Page   int
	Limit  int
	Search string
	Status models.UserStatus
	Role   models.Role
}

// Stats holds the time-series and group-by reads for the stats page.
type Stats struct {
	Days           int                 `json:"days"`
	SignupsPerDay  []database.DayCount `json:"signupsPerDay"`
	ActivityPerDay []database.DayCount `json:"activityPerDay"`
	ActionCounts   []database.KeyCount `json:"actionCounts"`
	TopUsers       []database.TopUser  `json:"topUsers"`
	MovieStatuses  []database.KeyCount `json:"movieStatuses"`
}

// Dashboard returns headline counts and the most recent users and entries.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	totals, err := s.stats.Totals(ctx)
	if err != nil {
		return nil, err
	}
	weekAgo := s.now().UTC().AddDate(0, 0, -7)
	newUsers, err := s.stats.CountUsersSince(ctx, weekAgo)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.users.List(ctx, database.UserQuery{Limit: recentItems})
	if err != nil {
		return nil, err
	}
	logs, err := s.audit.Query(ctx, models.ActivityFilter{}, 1, recentItems)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Totals:         totals,
		NewUsersWeek:   newUsers,
		RecentUsers:    recent,
		RecentActivity: logs.Logs,
	}, nil
}

// ListUsers returns one page of users with their movie counts.
func (s *Service) ListUsers(ctx context.Context, q UserListQuery) (*UserPage, error) {
	verr := &validation.Error{}
	switch q.Status {
	case "", models.StatusActive, models.StatusBanned:
	default:
		verr.Add("status", "Invalid status")
	}
	switch q.Role {
	case "", models.RoleUser, models.RoleAdmin:
	default:
		verr.Add("role", "Invalid role")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultUserPageSize
	}
	if limit > maxUserPageSize {
		limit = maxUserPageSize
	}

	users, total, err := s.users.List(ctx, database.UserQuery{
		Search: strings.TrimSpace(q.Search),
		Status: q.Status,
		Role:   q.Role,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Users:      users,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// GetUser returns an account with its movies, movie stats and recent entries.
func (s *Service) GetUser(ctx context.Context, id string) (*UserDetail, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := s.movies.ListByOwner(ctx, id, models.MovieFilter{})
	if err != nil {
		return nil, err
	}
	logs, err := s.audit.Query(ctx, models.ActivityFilter{UserID: id}, 1, userDetailLogs)
	if err != nil {
		return nil, err
	}
	return &UserDetail{
		User:           user,
		Movies:         list,
		Stats:          movies.Summarise(list),
		RecentActivity: logs.Logs,
	}, nil
}

// ActivityLogs returns one page of the audit log.
func (s *Service) ActivityLogs(ctx context.Context, f models.ActivityFilter, page, limit int) (*models.ActivityPage, error) {
	return s.audit.Query(ctx, f, page, limit)
}

// Stats aggregates the last days days. Out of range values are clamped.
func (s *Service) Stats(ctx context.Context, days int) (*Stats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	if days > maxStatsDays {
		days = maxStatsDays
	}
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	out := &Stats{Days: days}
	var err error
	if out.SignupsPerDay, err = s.stats.SignupsPerDay(ctx, since); err != nil {
		return nil, err
	}
	if out.ActivityPerDay, err = s.stats.ActivityPerDay(ctx, since); err != nil {
		return nil, err
	}
	if out.ActionCounts, err = s.stats.ActionCounts(ctx, since); err != nil {
		return nil, err
	}
	if out.TopUsers, err = s.stats.TopUsersByMovies(ctx, topUsers); err != nil {
		return nil, err
	}
	if out.MovieStatuses, err = s.stats.MovieStatusCounts(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// Ban moves a non-admin account to banned.
func (s *Service) Ban(ctx context.Context, actor *models.User, id, ip string) error {
	return s.setStatus(ctx, actor, id, models.StatusBanned, ip)
}

// Unban moves an account back to active. Unbanning an active account succeeds.
func (s *Service) Unban(ctx context.Context, actor *models.User, id, ip string) error {
	return s.setStatus(ctx, actor, id, models.StatusActive, ip)
}

// Delete removes a non-admin account with its movies and audit history.
func (s *Service) Delete(ctx context.Context, actor *models.User, id, ip string) error {
	target, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return ErrAdminProtected
	}
	result, err := s.accounts.DeleteUserCascade(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	log.Printf("[admin] %s deleted user id=%s movies=%d logs=%d", actor.ID, id, result.Movies, result.ActivityLogs)
	s.audit.Log(actor, models.ActionUserDeleted, fmt.Sprintf("Deleted user %s (%s)", target.Name, target.Email), ip)
	return nil
}

// BulkBan bans every eligible id and returns how many were banned.
func (s *Service) BulkBan(ctx context.Context, actor *models.User, ids []string, ip string) (int, error) {
	return s.bulk(ctx, ids, func(id string) error { return s.Ban(ctx, actor, id, ip) })
}

// BulkUnban unbans every eligible id and returns how many were unbanned.
func (s *Service) BulkUnban(ctx context.Context, actor *models.User, ids []string, ip string) (int, error) {
	return s.bulk(ctx, ids, func(id string) error { return s.Unban(ctx, actor, id, ip) })
}

// BulkDelete deletes every eligible id and returns how many were deleted.
func (s *Service) BulkDelete(ctx context.Context, actor *models.User, ids []string, ip string) (int, error) {
	return s.bulk(ctx, ids, func(id string) error { return s.Delete(ctx, actor, id, ip) })
}

// bulk applies op to each distinct id. Missing and admin ids are skipped; a
// store failure stops the batch and reports what was done so far.
func (s *Service) bulk(ctx context.Context, ids []string, op func(id string) error) (int, error) {
	if err := validation.Struct(models.BulkUserRequest{UserIDs: ids}); err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(ids))
	count := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if err := ctx.Err(); err != nil {
			return count, err
		}
		err := op(id)
		switch {
		case err == nil:
			count++
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrAdminProtected):
		default:
			return count, err
		}
	}
	return count, nil
}

func (s *Service) setStatus(ctx context.Context, actor *models.User, id string, status models.UserStatus, ip string) error {
	target, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return ErrAdminProtected
	}
	err = s.users.UpdateStatus(ctx, id, status, s.now().UTC())
	if errors.Is(err, database.ErrNotFound) {
		// Deleted or promoted since the lookup.
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}

	action, verb := models.ActionBanned, "Banned"
	if status == models.StatusActive {
		action, verb = models.ActionUnbanned, "Unbanned"
	}
	s.audit.Log(actor, action, fmt.Sprintf("%s user %s (%s)", verb, target.Name, target.Email), ip)
	return nil
}

func (s *Service) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateAnnouncement publishes an active announcement authored by actor.
func (s *Service) CreateAnnouncement(ctx context.Context, actor *models.User, in models.AnnouncementInput, ip string) (*models.Announcement, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Type == "" {
		in.Type = models.AnnouncementInfo
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	a := &models.Announcement{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		IsActive:  true,
		CreatedBy: actor.ID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return nil, err
	}
	s.audit.Log(actor, models.ActionAnnouncementCreated, fmt.Sprintf("Created announcement %q", a.Title), ip)
	return a, nil
}

// ListAnnouncements returns every announcement with its view count.
func (s *Service) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	return s.announcements.ListAll(ctx)
}

// GetAnnouncement returns one announcement with its read receipts.
func (s *Service) GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error) {
	a, err := s.announcements.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAnnouncementNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Views, err = s.announcements.Views(ctx, id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SetAnnouncementActive shows or hides an announcement.
func (s *Service) SetAnnouncementActive(ctx context.Context, id string, active bool) (*models.Announcement, error) {
	err := s.announcements.SetActive(ctx, id, active)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAnnouncementNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.announcements.FindByID(ctx, id)
}
