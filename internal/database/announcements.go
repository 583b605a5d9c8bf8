package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"movietrack/models"
)

// AnnouncementRepository persists broadcasts and their read receipts.
type AnnouncementRepository struct {
	db *sql.DB
}

// NewAnnouncementRepository returns a repository backed by db.
func NewAnnouncementRepository(db *sql.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts an announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	var createdBy any
	if a.CreatedBy != "" {
		createdBy = a.CreatedBy
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO announcements (id, title, message, type, is_active, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Message, string(a.Type), a.IsActive, createdBy, a.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

// FindByID returns one announcement with its view count.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	rows, err := r.list(ctx, `WHERE a.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// ListActive returns active announcements, newest first.
func (r *AnnouncementRepository) ListActive(ctx context.Context) ([]models.Announcement, error) {
	return r.list(ctx, `WHERE a.is_active = 1`)
}

// ListAll returns every announcement, newest first.
func (r *AnnouncementRepository) ListAll(ctx context.Context) ([]models.Announcement, error) {
	return r.list(ctx, ``)
}

func (r *AnnouncementRepository) list(ctx context.Context, where string, args ...any) ([]models.Announcement, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT a.id, a.title, a.message, a.type, a.is_active, COALESCE(a.created_by, ''), a.created_at,
		(SELECT COUNT(*) FROM announcement_views v WHERE v.announcement_id = a.id)
		FROM announcements a `+where+` ORDER BY a.created_at DESC, a.rowid DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	out := []models.Announcement{}
	for rows.Next() {
		var (
			a   models.Announcement
			typ string
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &typ, &a.IsActive, &a.CreatedBy, &a.CreatedAt, &a.ViewCount); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		a.Type = models.AnnouncementType(typ)
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetActive toggles the active flag.
func (r *AnnouncementRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE announcements SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

// AddView records a read receipt. A repeat view keeps the first timestamp.
func (r *AnnouncementRepository) AddView(ctx context.Context, announcementID, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO announcement_views (announcement_id, user_id, viewed_at) VALUES (?, ?, ?)
		ON CONFLICT (announcement_id, user_id) DO NOTHING`, announcementID, userID, at.UTC())
	if err != nil {
		return fmt.Errorf("insert announcement view: %w", err)
	}
	return nil
}

// Views returns the read receipts of an announcement, oldest first.
func (r *AnnouncementRepository) Views(ctx context.Context, announcementID string) ([]models.AnnouncementView, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, viewed_at FROM announcement_views WHERE announcement_id = ? ORDER BY viewed_at`, announcementID)
	if err != nil {
		return nil, fmt.Errorf("list announcement views: %w", err)
	}
	defer rows.Close()

	out := []models.AnnouncementView{}
	for rows.Next() {
		var v models.AnnouncementView
		if err := rows.Scan(&v.UserID, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("scan announcement view: %w", err)
		}
		v.ViewedAt = v.ViewedAt.UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

// ViewedBy returns the ids of announcements userID has read.
func (r *AnnouncementRepository) ViewedBy(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT announcement_id FROM announcement_views WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list viewed announcements: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan viewed announcement: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
