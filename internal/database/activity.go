package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"movietrack/models"
)

// ActivityRepository stores audit entries. Entries are only ever inserted or
// purged together with their subject user.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository returns a repository backed by db.
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Insert appends an entry for an existing user. The user check runs in the
// same statement as the insert, so an entry that reaches the store after its
// subject was deleted is discarded instead of left behind.
func (r *ActivityRepository) Insert(ctx context.Context, entry *models.ActivityLog) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO activity_logs (id, user_id, user_name, action, details, ip_address, created_at)
		SELECT ?, ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM users WHERE id = ?)`,
		entry.ID, entry.UserID, entry.UserName, string(entry.Action), entry.Details, entry.IPAddress, entry.CreatedAt.UTC(),
		entry.UserID)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// Query returns entries matching f, newest first, with the total match count.
// A non-positive limit returns every match.
func (r *ActivityRepository) Query(ctx context.Context, f models.ActivityFilter, offset, limit int) ([]models.ActivityLog, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Action != "" {
		where = append(where, `action = ?`)
		args = append(args, string(f.Action))
	}
	if f.UserID != "" {
		where = append(where, `user_id = ?`)
		args = append(args, f.UserID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_logs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, user_name, action, details, ip_address, created_at
		FROM activity_logs`+clause+` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	out := []models.ActivityLog{}
	for rows.Next() {
		var (
			entry  models.ActivityLog
			action string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.UserName, &action, &entry.Details, &entry.IPAddress, &entry.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan activity log: %w", err)
		}
		entry.Action = models.ActivityAction(action)
		entry.CreatedAt = entry.CreatedAt.UTC()
		out = append(out, entry)
	}
	return out, total, rows.Err()
}
