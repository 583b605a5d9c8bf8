package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"movietrack/models"
)

const userColumns = `id, email, name, password_hash, role, status, last_login, muted_types, mute_until, created_at, updated_at`

// UserRepository persists accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns a repository backed by db.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		role       string
		status     string
		lastLogin  sql.NullTime
		mutedTypes string
		muteUntil  sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &status,
		&lastLogin, &mutedTypes, &muteUntil, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Status = models.UserStatus(status)
	u.LastLogin = nullTimePtr(lastLogin)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	u.NotificationPreferences.MuteUntil = nullTimePtr(muteUntil)
	if err := json.Unmarshal([]byte(mutedTypes), &u.NotificationPreferences.MutedTypes); err != nil {
		return nil, fmt.Errorf("decode muted types: %w", err)
	}
	if u.NotificationPreferences.MutedTypes == nil {
		u.NotificationPreferences.MutedTypes = []models.AnnouncementType{}
	}
	return &u, nil
}

// Create inserts a user. A duplicate email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	muted, err := json.Marshal(nonNilTypes(u.NotificationPreferences.MutedTypes))
	if err != nil {
		return fmt.Errorf("encode muted types: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash, string(u.Role), string(u.Status),
		timeArg(u.LastLogin), string(muted), timeArg(u.NotificationPreferences.MuteUntil),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByID returns the user with id or ErrNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByEmail looks up a user by case-insensitive email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// UserQuery narrows an admin user listing.
type UserQuery struct {
	Search string
	Status models.UserStatus
	Role   models.Role
	Offset int
	Limit  int
}

// List returns users matching q with their movie counts, newest first, and the total match count.
func (r *UserRepository) List(ctx context.Context, q UserQuery) ([]models.UserSummary, int, error) {
	var (
		where []string
		args  []any
	)
	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, `(u.name LIKE ? ESCAPE '\' OR u.email LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(s) + "%"
		args = append(args, pattern, pattern)
	}
	if q.Status != "" {
		where = append(where, `u.status = ?`)
		args = append(args, string(q.Status))
	}
	if q.Role != "" {
		where = append(where, `u.role = ?`)
		args = append(args, string(q.Role))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT u.id, u.email, u.name, u.password_hash, u.role, u.status, u.last_login, u.muted_types, u.mute_until, u.created_at, u.updated_at,
		(SELECT COUNT(*) FROM movies m WHERE m.user_id = u.id)
		FROM users u` + clause + ` ORDER BY u.created_at DESC, u.rowid DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.UserSummary{}
	for rows.Next() {
		var count int
		u, err := scanUser(scanFunc(func(dest ...any) error {
			return rows.Scan(append(dest, &count)...)
		}))
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, models.UserSummary{User: *u, MovieCount: count})
	}
	return out, total, rows.Err()
}

// UpdateLastLogin stamps a successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), id)
}

// UpdateName changes the display name.
func (r *UserRepository) UpdateName(ctx context.Context, id, name string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET name = ?, updated_at = ? WHERE id = ?`, name, at.UTC(), id)
}

// UpdatePasswordHash stores a new password hash.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, at.UTC(), id)
}

// UpdateStatus sets the status of a non-admin account. Admin rows are left
// untouched and reported as ErrNotFound by the affected-row check.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status models.UserStatus, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET status = ?, updated_at = ? WHERE id = ? AND role <> 'admin'`, string(status), at.UTC(), id)
}

// UpdateRole changes the role. Promotion to admin also reactivates the account.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) error {
	if role == models.RoleAdmin {
		return r.exec(ctx, `UPDATE users SET role = 'admin', status = 'active', updated_at = ? WHERE id = ?`, at.UTC(), id)
	}
	return r.exec(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, string(role), at.UTC(), id)
}

// UpdateNotificationPreferences replaces the stored preferences.
func (r *UserRepository) UpdateNotificationPreferences(ctx context.Context, id string, prefs models.NotificationPreferences, at time.Time) error {
	muted, err := json.Marshal(nonNilTypes(prefs.MutedTypes))
	if err != nil {
		return fmt.Errorf("encode muted types: %w", err)
	}
	return r.exec(ctx, `UPDATE users SET muted_types = ?, mute_until = ?, updated_at = ? WHERE id = ?`,
		string(muted), timeArg(prefs.MuteUntil), at.UTC(), id)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

func nonNilTypes(in []models.AnnouncementType) []models.AnnouncementType {
	if in == nil {
		return []models.AnnouncementType{}
	}
	return in
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
