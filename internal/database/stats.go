package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StatsRepository runs the read-only aggregations behind the admin dashboard.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository returns a repository backed by db.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Totals holds headline counts.
type Totals struct {
	Users        int `json:"users"`
	ActiveUsers  int `json:"activeUsers"`
	BannedUsers  int `json:"bannedUsers"`
	Admins       int `json:"admins"`
	Movies       int `json:"movies"`
	ActivityLogs int `json:"activityLogs"`
}

// DayCount is one bucket of a per-day series.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// KeyCount is one bucket of a group-by.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// TopUser ranks users by tracked titles.
type TopUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	MovieCount int    `json:"movieCount"`
}

// Totals returns headline counts.
func (r *StatsRepository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM users WHERE status = 'active'),
		(SELECT COUNT(*) FROM users WHERE status = 'banned'),
		(SELECT COUNT(*) FROM users WHERE role = 'admin'),
		(SELECT COUNT(*) FROM movies),
		(SELECT COUNT(*) FROM activity_logs)`).
		Scan(&t.Users, &t.ActiveUsers, &t.BannedUsers, &t.Admins, &t.Movies, &t.ActivityLogs)
	if err != nil {
		return Totals{}, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}

// CountUsersSince counts signups at or after since.
func (r *StatsRepository) CountUsersSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= ?`, since.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count recent users: %w", err)
	}
	return n, nil
}

// SignupsPerDay buckets signups by UTC day since the given time.
func (r *StatsRepository) SignupsPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	return r.perDay(ctx, "users", since)
}

// ActivityPerDay buckets audit entries by UTC day since the given time.
func (r *StatsRepository) ActivityPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	return r.perDay(ctx, "activity_logs", since)
}

func (r *StatsRepository) perDay(ctx context.Context, table string, since time.Time) ([]DayCount, error) {
	// Timestamps are stored in UTC, so the first ten characters are the day.
	rows, err := r.db.QueryContext(ctx, `SELECT substr(created_at, 1, 10) AS day, COUNT(*) FROM `+table+`
		WHERE created_at >= ? GROUP BY day ORDER BY day`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s per day: %w", table, err)
	}
	defer rows.Close()

	out := []DayCount{}
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ActionCounts groups audit entries by action since the given time.
func (r *StatsRepository) ActionCounts(ctx context.Context, since time.Time) ([]KeyCount, error) {
	return r.keyCounts(ctx, `SELECT action, COUNT(*) AS n FROM activity_logs WHERE created_at >= ? GROUP BY action ORDER BY n DESC, action`, since.UTC())
}

// MovieStatusCounts groups every tracked title by status.
func (r *StatsRepository) MovieStatusCounts(ctx context.Context) ([]KeyCount, error) {
	return r.keyCounts(ctx, `SELECT status, COUNT(*) AS n FROM movies GROUP BY status ORDER BY n DESC, status`)
}

func (r *StatsRepository) keyCounts(ctx context.Context, query string, args ...any) ([]KeyCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("group counts: %w", err)
	}
	defer rows.Close()

	out := []KeyCount{}
	for rows.Next() {
		var k KeyCount
		if err := rows.Scan(&k.Key, &k.Count); err != nil {
			return nil, fmt.Errorf("scan group count: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// TopUsersByMovies ranks users by number of tracked titles.
func (r *StatsRepository) TopUsersByMovies(ctx context.Context, limit int) ([]TopUser, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT u.id, u.name, u.email, COUNT(m.id) AS n
		FROM users u JOIN movies m ON m.user_id = u.id
		GROUP BY u.id ORDER BY n DESC, u.name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	out := []TopUser{}
	for rows.Next() {
		var u TopUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.MovieCount); err != nil {
			return nil, fmt.Errorf("scan top user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
