package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-extras/go-kit/must"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// DB wraps the database connection and exposes one repository per entity.
type DB struct {
	conn          *sql.DB
	Users         *UserRepository
	Movies        *MovieRepository
	Activity      *ActivityRepository
	Announcements *AnnouncementRepository
	Stats         *StatsRepository
}

// Config holds database configuration
type Config struct {
	DatabasePath string
}

// NewDB creates a new database connection and runs migrations
func NewDB(config Config) (*DB, error) {
	dbDir := filepath.Dir(config.DatabasePath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// foreign_keys must be in the DSN so every pooled connection gets it.
	connString := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=10000&_txlock=immediate",
		config.DatabasePath)

	conn, err := sql.Open("sqlite3", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(3)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(15 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA optimize",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma '%s': %w", pragma, err)
		}
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return newDB(conn), nil
}

func newDB(conn *sql.DB) *DB {
	return &DB{
		conn:          conn,
		Users:         NewUserRepository(conn),
		Movies:        NewMovieRepository(conn),
		Activity:      NewActivityRepository(conn),
		Announcements: NewAnnouncementRepository(conn),
		Stats:         NewStatsRepository(conn),
	}
}

// runMigrations runs database migrations using Goose
func runMigrations(db *sql.DB) error {
	log.Println("[database] Starting database migrations...")

	goose.SetBaseFS(must.Must(fs.Sub(embedMigrations, "migrations")))
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	currentVersion, err := goose.GetDBVersion(db)
	if err != nil {
		log.Printf("[database] Warning: could not get current DB version: %v", err)
		currentVersion = 0
	}
	log.Printf("[database] Current database version: %d", currentVersion)

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to verify migration version: %w", err)
	}
	log.Printf("[database] Database migrated to version: %d", newVersion)

	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='users'").Scan(&tableName)
	if err != nil {
		return fmt.Errorf("migration verification failed: users table does not exist: %w", err)
	}

	return nil
}

// DeleteUserCascade removes a user's movies, audit entries and read receipts,
// then the user, inside one transaction.
func (db *DB) DeleteUserCascade(ctx context.Context, userID string) (*CascadeResult, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cascade delete: %w", err)
	}
	defer tx.Rollback()

	result := &CascadeResult{}

	res, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("delete movies: %w", err)
	}
	result.Movies = rowsAffected(res)

	res, err = tx.ExecContext(ctx, `DELETE FROM activity_logs WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("delete activity logs: %w", err)
	}
	result.ActivityLogs = rowsAffected(res)

	if _, err := tx.ExecContext(ctx, `DELETE FROM announcement_views WHERE user_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("delete announcement views: %w", err)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if rowsAffected(res) == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cascade delete: %w", err)
	}
	return result, nil
}

// CascadeResult counts the dependent rows removed with a user.
type CascadeResult struct {
	Movies       int64
	ActivityLogs int64
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
