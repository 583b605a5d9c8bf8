package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"movietrack/models"
	"movietrack/utils/filter"
)

const movieColumns = `id, user_id, title, year, media_type, status, rating, notes, watched_date, poster, genres, cast_members, runtime, director, plot, imdb_id, tmdb_id, added_at, updated_at`

var movieOrderBy = map[models.MovieSort]string{
	models.SortAddedAt: `added_at DESC, rowid DESC`,
	models.SortTitle:   `title COLLATE NOCASE ASC, added_at DESC`,
	models.SortYear:    `year DESC, added_at DESC`,
	models.SortRating:  `rating DESC, added_at DESC`,
}

// MovieRepository persists tracked titles.
type MovieRepository struct {
	db *sql.DB
}

// NewMovieRepository returns a repository backed by db.
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func scanMovie(row rowScanner) (*models.Movie, error) {
	var (
		m           models.Movie
		mediaType   string
		status      string
		watchedDate sql.NullTime
		genres      string
		cast        string
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.Title, &m.Year, &mediaType, &status, &m.Rating, &m.Notes,
		&watchedDate, &m.Poster, &genres, &cast, &m.Runtime, &m.Director, &m.Plot, &m.IMDbID, &m.TMDbID,
		&m.AddedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.MediaType = models.MediaType(mediaType)
	m.Status = models.MovieStatus(status)
	m.WatchedDate = nullTimePtr(watchedDate)
	m.AddedAt = m.AddedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	if err := json.Unmarshal([]byte(genres), &m.Genres); err != nil {
		return nil, fmt.Errorf("decode genres: %w", err)
	}
	if err := json.Unmarshal([]byte(cast), &m.Cast); err != nil {
		return nil, fmt.Errorf("decode cast: %w", err)
	}
	m.Genres = nonNilStrings(m.Genres)
	m.Cast = nonNilStrings(m.Cast)
	return &m, nil
}

func movieArgs(m *models.Movie) ([]any, error) {
	genres, err := json.Marshal(nonNilStrings(m.Genres))
	if err != nil {
		return nil, fmt.Errorf("encode genres: %w", err)
	}
	cast, err := json.Marshal(nonNilStrings(m.Cast))
	if err != nil {
		return nil, fmt.Errorf("encode cast: %w", err)
	}
	return []any{
		m.Title, filter.Fold(m.Title), m.Year, string(m.MediaType), string(m.Status), m.Rating, m.Notes,
		timeArg(m.WatchedDate), m.Poster, string(genres), string(cast), m.Runtime, m.Director, m.Plot,
		m.IMDbID, m.TMDbID, m.UpdatedAt.UTC(),
	}, nil
}

// Create inserts a movie.
func (r *MovieRepository) Create(ctx context.Context, m *models.Movie) error {
	args, err := movieArgs(m)
	if err != nil {
		return err
	}
	args = append([]any{m.ID, m.UserID}, append(args, m.AddedAt.UTC())...)
	_, err = r.db.ExecContext(ctx, `INSERT INTO movies (id, user_id, title, title_folded, year, media_type, status, rating, notes,
		watched_date, poster, genres, cast_members, runtime, director, plot, imdb_id, tmdb_id, updated_at, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

// FindByID returns a movie regardless of owner, or ErrNotFound.
func (r *MovieRepository) FindByID(ctx context.Context, id string) (*models.Movie, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	return m, nil
}

// ListByOwner returns the owner's movies matching f.
func (r *MovieRepository) ListByOwner(ctx context.Context, ownerID string, f models.MovieFilter) ([]models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE user_id = ?`
	args := []any{ownerID}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if folded := filter.Fold(f.Search); folded != "" {
		query += ` AND title_folded LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(folded)+"%")
	}
	order, ok := movieOrderBy[f.Sort]
	if !ok {
		order = movieOrderBy[models.SortAddedAt]
	}
	query += ` ORDER BY ` + order

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	out := []models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// Update replaces every mutable column of an owned movie. The owner is part of
// the predicate so a foreign row is never touched.
func (r *MovieRepository) Update(ctx context.Context, m *models.Movie) error {
	args, err := movieArgs(m)
	if err != nil {
		return err
	}
	args = append(args, m.ID, m.UserID)
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET title = ?, title_folded = ?, year = ?, media_type = ?, status = ?,
		rating = ?, notes = ?, watched_date = ?, poster = ?, genres = ?, cast_members = ?, runtime = ?, director = ?,
		plot = ?, imdb_id = ?, tmdb_id = ?, updated_at = ? WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an owned movie.
func (r *MovieRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
