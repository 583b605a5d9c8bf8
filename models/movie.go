package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MovieStatus is the position of a title in the owner's list.
type MovieStatus string

const (
	MovieWatched   MovieStatus = "watched"
	MovieWatchlist MovieStatus = "watchlist"
	MovieWatching  MovieStatus = "watching"
)

// Valid reports whether s is one of the known statuses.
func (s MovieStatus) Valid() bool {
	switch s {
	case MovieWatched, MovieWatchlist, MovieWatching:
		return true
	}
	return false
}

// MediaType distinguishes films from series.
type MediaType string

const (
	MediaMovie  MediaType = "movie"
	MediaSeries MediaType = "series"
)

// MovieSort selects the ordering of a movie listing.
type MovieSort string

const (
	SortAddedAt MovieSort = "addedAt"
	SortTitle   MovieSort = "title"
	SortYear    MovieSort = "year"
	SortRating  MovieSort = "rating"
)

// Valid reports whether s is a supported sort key.
func (s MovieSort) Valid() bool {
	switch s {
	case SortAddedAt, SortTitle, SortYear, SortRating:
		return true
	}
	return false
}

// Movie is an entry in a user's personal list.
type Movie struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Title       string      `json:"title"`
	Year        int         `json:"year"`
	MediaType   MediaType   `json:"mediaType"`
	Status      MovieStatus `json:"status"`
	Rating      int         `json:"rating"`
	Notes       string      `json:"notes"`
	WatchedDate *time.Time  `json:"watchedDate"`
	Poster      string      `json:"poster,omitempty"`
	Genres      []string    `json:"genres"`
	Cast        []string    `json:"cast"`
	Runtime     int         `json:"runtime,omitempty"`
	Director    string      `json:"director,omitempty"`
	Plot        string      `json:"plot,omitempty"`
	IMDbID      string      `json:"imdbId,omitempty"`
	TMDbID      int         `json:"tmdbId,omitempty"`
	AddedAt     time.Time   `json:"addedAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// MovieFilter narrows a listing. Zero values mean "no restriction".
type MovieFilter struct {
	Status MovieStatus
	Search string
	Sort   MovieSort
}

// MovieInput carries the fields accepted when adding a movie.
type MovieInput struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Year        *int         `json:"year" validate:"omitempty,min=1870,max=2100"`
	MediaType   MediaType    `json:"mediaType" validate:"omitempty,oneof=movie series"`
	Status      MovieStatus  `json:"status" validate:"required,oneof=watched watchlist watching"`
	Rating      *int         `json:"rating" validate:"omitempty,min=0,max=5"`
	Notes       string       `json:"notes" validate:"max=2000"`
	WatchedDate NullableTime `json:"watchedDate"`
	Poster      string       `json:"poster" validate:"max=1000"`
	Genres      []string     `json:"genres" validate:"max=20"`
	Cast        []string     `json:"cast" validate:"max=50"`
	Runtime     *int         `json:"runtime" validate:"omitempty,min=0,max=10000"`
	Director    string       `json:"director" validate:"max=200"`
	Plot        string       `json:"plot" validate:"max=5000"`
	IMDbID      string       `json:"imdbId" validate:"max=32"`
	TMDbID      *int         `json:"tmdbId" validate:"omitempty,min=0"`
}

// MoviePatch carries a partial update. Nil fields keep their stored value.
type MoviePatch struct {
	Title       *string      `json:"title" validate:"omitempty,max=200"`
	Year        *int         `json:"year" validate:"omitempty,min=1870,max=2100"`
	MediaType   *MediaType   `json:"mediaType" validate:"omitempty,oneof=movie series"`
	Status      *MovieStatus `json:"status" validate:"omitempty,oneof=watched watchlist watching"`
	Rating      *int         `json:"rating" validate:"omitempty,min=0,max=5"`
	Notes       *string      `json:"notes" validate:"omitempty,max=2000"`
	WatchedDate NullableTime `json:"watchedDate"`
	Poster      *string      `json:"poster" validate:"omitempty,max=1000"`
	Genres      *[]string    `json:"genres"`
	Cast        *[]string    `json:"cast"`
	Runtime     *int         `json:"runtime" validate:"omitempty,min=0,max=10000"`
	Director    *string      `json:"director" validate:"omitempty,max=200"`
	Plot        *string      `json:"plot" validate:"omitempty,max=5000"`
	IMDbID      *string      `json:"imdbId" validate:"omitempty,max=32"`
	TMDbID      *int         `json:"tmdbId" validate:"omitempty,min=0"`
}

// MovieStats summarises one owner's list.
type MovieStats struct {
	Total         int                 `json:"total"`
	ByStatus      map[MovieStatus]int `json:"byStatus"`
	ByMediaType   map[MediaType]int   `json:"byMediaType"`
	RatedCount    int                 `json:"ratedCount"`
	AverageRating float64             `json:"averageRating"`
}

// NullableTime distinguishes an absent JSON field from an explicit null.
type NullableTime struct {
	Set   bool
	Valid bool
	Time  time.Time
}

var nullableTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// UnmarshalJSON accepts null, RFC 3339 timestamps and plain dates.
func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		n.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		n.Valid = false
		return nil
	}
	for _, layout := range nullableTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			n.Valid = true
			n.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", raw)
}

// MarshalJSON writes null unless a value is present.
func (n NullableTime) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Time)
}

// Ptr returns the time as a pointer, nil when not valid.
func (n NullableTime) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
