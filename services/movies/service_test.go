package movies_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movietrack/internal/database"
	"movietrack/internal/database/databasetest"
	"movietrack/internal/validation"
	"movietrack/models"
	"movietrack/services/movies"
)

type fakeAudit struct {
	mu      sync.Mutex
	actions []models.ActivityAction
}

func (f *fakeAudit) Log(user *models.User, action models.ActivityAction, details, ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

type fixture struct {
	svc   *movies.Service
	db    *database.DB
	audit *fakeAudit
	alice *models.User
	bob   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := databasetest.Open(t)
	audit := &fakeAudit{}
	return &fixture{
		svc:   movies.NewService(db.Movies, audit),
		db:    db,
		audit: audit,
		alice: databasetest.CreateUser(t, db, "Alice", "alice@example.com", "secret1", models.RoleUser),
		bob:   databasetest.CreateUser(t, db, "Bob", "bob@example.com", "secret1", models.RoleUser),
	}
}

func intPtr(v int) *int { return &v }

func (f *fixture) add(t *testing.T, owner *models.User, in models.MovieInput) *models.Movie {
	t.Helper()
	m, err := f.svc.Create(context.Background(), owner, in, "")
	require.NoError(t, err)
	return m
}

func TestCreateAppliesDefaults(t *testing.T) {
	f := newFixture(t)

	m := f.add(t, f.alice, models.MovieInput{Title: "  Alien ", Status: models.MovieWatchlist})
	assert.Equal(t, "Alien", m.Title)
	assert.Equal(t, f.alice.ID, m.UserID)
	assert.Equal(t, time.Now().UTC().Year(), m.Year)
	assert.Equal(t, models.MediaMovie, m.MediaType)
	assert.Zero(t, m.Rating)
	assert.Nil(t, m.WatchedDate)
	assert.Equal(t, []string{}, m.Genres)

	stored, err := f.db.Movies.FindByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Title, stored.Title)
	assert.Equal(t, []models.ActivityAction{models.ActionAddMovie}, f.audit.actions)
}

func TestCreateWatchedSetsWatchedDate(t *testing.T) {
	f := newFixture(t)

	m := f.add(t, f.alice, models.MovieInput{Title: "Heat", Status: models.MovieWatched, Year: intPtr(1995), Rating: intPtr(5)})
	require.NotNil(t, m.WatchedDate)
	assert.Equal(t, 1995, m.Year)
	assert.Equal(t, 5, m.Rating)
}

func TestCreateDropsWatchedDateUnlessWatched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := models.NullableTime{Set: true, Valid: true, Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}

	m := f.add(t, f.alice, models.MovieInput{Title: "Heat", Status: models.MovieWatchlist, WatchedDate: date})
	assert.Nil(t, m.WatchedDate)
	stored, err := f.db.Movies.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.WatchedDate)

	m = f.add(t, f.alice, models.MovieInput{Title: "Alien", Status: models.MovieWatched, WatchedDate: date})
	require.NotNil(t, m.WatchedDate)
	assert.True(t, m.WatchedDate.Equal(date.Time))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice, models.MovieInput{Title: "   ", Status: "binged", Rating: intPtr(9)}, "")
	verr, ok := validation.As(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "status")
	assert.Contains(t, verr.Fields, "rating")

	_, err = f.svc.Create(ctx, f.alice, models.MovieInput{Title: "Heat", Status: models.MovieWatching}, "")
	verr, ok = validation.As(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "status")

	m, err := f.svc.Create(ctx, f.alice, models.MovieInput{Title: "Dark", Status: models.MovieWatching, MediaType: models.MediaSeries}, "")
	require.NoError(t, err)
	assert.Equal(t, models.MovieWatching, m.Status)
}

func TestCrossOwnerAccessFailsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.add(t, f.alice, models.MovieInput{Title: "Alien", Status: models.MovieWatchlist})

	_, err := f.svc.Get(ctx, f.bob, m.ID)
	assert.ErrorIs(t, err, movies.ErrForbidden)

	title := "Hijacked"
	_, err = f.svc.Update(ctx, f.bob, m.ID, models.MoviePatch{Title: &title}, "")
	assert.ErrorIs(t, err, movies.ErrForbidden)

	err = f.svc.Delete(ctx, f.bob, m.ID, "")
	assert.ErrorIs(t, err, movies.ErrForbidden)

	stored, err := f.db.Movies.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alien", stored.Title)
	assert.Equal(t, f.alice.ID, stored.UserID)
}

func TestMissingMovieIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, f.alice, "does-not-exist")
	assert.ErrorIs(t, err, movies.ErrMovieNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice, "does-not-exist", ""), movies.ErrMovieNotFound)
}

func TestWatchedRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.add(t, f.alice, models.MovieInput{Title: "Alien", Status: models.MovieWatchlist, Notes: "classic"})

	watched := models.MovieWatched
	updated, err := f.svc.Update(ctx, f.alice, m.ID, models.MoviePatch{Status: &watched}, "")
	require.NoError(t, err)
	assert.Equal(t, models.MovieWatched, updated.Status)
	require.NotNil(t, updated.WatchedDate)
	assert.Equal(t, "classic", updated.Notes)

	watchlist := models.MovieWatchlist
	updated, err = f.svc.Update(ctx, f.alice, m.ID, models.MoviePatch{Status: &watchlist}, "")
	require.NoError(t, err)
	assert.Equal(t, models.MovieWatchlist, updated.Status)
	assert.Nil(t, updated.WatchedDate)

	stored, err := f.db.Movies.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.WatchedDate)
	assert.Equal(t, "classic", stored.Notes)
	assert.Equal(t, m.Year, stored.Year)
}

func TestUpdateExplicitNullClearsWatchedDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.add(t, f.alice, models.MovieInput{Title: "Heat", Status: models.MovieWatched})
	require.NotNil(t, m.WatchedDate)

	updated, err := f.svc.Update(ctx, f.alice, m.ID, models.MoviePatch{WatchedDate: models.NullableTime{Set: true}}, "")
	require.NoError(t, err)
	assert.Nil(t, updated.WatchedDate)
	assert.Equal(t, models.MovieWatched, updated.Status)
}

func TestUpdateRejectsEmptyTitleAndWatchingMovie(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.add(t, f.alice, models.MovieInput{Title: "Heat", Status: models.MovieWatchlist})

	empty := " "
	_, err := f.svc.Update(ctx, f.alice, m.ID, models.MoviePatch{Title: &empty}, "")
	_, ok := validation.As(err)
	assert.True(t, ok)

	watching := models.MovieWatching
	_, err = f.svc.Update(ctx, f.alice, m.ID, models.MoviePatch{Status: &watching}, "")
	_, ok = validation.As(err)
	assert.True(t, ok)
}

func TestListFiltersSortsAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.alice, models.MovieInput{Title: "Zodiac", Status: models.MovieWatched, Year: intPtr(2007)})
	f.add(t, f.alice, models.MovieInput{Title: "Amélie", Status: models.MovieWatchlist, Year: intPtr(2001)})
	f.add(t, f.alice, models.MovieInput{Title: "Memento", Status: models.MovieWatchlist, Year: intPtr(2000)})
	f.add(t, f.bob, models.MovieInput{Title: "Bob's film", Status: models.MovieWatchlist})
	f.audit.actions = nil

	all, err := f.svc.List(ctx, f.alice, models.MovieFilter{Sort: models.SortTitle}, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Amélie", "Memento", "Zodiac"}, []string{all[0].Title, all[1].Title, all[2].Title})

	byYear, err := f.svc.List(ctx, f.alice, models.MovieFilter{Sort: models.SortYear}, "")
	require.NoError(t, err)
	assert.Equal(t, "Zodiac", byYear[0].Title)

	watchlist, err := f.svc.List(ctx, f.alice, models.MovieFilter{Status: models.MovieWatchlist}, "")
	require.NoError(t, err)
	assert.Len(t, watchlist, 2)

	found, err := f.svc.List(ctx, f.alice, models.MovieFilter{Search: "amelie"}, "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Amélie", found[0].Title)

	assert.Equal(t, []models.ActivityAction{models.ActionFilter, models.ActionSearch}, f.audit.actions)
}

func TestListRejectsUnknownStatusAndSort(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), f.alice, models.MovieFilter{Status: "lost", Sort: "random"}, "")
	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "status")
	assert.Contains(t, verr.Fields, "sort")
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.alice, models.MovieInput{Title: "A", Status: models.MovieWatched, Rating: intPtr(4)})
	f.add(t, f.alice, models.MovieInput{Title: "B", Status: models.MovieWatched, Rating: intPtr(5)})
	f.add(t, f.alice, models.MovieInput{Title: "C", Status: models.MovieWatched, Rating: intPtr(4)})
	f.add(t, f.alice, models.MovieInput{Title: "D", Status: models.MovieWatchlist})
	f.add(t, f.alice, models.MovieInput{Title: "E", Status: models.MovieWatching, MediaType: models.MediaSeries})

	stats, err := f.svc.Stats(context.Background(), f.alice)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.ByStatus[models.MovieWatched])
	assert.Equal(t, 1, stats.ByStatus[models.MovieWatchlist])
	assert.Equal(t, 1, stats.ByStatus[models.MovieWatching])
	assert.Equal(t, 1, stats.ByMediaType[models.MediaSeries])
	assert.Equal(t, 3, stats.RatedCount)
	assert.Equal(t, 4.3, stats.AverageRating)
}

func TestSummariseEmpty(t *testing.T) {
	stats := movies.Summarise(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AverageRating)
	assert.Equal(t, 0, stats.ByStatus[models.MovieWatched])
}
