package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"movietrack/internal/database/databasetest"
	"movietrack/internal/validation"
	"movietrack/models"
	"movietrack/services/activity"
	"movietrack/services/activity/mocks"
)

func TestRecorderPersistsEntriesNewestFirst(t *testing.T) {
	db := databasetest.Open(t)
	user := databasetest.CreateUser(t, db, "Ada", "ada@example.com", "secret1", models.RoleUser)

	base := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := activity.NewRecorder(db.Activity)
	rec.Record(models.ActivityLog{UserID: user.ID, UserName: user.Name, Action: models.ActionRegister, CreatedAt: base})
	rec.Record(models.ActivityLog{UserID: user.ID, UserName: user.Name, Action: models.ActionLogin, CreatedAt: base.Add(time.Minute)})
	rec.Log(user, models.ActionAddMovie, "Added Alien", "127.0.0.1")
	rec.Close()

	page, err := rec.Query(context.Background(), models.ActivityFilter{UserID: user.ID}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Logs, 3)
	assert.Equal(t, models.ActionAddMovie, page.Logs[0].Action)
	assert.Equal(t, "127.0.0.1", page.Logs[0].IPAddress)
	assert.Equal(t, models.ActionLogin, page.Logs[1].Action)
	assert.Equal(t, models.ActionRegister, page.Logs[2].Action)
	assert.NotEmpty(t, page.Logs[0].ID)
}

func TestRecorderQueryPaginatesAndFilters(t *testing.T) {
	db := databasetest.Open(t)
	user := databasetest.CreateUser(t, db, "Ada", "ada@example.com", "secret1", models.RoleUser)

	rec := activity.NewRecorder(db.Activity)
	for i := 0; i < 5; i++ {
		rec.Log(user, models.ActionLogin, "", "")
	}
	rec.Log(user, models.ActionLogout, "", "")
	rec.Close()

	page, err := rec.Query(context.Background(), models.ActivityFilter{Action: models.ActionLogin}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Logs, 2)

	page, err = rec.Query(context.Background(), models.ActivityFilter{}, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, 6, page.Total)
}

func TestRecorderQueryRejectsUnknownAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	rec := activity.NewRecorder(store)
	defer rec.Close()

	_, err := rec.Query(context.Background(), models.ActivityFilter{Action: "teleport"}, 1, 10)
	_, ok := validation.As(err)
	assert.True(t, ok)
}

func TestRecorderSwallowsWriteFailuresAfterRetrying(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("disk I/O error")).Times(3)

	rec := activity.NewRecorder(store, activity.WithRetry(3, 0))
	rec.Record(models.ActivityLog{UserID: "u1", Action: models.ActionLogin})
	rec.Close()
}

func TestRecorderRetriesTransientFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database is locked")),
		store.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, entry *models.ActivityLog) error {
			assert.Equal(t, models.ActionBanned, entry.Action)
			return nil
		}),
	)

	rec := activity.NewRecorder(store, activity.WithRetry(3, 0))
	rec.Record(models.ActivityLog{UserID: "u1", Action: models.ActionBanned})
	rec.Close()
}

func TestRecorderDropsAfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	rec := activity.NewRecorder(store)
	rec.Close()
	rec.Close()

	// No Insert expectation: the entry must be dropped.
	rec.Record(models.ActivityLog{UserID: "u1", Action: models.ActionLogin})
}

func TestRecorderLogIgnoresNilUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	rec := activity.NewRecorder(store)
	rec.Log(nil, models.ActionLogin, "", "")
	rec.Close()
}
