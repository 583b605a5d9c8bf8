// Package app wires configuration, storage and services into a runnable
// MovieTrack instance.
package app

import (
	"fmt"
	"log"
	"net/http"

	"movietrack/config"
	"movietrack/handlers"
	"movietrack/internal/database"
	"movietrack/services/activity"
	"movietrack/services/admin"
	"movietrack/services/announcements"
	"movietrack/services/auth"
	"movietrack/services/movies"
	"movietrack/utils"
)

// App holds the long-lived components of a running instance.
type App struct {
	Settings      *config.Settings
	DB            *database.DB
	Audit         *activity.Recorder
	Auth          *auth.Service
	Movies        *movies.Service
	Admin         *admin.Service
	Announcements *announcements.Service
}

// New opens the database and builds every service.
func New(settings *config.Settings) (*App, error) {
	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	audit := activity.NewRecorder(db.Activity, activity.WithQueueSize(settings.Audit.QueueSize))
	tokens := auth.NewTokenIssuer(settings.Auth.JWTSecret, settings.Auth.TokenTTL)

	return &App{
		Settings: settings,
		DB:       db,
		Audit:    audit,
		Auth:     auth.NewService(db.Users, db, tokens, audit, settings.Auth.BcryptCost),
		Movies:   movies.NewService(db.Movies, audit),
		Admin: admin.NewService(admin.Deps{
			Users:         db.Users,
			Accounts:      db,
			Movies:        db.Movies,
			Stats:         db.Stats,
			Announcements: db.Announcements,
			Audit:         audit,
		}),
		Announcements: announcements.NewService(db.Announcements),
	}, nil
}

// Handler returns the HTTP API with CORS and the health check.
func (a *App) Handler() http.Handler {
	r := utils.NewRouter(a.Settings.CORS.AllowedOrigins)
	handlers.RegisterRoutes(r, handlers.Handlers{
		Authenticator: handlers.NewAuthenticator(a.Auth),
		Auth:          handlers.NewAuthHandler(a.Auth),
		Movies:        handlers.NewMoviesHandler(a.Movies),
		Admin:         handlers.NewAdminHandler(a.Admin),
		Announcements: handlers.NewAnnouncementsHandler(a.Announcements),
	})
	return r
}

// Close flushes pending audit entries and closes the database.
func (a *App) Close() error {
	a.Audit.Close()
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	log.Printf("[app] shut down cleanly")
	return nil
}
