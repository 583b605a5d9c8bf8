package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Authenticator *Authenticator
	Auth          *AuthHandler
	Movies        *MoviesHandler
	Admin         *AdminHandler
	Announcements *AnnouncementsHandler
}

// RegisterRoutes mounts the /api tree on r.
func RegisterRoutes(r *mux.Router, h Handlers) {
	authn := h.Authenticator
	api := r.PathPrefix("/api").Subrouter()

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/signup", h.Auth.Signup).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	authRoutes.HandleFunc("/reset-password", h.Auth.ResetPassword).Methods(http.MethodPost)
	authRoutes.HandleFunc("/logout", authn.RequireAuth(h.Auth.Logout)).Methods(http.MethodPost)
	authRoutes.HandleFunc("/me", authn.RequireAuth(h.Auth.Me)).Methods(http.MethodGet)
	authRoutes.HandleFunc("/update-profile", authn.RequireAuth(h.Auth.UpdateProfile)).Methods(http.MethodPut)
	authRoutes.HandleFunc("/change-password", authn.RequireAuth(h.Auth.ChangePassword)).Methods(http.MethodPost)
	authRoutes.HandleFunc("/delete-account", authn.RequireAuth(h.Auth.DeleteAccount)).Methods(http.MethodDelete)
	authRoutes.HandleFunc("/notification-preferences", authn.RequireAuth(h.Auth.GetNotificationPreferences)).Methods(http.MethodGet)
	authRoutes.HandleFunc("/notification-preferences", authn.RequireAuth(h.Auth.UpdateNotificationPreferences)).Methods(http.MethodPut)
	authRoutes.HandleFunc("/announcements", authn.OptionalAuth(h.Announcements.List)).Methods(http.MethodGet)
	authRoutes.HandleFunc("/announcements/{id}/view", authn.RequireAuth(h.Announcements.MarkViewed)).Methods(http.MethodPost)

	movieRoutes := api.PathPrefix("/movies").Subrouter()
	// The collection answers with and without a trailing slash. StrictSlash
	// would redirect instead, and a redirected POST arrives as a GET.
	for _, root := range []string{"", "/"} {
		movieRoutes.HandleFunc(root, authn.RequireAuth(h.Movies.List)).Methods(http.MethodGet)
		movieRoutes.HandleFunc(root, authn.RequireAuth(h.Movies.Create)).Methods(http.MethodPost)
	}
	movieRoutes.HandleFunc("/stats", authn.RequireAuth(h.Movies.Stats)).Methods(http.MethodGet)
	movieRoutes.HandleFunc("/{id}", authn.RequireAuth(h.Movies.Get)).Methods(http.MethodGet)
	movieRoutes.HandleFunc("/{id}", authn.RequireAuth(h.Movies.Update)).Methods(http.MethodPut)
	movieRoutes.HandleFunc("/{id}", authn.RequireAuth(h.Movies.Delete)).Methods(http.MethodDelete)

	adminRoutes := api.PathPrefix("/admin").Subrouter()
	adminRoutes.HandleFunc("/dashboard", authn.RequireAdmin(h.Admin.Dashboard)).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/stats", authn.RequireAdmin(h.Admin.Stats)).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/activity-logs", authn.RequireAdmin(h.Admin.ActivityLogs)).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/users", authn.RequireAdmin(h.Admin.ListUsers)).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/users/bulk-ban", authn.RequireAdmin(h.Admin.BulkBan)).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/users/bulk-unban", authn.RequireAdmin(h.Admin.BulkUnban)).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/users/bulk-delete", authn.RequireAdmin(h.Admin.BulkDelete)).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/users/{id}", authn.RequireAdmin(h.Admin.GetUser)).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/users/{id}", authn.RequireAdmin(h.Admin.DeleteUser)).Methods(http.MethodDelete)
	adminRoutes.HandleFunc("/users/{id}/ban", authn.RequireAdmin(h.Admin.BanUser)).Methods(http.MethodPut)
	adminRoutes.HandleFunc("/users/{id}/unban", authn.RequireAdmin(h.Admin.UnbanUser)).Methods(http.MethodPut)
	adminRoutes.HandleFunc("/announcements", authn.RequireAdmin(h.Admin.ListAnnouncements)).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/announcements", authn.RequireAdmin(h.Admin.CreateAnnouncement)).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/announcements/{id}", authn.RequireAdmin(h.Admin.GetAnnouncement)).Methods(http.MethodGet)
	adminRoutes.HandleFunc("/announcements/{id}/active", authn.RequireAdmin(h.Admin.SetAnnouncementActive)).Methods(http.MethodPut)
}
