package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"movietrack/models"
	announcementsvc "movietrack/services/announcements"
)

type announcementService interface {
	ListActive(ctx context.Context, user *models.User) ([]models.Announcement, error)
	MarkViewed(ctx context.Context, user *models.User, id string) error
}

var _ announcementService = (*announcementsvc.Service)(nil)

// AnnouncementsHandler serves active announcements to users.
type AnnouncementsHandler struct {
	Service announcementService
}

func NewAnnouncementsHandler(s announcementService) *AnnouncementsHandler {
	return &AnnouncementsHandler{Service: s}
}

// List works with or without a session; a signed-in caller gets their mutes applied.
func (h *AnnouncementsHandler) List(w http.ResponseWriter, r *http.Request, user *models.User) {
	list, err := h.Service.ListActive(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcements": list})
}

func (h *AnnouncementsHandler) MarkViewed(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := h.Service.MarkViewed(r.Context(), user, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Announcement marked as viewed"})
}
