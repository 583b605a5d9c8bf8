package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"movietrack/internal/validation"
	"movietrack/models"
	adminsvc "movietrack/services/admin"
)

type adminService interface {
	Dashboard(ctx context.Context) (*adminsvc.Dashboard, error)
	ListUsers(ctx context.Context, q adminsvc.UserListQuery) (*adminsvc.UserPage, error)
	GetUser(ctx context.Context, id string) (*adminsvc.UserDetail, error)
	ActivityLogs(ctx context.Context, f models.ActivityFilter, page, limit int) (*models.ActivityPage, error)
	Stats(ctx context.Context, days int) (*adminsvc.Stats, error)
	Ban(ctx context.Context, actor *models.User, id, ip string) error
	Unban(ctx context.Context, actor *models.User, id, ip string) error
	Delete(ctx context.Context, actor *models.User, id, ip string) error
	BulkBan(ctx context.Context, actor *models.User, ids []string, ip string) (int, error)
	BulkUnban(ctx context.Context, actor *models.User, ids []string, ip string) (int, error)
	BulkDelete(ctx context.Context, actor *models.User, ids []string, ip string) (int, error)
	CreateAnnouncement(ctx context.Context, actor *models.User, in models.AnnouncementInput, ip string) (*models.Announcement, error)
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	GetAnnouncement(ctx context.Context, id string) (*models.Announcement, error)
	SetAnnouncementActive(ctx context.Context, id string, active bool) (*models.Announcement, error)
}

var _ adminService = (*adminsvc.Service)(nil)

// AdminHandler serves the /api/admin moderation endpoints. Every route is
// wrapped in Authenticator.RequireAdmin.
type AdminHandler struct {
	Service adminService
}

func NewAdminHandler(s adminService) *AdminHandler {
	return &AdminHandler{Service: s}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ *models.User) {
	dash, err := h.Service.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dashboard": dash})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request, _ *models.User) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	result, err := h.Service.ListUsers(r.Context(), adminsvc.UserListQuery{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
		Status: models.UserStatus(q.Get("status")),
		Role:   models.Role(q.Get("role")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users":      result.Users,
		"page":       result.Page,
		"limit":      result.Limit,
		"total":      result.Total,
		"totalPages": result.TotalPages,
	})
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request, _ *models.User) {
	detail, err := h.Service.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":           detail.User,
		"movies":         detail.Movies,
		"stats":          detail.Stats,
		"recentActivity": detail.RecentActivity,
	})
}

func (h *AdminHandler) ActivityLogs(w http.ResponseWriter, r *http.Request, _ *models.User) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := models.ActivityFilter{
		Action: models.ActivityAction(q.Get("action")),
		UserID: q.Get("userId"),
	}
	result, err := h.Service.ActivityLogs(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":       result.Logs,
		"page":       result.Page,
		"limit":      result.Limit,
		"total":      result.Total,
		"totalPages": result.TotalPages,
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request, _ *models.User) {
	days, err := queryInt(r, "days")
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.Service.Stats(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *AdminHandler) BanUser(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if err := h.Service.Ban(r.Context(), actor, mux.Vars(r)["id"], clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User banned successfully"})
}

func (h *AdminHandler) UnbanUser(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if err := h.Service.Unban(r.Context(), actor, mux.Vars(r)["id"], clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User unbanned successfully"})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request, actor *models.User) {
	if err := h.Service.Delete(r.Context(), actor, mux.Vars(r)["id"], clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User and associated data deleted successfully"})
}

func (h *AdminHandler) BulkBan(w http.ResponseWriter, r *http.Request, actor *models.User) {
	h.bulk(w, r, actor, h.Service.BulkBan, "banned")
}

func (h *AdminHandler) BulkUnban(w http.ResponseWriter, r *http.Request, actor *models.User) {
	h.bulk(w, r, actor, h.Service.BulkUnban, "unbanned")
}

func (h *AdminHandler) BulkDelete(w http.ResponseWriter, r *http.Request, actor *models.User) {
	h.bulk(w, r, actor, h.Service.BulkDelete, "deleted")
}

type bulkFunc func(ctx context.Context, actor *models.User, ids []string, ip string) (int, error)

func (h *AdminHandler) bulk(w http.ResponseWriter, r *http.Request, actor *models.User, op bulkFunc, verb string) {
	var req models.BulkUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	count, err := op(r.Context(), actor, req.UserIDs, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   count,
		"message": pluralUsers(count) + " " + verb,
	})
}

func (h *AdminHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request, _ *models.User) {
	list, err := h.Service.ListAnnouncements(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcements": list})
}

func (h *AdminHandler) GetAnnouncement(w http.ResponseWriter, r *http.Request, _ *models.User) {
	a, err := h.Service.GetAnnouncement(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcement": a})
}

func (h *AdminHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request, actor *models.User) {
	var in models.AnnouncementInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.Service.CreateAnnouncement(r.Context(), actor, in, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"announcement": a})
}

func (h *AdminHandler) SetAnnouncementActive(w http.ResponseWriter, r *http.Request, _ *models.User) {
	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(w, r, validation.New("isActive", "isActive is required"))
		return
	}
	a, err := h.Service.SetAnnouncementActive(r.Context(), mux.Vars(r)["id"], *req.IsActive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcement": a})
}

func pagination(r *http.Request) (int, int, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func pluralUsers(n int) string {
	if n == 1 {
		return "1 user"
	}
	return strconv.Itoa(n) + " users"
}
