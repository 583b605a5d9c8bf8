package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"movietrack/models"
	moviesvc "movietrack/services/movies"
)

type movieService interface {
	List(ctx context.Context, owner *models.User, f models.MovieFilter, ip string) ([]models.Movie, error)
	Get(ctx context.Context, owner *models.User, id string) (*models.Movie, error)
	Create(ctx context.Context, owner *models.User, in models.MovieInput, ip string) (*models.Movie, error)
	Update(ctx context.Context, owner *models.User, id string, patch models.MoviePatch, ip string) (*models.Movie, error)
	Delete(ctx context.Context, owner *models.User, id string, ip string) error
	Stats(ctx context.Context, owner *models.User) (*models.MovieStats, error)
}

var _ movieService = (*moviesvc.Service)(nil)

// MoviesHandler serves the caller's own movie list under /api/movies.
type MoviesHandler struct {
	Service movieService
}

func NewMoviesHandler(s movieService) *MoviesHandler {
	return &MoviesHandler{Service: s}
}

func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request, user *models.User) {
	q := r.URL.Query()
	filter := models.MovieFilter{
		Status: models.MovieStatus(q.Get("status")),
		Search: q.Get("search"),
		Sort:   models.MovieSort(q.Get("sort")),
	}
	list, err := h.Service.List(r.Context(), user, filter, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "movies": list})
}

func (h *MoviesHandler) Stats(w http.ResponseWriter, r *http.Request, user *models.User) {
	stats, err := h.Service.Stats(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request, user *models.User) {
	movie, err := h.Service.Get(r.Context(), user, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movie": movie})
}

func (h *MoviesHandler) Create(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in models.MovieInput
	if !decodeJSON(w, r, &in) {
		return
	}
	movie, err := h.Service.Create(r.Context(), user, in, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"movie": movie})
}

func (h *MoviesHandler) Update(w http.ResponseWriter, r *http.Request, user *models.User) {
	var patch models.MoviePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	movie, err := h.Service.Update(r.Context(), user, mux.Vars(r)["id"], patch, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"movie": movie})
}

func (h *MoviesHandler) Delete(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := h.Service.Delete(r.Context(), user, mux.Vars(r)["id"], clientIP(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Movie removed"})
}
