package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hikayahq/storefront/internal/service"
	"github.com/hikayahq/storefront/pkg/httputil"
	"github.com/hikayahq/storefront/pkg/pagination"
)

// StoryHandler handles HTTP requests for the public catalog.
type StoryHandler struct {
	service *service.StoryService
	logger  *slog.Logger
}

// NewStoryHandler creates a new story HTTP handler.
func NewStoryHandler(svc *service.StoryService, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{service: svc, logger: logger}
}

// List handles GET /api/v1/stories
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	category := r.URL.Query().Get("category")

	stories, total, err := h.service.List(r.Context(), category, params.Offset, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(stories, total, params))
}

// Get handles GET /api/v1/stories/{id}
func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	story, err := h.service.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: story})
}
