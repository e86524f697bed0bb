package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hikayahq/storefront/internal/domain"
	"github.com/hikayahq/storefront/internal/service"
	"github.com/hikayahq/storefront/pkg/httputil"
	"github.com/hikayahq/storefront/pkg/pagination"
	"github.com/hikayahq/storefront/pkg/validator"
)

// AdminHandler handles HTTP requests for the admin surface. The router
// guards every route here with RequireSession and RequireAdmin.
type AdminHandler struct {
	authService     *service.AuthService
	storyService    *service.StoryService
	purchaseService *service.PurchaseService
	logger          *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(
	authService *service.AuthService,
	storyService *service.StoryService,
	purchaseService *service.PurchaseService,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		authService:     authService,
		storyService:    storyService,
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// CreateStoryRequest is the JSON request body for adding a catalog item.
type CreateStoryRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Author      string `json:"author" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Content     string `json:"content" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=adventure romance mystery science-fiction children other"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

// CreateStory handles POST /api/v1/admin/stories
func (h *AdminHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<20) // stories carry full content

	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w, "not authenticated")
		return
	}

	var req CreateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	story, err := h.storyService.Create(r.Context(), user.ID, service.CreateStoryInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Content:     req.Content,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: story})
}

// DeleteStory handles DELETE /api/v1/admin/stories/{id}
func (h *AdminHandler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.storyService.Delete(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"message": "story deleted",
	}})
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	users, total, err := h.authService.ListUsers(r.Context(), params.Offset, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(users, total, params))
}

// ListPurchases handles GET /api/v1/admin/purchases. An optional user_id
// query parameter narrows the listing to one account.
func (h *AdminHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	var (
		purchases []domain.Purchase
		total     int
		err       error
	)
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		id, ok := httputil.ParseUUID(w, userID)
		if !ok {
			return
		}
		purchases, total, err = h.purchaseService.ListByUser(r.Context(), id.String(), params.Offset, params.PerPage)
	} else {
		purchases, total, err = h.purchaseService.ListAll(r.Context(), params.Offset, params.PerPage)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(purchases, total, params))
}

// Analytics handles GET /api/v1/admin/analytics
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	totals, err := h.purchaseService.Analytics(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: totals})
}
