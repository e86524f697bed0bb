package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hikayahq/storefront/internal/service"
	"github.com/hikayahq/storefront/pkg/httputil"
	"github.com/hikayahq/storefront/pkg/pagination"
	"github.com/hikayahq/storefront/pkg/validator"
)

// PurchaseHandler handles HTTP requests for purchases and the library.
type PurchaseHandler struct {
	service *service.PurchaseService
	logger  *slog.Logger
}

// NewPurchaseHandler creates a new purchase HTTP handler.
func NewPurchaseHandler(svc *service.PurchaseService, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{service: svc, logger: logger}
}

// CreateIntentRequest is the JSON request body for opening a purchase.
type CreateIntentRequest struct {
	StoryID string `json:"story_id" validate:"required,uuid"`
}

// CreateIntentResponse carries the pending purchase and the provider secret
// the client needs to confirm the charge.
type CreateIntentResponse struct {
	PurchaseID        string `json:"purchase_id"`
	ProviderPaymentID string `json:"provider_payment_id"`
	ClientSecret      string `json:"client_secret"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
}

// CreateIntent handles POST /api/v1/payments/create-intent
func (h *PurchaseHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w, "not authenticated")
		return
	}

	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.CreateIntent(r.Context(), user.ID, req.StoryID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CreateIntentResponse{
		PurchaseID:        result.Purchase.ID,
		ProviderPaymentID: result.Purchase.ProviderPaymentID,
		ClientSecret:      result.ClientSecret,
		Amount:            result.Purchase.Amount,
		Currency:          result.Purchase.Currency,
		Status:            result.Purchase.Status,
	}})
}

// Library handles GET /api/v1/users/me/library
func (h *PurchaseHandler) Library(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w, "not authenticated")
		return
	}

	params := pagination.FromRequest(r)
	entries, total, err := h.service.Library(r.Context(), user.ID, params.Offset, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(entries, total, params))
}
