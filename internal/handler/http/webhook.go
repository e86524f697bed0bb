package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/hikayahq/storefront/internal/provider"
	"github.com/hikayahq/storefront/internal/service"
	"github.com/hikayahq/storefront/pkg/httputil"
)

// SignatureHeader is the HTTP header carrying the provider's signature.
const SignatureHeader = "Storefront-Signature"

// maxWebhookBody caps provider notification bodies at 256 KiB.
const maxWebhookBody = 256 << 10

// WebhookHandler receives asynchronous settlement notifications from the
// payment provider. It must read the raw body before any decoding: the
// signature covers the literal wire bytes, and verifying a re-serialized
// form would reject legitimate notifications.
type WebhookHandler struct {
	verifier *provider.SignatureVerifier
	service  *service.PurchaseService
	logger   *slog.Logger
}

// NewWebhookHandler creates a new webhook HTTP handler.
func NewWebhookHandler(verifier *provider.SignatureVerifier, svc *service.PurchaseService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		service:  svc,
		logger:   logger,
	}
}

// webhookEvent mirrors the provider's notification shape.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// Handle processes POST /api/v1/payments/webhook. Signature success always
// yields 200 {"received": true}, even for unknown handles or event types:
// the provider's retry loop stops only on 2xx, and retries cannot fix
// anything the signature check already accepted.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "could not read request body"},
		})
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get(SignatureHeader)); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature rejected",
			slog.String("remote_addr", r.RemoteAddr),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_SIGNATURE", Message: "webhook signature verification failed"},
		})
		return
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		// Authenticated but unparseable; acknowledge so the provider stops retrying.
		h.logger.ErrorContext(r.Context(), "failed to decode webhook payload",
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.service.HandleProviderEvent(r.Context(), evt.Type, evt.Data.Object.ID); err != nil {
		// Let the provider redeliver: settlement is idempotent under the
		// compare-and-set guard, so a retry is safe.
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
