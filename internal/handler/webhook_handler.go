package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"praxismail/internal/metrics"
	"praxismail/internal/postmark"
	"praxismail/internal/service"
)

// WebhookHandler receives provider callbacks
type WebhookHandler struct {
	trackingService *service.TrackingService
	secret          string
	metrics         *metrics.Metrics
}

// NewWebhookHandler creates a new webhook handler. With an empty secret
// the signature check is skipped.
func NewWebhookHandler(trackingService *service.TrackingService, secret string, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{
		trackingService: trackingService,
		secret:          secret,
		metrics:         m,
	}
}

// HandlePostmark handles POST /webhooks/postmark. One event per
// request; the signature covers the raw body and is checked before
// anything is parsed.
func (h *WebhookHandler) HandlePostmark(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Failed to read request body")
		return
	}

	if !postmark.VerifySignature(h.secret, body, r.Header.Get(postmark.SignatureHeader)) {
		h.metrics.IncWebhookRejected()
		WriteError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature mismatch")
		return
	}

	var event postmark.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	result, err := h.trackingService.Ingest(r.Context(), &event, body)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}
