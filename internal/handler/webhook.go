package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/wanderai/travel-gateway/internal/apperr"
	"github.com/wanderai/travel-gateway/internal/model"
	"github.com/wanderai/travel-gateway/internal/webhook"
	"github.com/wanderai/travel-gateway/pkg/logger"
)

const maxWebhookBody = 1 << 20 // 1MB

// WebhookHandler handles the webhook ingestion endpoint.
type WebhookHandler struct {
	authenticator *webhook.Authenticator
	processor     *webhook.Processor
	logger        *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(auth *webhook.Authenticator, proc *webhook.Processor, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		authenticator: auth,
		processor:     proc,
		logger:        log,
	}
}

// Handle handles POST /api/v1/webhook. The signature is verified over the raw
// body bytes before any JSON decoding touches them.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, apperr.KindInvalidInput, "could not read request body")
		return
	}

	signatureValid := h.authenticator.Verify(rawBody, r.Header.Get(webhook.SignatureHeader))

	var payload model.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		// Authentication is decided first even for unparseable bodies.
		if !signatureValid {
			writeError(w, http.StatusUnauthorized, apperr.KindAuthFailure, "invalid webhook signature")
			return
		}
		writeError(w, http.StatusBadRequest, apperr.KindInvalidInput, "malformed JSON payload")
		return
	}

	resp, err := h.processor.Handle(r.Context(), &payload, signatureValid)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.logger.Error("webhook processing failed", zap.Error(err))
		}
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
