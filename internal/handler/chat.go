// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wanderai/travel-gateway/internal/apperr"
	"github.com/wanderai/travel-gateway/internal/model"
	"github.com/wanderai/travel-gateway/internal/service"
	"github.com/wanderai/travel-gateway/pkg/logger"
)

// ChatHandler handles the chat and session endpoints.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: svc,
		logger:      log,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperr.KindInvalidInput, "invalid request body")
		return
	}

	result, err := h.chatService.Process(r.Context(), &req)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			h.logger.Error("chat turn failed", zap.Error(err))
		}
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Session handles GET /api/v1/sessions/{id}
func (h *ChatHandler) Session(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, apperr.KindInvalidInput, "session id is required")
		return
	}

	view, err := h.chatService.Session(id)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
