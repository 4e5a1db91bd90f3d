package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoptalk-ai/business-chatbot/internal/middleware"
	"github.com/shoptalk-ai/business-chatbot/internal/service"
	"github.com/shoptalk-ai/business-chatbot/pkg/logger"
)

// ConversationHandler handles conversation history endpoints.
type ConversationHandler struct {
	composer *service.Composer
	logger   *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(composer *service.Composer, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		composer: composer,
		logger:   log,
	}
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, ok := h.composer.History(conversationID)
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// Delete handles DELETE /api/v1/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.composer.ClearConversation(conversationID) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "conversation " + conversationID + " cleared",
	})
}
