// Package handler exposes the response pipeline over HTTP.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/shoptalk-ai/business-chatbot/internal/middleware"
	"github.com/shoptalk-ai/business-chatbot/internal/model"
	"github.com/shoptalk-ai/business-chatbot/internal/service"
	"github.com/shoptalk-ai/business-chatbot/pkg/logger"
	"github.com/shoptalk-ai/business-chatbot/pkg/metrics"
)

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	composer *service.Composer
	logger   *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(composer *service.Composer, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		composer: composer,
		logger:   log,
	}
}

func decodeChatRequest(r *http.Request) (*model.ChatRequest, error) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	if err := middleware.ValidateMessage(req.Message); err != nil {
		return nil, err
	}
	if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
		return nil, err
	}
	return &req, nil
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.composer.Chat(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

// ChatStream handles POST /api/v1/chat/stream
// The reply is delivered as SSE token events followed by a complete event.
func (h *ChatHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	resp := h.composer.ChatStream(r.Context(), req, func(token string, index int) error {
		if err := r.Context().Err(); err != nil {
			return err
		}
		sendSSEEvent(w, flusher, "token", &model.TokenEvent{Token: token, Index: index})
		return nil
	})

	sendSSEEvent(w, flusher, "complete", &model.CompleteEvent{
		Response:       resp.Response,
		ConversationID: resp.ConversationID,
		ModelUsed:      resp.ModelUsed,
		ProcessingTime: resp.ProcessingTime,
		TokensUsed:     resp.TokensUsed,
	})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Global().Warn("failed to marshal SSE payload", zap.Error(err))
		return
	}

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
