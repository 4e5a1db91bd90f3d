package handler

import (
	"net/http"

	"github.com/shoptalk-ai/business-chatbot/internal/service"
)

// ConfigHandler exposes the read-only business configuration.
type ConfigHandler struct {
	composer *service.Composer
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(composer *service.Composer) *ConfigHandler {
	return &ConfigHandler{composer: composer}
}

// Get handles GET /api/v1/config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.composer.BusinessConfig())
}
