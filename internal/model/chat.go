// Package model defines data structures for the chatbot API.
package model

import (
	"time"
)

// Role represents the role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents a single conversation turn.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ChatRequest is the request to send a chat message.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Context        string `json:"context,omitempty"`
	History        []Turn `json:"conversation_history,omitempty"`
}

// ChatResponse is the reply to a chat message.
type ChatResponse struct {
	Response       string  `json:"response"`
	ConversationID string  `json:"conversation_id"`
	ModelUsed      string  `json:"model_used"`
	ProcessingTime float64 `json:"processing_time"`
	TokensUsed     int     `json:"tokens_used"`
}

// ConversationHistoryResponse is the stored history for one conversation.
type ConversationHistoryResponse struct {
	ConversationID string `json:"conversation_id"`
	Messages       []Turn `json:"messages"`
	MessageCount   int    `json:"message_count"`
}

// ModelInfo describes the configured generative fallback.
type ModelInfo struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

// BusinessConfigResponse is the read-only business configuration view.
type BusinessConfigResponse struct {
	BusinessName        string    `json:"business_name"`
	BusinessType        string    `json:"business_type"`
	AllowedTopics       []string  `json:"allowed_topics"`
	RestrictedTopics    []string  `json:"restricted_topics"`
	KnowledgeCategories []string  `json:"knowledge_categories"`
	ModelInfo           ModelInfo `json:"model_info"`
}

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// CompleteEvent closes a streamed chat exchange.
type CompleteEvent struct {
	Response       string  `json:"response"`
	ConversationID string  `json:"conversation_id"`
	ModelUsed      string  `json:"model_used"`
	ProcessingTime float64 `json:"processing_time"`
	TokensUsed     int     `json:"tokens_used"`
}

// ExchangeEvent is one completed user/assistant exchange, published to the
// event stream for downstream consumers.
type ExchangeEvent struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserText       string    `json:"user_text"`
	ReplyText      string    `json:"reply_text"`
	ModelUsed      string    `json:"model_used"`
	CreatedAt      time.Time `json:"created_at"`
}
