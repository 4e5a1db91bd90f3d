package service

import (
	"github.com/shoptalk-ai/business-chatbot/internal/model"
	"github.com/shoptalk-ai/business-chatbot/pkg/metrics"
)

// History returns the stored history for a conversation.
func (s *Composer) History(conversationID string) (*model.ConversationHistoryResponse, bool) {
	conv, ok := s.store.Get(conversationID)
	if !ok {
		return nil, false
	}

	turns := conv.Turns()
	return &model.ConversationHistoryResponse{
		ConversationID: conversationID,
		Messages:       turns,
		MessageCount:   len(turns),
	}, true
}

// ClearConversation drops a conversation's history, reporting whether it
// existed.
func (s *Composer) ClearConversation(conversationID string) bool {
	cleared := s.store.Clear(conversationID)
	metrics.ConversationsActive.Set(float64(s.store.Len()))
	return cleared
}

// BusinessConfig returns the read-only business configuration view.
func (s *Composer) BusinessConfig() model.BusinessConfigResponse {
	info := model.ModelInfo{Provider: "none"}
	if s.llmClient != nil {
		info.Provider = s.llmClient.Name()
		info.Name = s.opts.Model
		if info.Name == "" && len(s.llmClient.Models()) > 0 {
			info.Name = s.llmClient.Models()[0]
		}
	}

	return model.BusinessConfigResponse{
		BusinessName:        s.profile.Name,
		BusinessType:        s.profile.Type,
		AllowedTopics:       s.profile.AllowedTopics,
		RestrictedTopics:    s.profile.RestrictedTopics,
		KnowledgeCategories: s.profile.Categories(),
		ModelInfo:           info,
	}
}
