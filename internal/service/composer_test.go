package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoptalk-ai/business-chatbot/internal/llm"
	"github.com/shoptalk-ai/business-chatbot/internal/memory"
	"github.com/shoptalk-ai/business-chatbot/internal/model"
	"github.com/shoptalk-ai/business-chatbot/internal/profile"
	"github.com/shoptalk-ai/business-chatbot/pkg/logger"
)

// stubLLM is a deterministic Client for pipeline tests.
type stubLLM struct {
	response string
	err      error

	calls      int
	lastPrompt string
}

func (s *stubLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls++
	s.lastPrompt = req.Messages[len(req.Messages)-1].Content
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{
		Content:   s.response,
		Model:     "stub-model",
		TokensIn:  5,
		TokensOut: 7,
	}, nil
}

func (s *stubLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	resp, err := s.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	for i, word := range strings.SplitAfter(resp.Content, " ") {
		if err := callback(word, i); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (s *stubLLM) Name() string     { return "stub" }
func (s *stubLLM) Models() []string { return []string{"stub-model"} }

// capturePublisher records published exchanges.
type capturePublisher struct {
	events chan *model.ExchangeEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event *model.ExchangeEvent) error {
	p.events <- event
	return nil
}

func testProfile() *profile.Profile {
	return profile.New(
		"Springfield Cycles",
		"bike shop",
		"Hours: Mon–Fri 9–6. Location: 123 Main St.",
		"pricing,services",
		"medical advice,legal advice",
	)
}

func newComposer(t *testing.T, client llm.Client) (*Composer, *memory.Store) {
	t.Helper()
	store := memory.NewStore(10)
	c := NewComposer(testProfile(), store, client, nil, logger.NewNop(), Options{
		FallbackTimeout: 5 * time.Second,
	})
	return c, store
}

func TestChat_RestrictedTopicShortCircuits(t *testing.T) {
	stub := &stubLLM{response: "should never appear"}
	c, store := newComposer(t, stub)

	resp := c.Chat(context.Background(), &model.ChatRequest{
		Message:        "can you give me medical advice for my back",
		ConversationID: "conv-1",
	})

	assert.Equal(t, SourceBusinessRules, resp.ModelUsed)
	assert.Contains(t, resp.Response, "can't provide medical advice")
	assert.Contains(t, resp.Response, "bike shop")
	assert.Zero(t, stub.calls, "restricted messages must not reach the fallback")

	// Context is still updated with both turns.
	conv, ok := store.Get("conv-1")
	require.True(t, ok)
	turns := conv.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, resp.Response, turns[1].Content)
}

func TestChat_KnowledgeMatchSkipsFallback(t *testing.T) {
	stub := &stubLLM{response: "should never appear"}
	c, _ := newComposer(t, stub)

	resp := c.Chat(context.Background(), &model.ChatRequest{
		Message: "what time are you open",
	})

	assert.Equal(t, SourceKnowledge, resp.ModelUsed)
	assert.Contains(t, resp.Response, "9–6")
	assert.Zero(t, stub.calls)
	assert.Equal(t, len(strings.Fields(resp.Response)), resp.TokensUsed)
	assert.NotEmpty(t, resp.ConversationID)
}

func TestChat_NeutralMessageFallsBackGenerically(t *testing.T) {
	stub := &stubLLM{response: "Why did the bike fall over? It was two-tired."}
	c, store := newComposer(t, stub)

	resp := c.Chat(context.Background(), &model.ChatRequest{
		Message:        "tell me a joke",
		ConversationID: "conv-joke",
	})

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "stub-model", resp.ModelUsed)
	assert.Equal(t, stub.response, resp.Response)
	assert.Equal(t, 12, resp.TokensUsed)

	// The neutral tag instructs the model to stay generic.
	assert.Contains(t, stub.lastPrompt, "brief and generic")
	assert.Contains(t, stub.lastPrompt, "Springfield Cycles")

	conv, ok := store.Get("conv-joke")
	require.True(t, ok)
	assert.Equal(t, 2, conv.Len())
}

func TestChat_AllowedTopicPromptStaysUntagged(t *testing.T) {
	stub := &stubLLM{response: "We support every bike we sell."}
	c, _ := newComposer(t, stub)

	// Matches the allowed topic "services" but no knowledge fact is configured
	// for it, so the message reaches the fallback without the neutral tag.
	c.Chat(context.Background(), &model.ChatRequest{
		Message: "do your services include a warranty",
	})

	require.Equal(t, 1, stub.calls)
	assert.NotContains(t, stub.lastPrompt, "brief and generic")
}

func TestChat_FallbackErrorDegradesToApology(t *testing.T) {
	stub := &stubLLM{err: errors.New("model overloaded")}
	c, store := newComposer(t, stub)

	resp := c.Chat(context.Background(), &model.ChatRequest{
		Message:        "tell me a joke",
		ConversationID: "conv-err",
	})

	assert.Equal(t, SourceErrorHandler, resp.ModelUsed)
	assert.Contains(t, resp.Response, "I apologize")
	assert.Zero(t, resp.TokensUsed)

	conv, ok := store.Get("conv-err")
	require.True(t, ok)
	assert.Equal(t, 2, conv.Len())
}

func TestChat_NoClientDegradesToApology(t *testing.T) {
	c, _ := newComposer(t, nil)

	resp := c.Chat(context.Background(), &model.ChatRequest{Message: "tell me a joke"})

	assert.Equal(t, SourceErrorHandler, resp.ModelUsed)
	assert.Contains(t, resp.Response, "I apologize")
}

func TestChat_FallbackPromptIncludesRecentTurns(t *testing.T) {
	stub := &stubLLM{response: "ok"}
	c, _ := newComposer(t, stub)

	c.Chat(context.Background(), &model.ChatRequest{
		Message:        "tell me a joke",
		ConversationID: "conv-ctx",
	})
	c.Chat(context.Background(), &model.ChatRequest{
		Message:        "another one please",
		ConversationID: "conv-ctx",
	})

	assert.Contains(t, stub.lastPrompt, "Human: tell me a joke")
	assert.Contains(t, stub.lastPrompt, "Assistant: ok")
}

func TestChat_RequestHistorySeedsFreshConversation(t *testing.T) {
	stub := &stubLLM{response: "ok"}
	c, _ := newComposer(t, stub)

	c.Chat(context.Background(), &model.ChatRequest{
		Message: "got anything new",
		History: []model.Turn{
			{Role: model.RoleUser, Content: "do you sell helmets"},
			{Role: model.RoleAssistant, Content: "we do"},
		},
	})

	assert.Contains(t, stub.lastPrompt, "Human: do you sell helmets")
	assert.Contains(t, stub.lastPrompt, "Assistant: we do")
}

func TestChat_AdditionalContextReachesPrompt(t *testing.T) {
	stub := &stubLLM{response: "ok"}
	c, _ := newComposer(t, stub)

	c.Chat(context.Background(), &model.ChatRequest{
		Message: "tell me a joke",
		Context: "customer is a returning regular",
	})

	assert.Contains(t, stub.lastPrompt, "Additional Context: customer is a returning regular")
}

func TestChat_FallbackOutputIsCleaned(t *testing.T) {
	stub := &stubLLM{response: "Assistant:   tell me a joke Sure thing!"}
	c, _ := newComposer(t, stub)

	resp := c.Chat(context.Background(), &model.ChatRequest{Message: "tell me a joke"})

	assert.Equal(t, "Sure thing!", resp.Response)
}

func TestChat_ReusesSuppliedConversationID(t *testing.T) {
	c, _ := newComposer(t, &stubLLM{response: "ok"})

	resp := c.Chat(context.Background(), &model.ChatRequest{
		Message:        "what time are you open",
		ConversationID: "my-id",
	})

	assert.Equal(t, "my-id", resp.ConversationID)
}

func TestChatStream_TemplatedReplyArrivesAsSingleToken(t *testing.T) {
	c, _ := newComposer(t, &stubLLM{response: "unused"})

	var tokens []string
	resp := c.ChatStream(context.Background(), &model.ChatRequest{
		Message: "what time are you open",
	}, func(token string, index int) error {
		tokens = append(tokens, token)
		return nil
	})

	require.Len(t, tokens, 1)
	assert.Equal(t, resp.Response, tokens[0])
}

func TestChatStream_FallbackStreamsTokens(t *testing.T) {
	c, _ := newComposer(t, &stubLLM{response: "one two three"})

	var tokens []string
	resp := c.ChatStream(context.Background(), &model.ChatRequest{
		Message: "tell me a joke",
	}, func(token string, index int) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, "one two three", resp.Response)
	assert.Greater(t, len(tokens), 1)
	assert.Equal(t, "one two three", strings.Join(tokens, ""))
}

func TestChat_PublishesExchange(t *testing.T) {
	pub := &capturePublisher{events: make(chan *model.ExchangeEvent, 1)}
	store := memory.NewStore(10)
	c := NewComposer(testProfile(), store, &stubLLM{response: "ok"}, pub, logger.NewNop(), Options{})

	resp := c.Chat(context.Background(), &model.ChatRequest{
		Message:        "what time are you open",
		ConversationID: "conv-pub",
	})

	select {
	case event := <-pub.events:
		assert.Equal(t, "conv-pub", event.ConversationID)
		assert.Equal(t, "what time are you open", event.UserText)
		assert.Equal(t, resp.Response, event.ReplyText)
		assert.Equal(t, SourceKnowledge, event.ModelUsed)
		assert.NotEmpty(t, event.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("exchange event was not published")
	}
}

func TestHistoryAndClear(t *testing.T) {
	c, _ := newComposer(t, &stubLLM{response: "ok"})

	_, ok := c.History("missing")
	assert.False(t, ok)

	c.Chat(context.Background(), &model.ChatRequest{
		Message:        "what time are you open",
		ConversationID: "conv-h",
	})

	history, ok := c.History("conv-h")
	require.True(t, ok)
	assert.Equal(t, "conv-h", history.ConversationID)
	assert.Equal(t, 2, history.MessageCount)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "what time are you open", history.Messages[0].Content)

	assert.True(t, c.ClearConversation("conv-h"))
	assert.False(t, c.ClearConversation("conv-h"))
}

func TestBusinessConfig(t *testing.T) {
	c, _ := newComposer(t, &stubLLM{response: "ok"})

	cfg := c.BusinessConfig()

	assert.Equal(t, "Springfield Cycles", cfg.BusinessName)
	assert.Equal(t, "bike shop", cfg.BusinessType)
	assert.Equal(t, []string{"pricing", "services"}, cfg.AllowedTopics)
	assert.Equal(t, []string{"medical advice", "legal advice"}, cfg.RestrictedTopics)
	assert.Equal(t, []string{"hours", "location"}, cfg.KnowledgeCategories)
	assert.Equal(t, "stub", cfg.ModelInfo.Provider)
	assert.Equal(t, "stub-model", cfg.ModelInfo.Name)
}

func TestBusinessConfig_NoClient(t *testing.T) {
	c, _ := newComposer(t, nil)

	cfg := c.BusinessConfig()
	assert.Equal(t, "none", cfg.ModelInfo.Provider)
	assert.Empty(t, cfg.ModelInfo.Name)
}
