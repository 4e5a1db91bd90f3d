// Package service provides the response-selection pipeline and the
// conversation operations built on top of it.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shoptalk-ai/business-chatbot/internal/events"
	"github.com/shoptalk-ai/business-chatbot/internal/guard"
	"github.com/shoptalk-ai/business-chatbot/internal/llm"
	"github.com/shoptalk-ai/business-chatbot/internal/matcher"
	"github.com/shoptalk-ai/business-chatbot/internal/memory"
	"github.com/shoptalk-ai/business-chatbot/internal/model"
	"github.com/shoptalk-ai/business-chatbot/internal/profile"
	"github.com/shoptalk-ai/business-chatbot/pkg/logger"
	"github.com/shoptalk-ai/business-chatbot/pkg/metrics"
)

// Reply sources reported in the model_used response field.
const (
	SourceBusinessRules = "business_rules"
	SourceKnowledge     = "business_knowledge"
	SourceErrorHandler  = "error_handler"
)

const (
	apologyReply = "I apologize, but I'm experiencing technical difficulties. Please try again in a moment."
	emptyReply   = "I understand your question. How can I help you further?"

	// maxReplyRunes caps fallback replies after post-processing.
	maxReplyRunes = 500

	// promptTurns is how many recent turns seed the fallback prompt.
	promptTurns = 6
)

// Options configures the generative fallback path.
type Options struct {
	Model           string
	MaxTokens       int
	Temperature     float64
	FallbackTimeout time.Duration
}

// Composer orchestrates the response pipeline: topic guard first, then the
// knowledge matcher, then the generative fallback. Every path produces a
// reply and updates the conversation context before returning.
type Composer struct {
	profile   *profile.Profile
	guard     *guard.Guard
	matcher   *matcher.Matcher
	store     *memory.Store
	llmClient llm.Client
	publisher events.Publisher
	logger    *logger.Logger
	opts      Options
}

// NewComposer creates the response composer. llmClient may be nil, in which
// case the fallback path degrades to the fixed apology reply.
func NewComposer(
	p *profile.Profile,
	store *memory.Store,
	llmClient llm.Client,
	publisher events.Publisher,
	log *logger.Logger,
	opts Options,
) *Composer {
	if opts.FallbackTimeout <= 0 {
		opts.FallbackTimeout = 30 * time.Second
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Composer{
		profile:   p,
		guard:     guard.New(p),
		matcher:   matcher.New(),
		store:     store,
		llmClient: llmClient,
		publisher: publisher,
		logger:    log,
		opts:      opts,
	}
}

// Chat runs the pipeline for one message and returns the reply.
func (s *Composer) Chat(ctx context.Context, req *model.ChatRequest) *model.ChatResponse {
	return s.compose(ctx, req, nil)
}

// ChatStream runs the pipeline, delivering the reply through onToken as it
// is produced. Templated replies (knowledge, refusal, apology) arrive as a
// single token.
func (s *Composer) ChatStream(ctx context.Context, req *model.ChatRequest, onToken llm.StreamCallback) *model.ChatResponse {
	return s.compose(ctx, req, onToken)
}

func (s *Composer) compose(ctx context.Context, req *model.ChatRequest, onToken llm.StreamCallback) *model.ChatResponse {
	start := time.Now()

	conv := s.store.GetOrCreate(req.ConversationID)
	metrics.ConversationsActive.Set(float64(s.store.Len()))

	var (
		reply    string
		source   string
		tokens   int
		streamed bool
	)

	classification := s.guard.Classify(req.Message)
	if classification.Decision == guard.Restricted {
		reply = s.refusalReply(classification.Topic)
		source = SourceBusinessRules
	} else if res := s.matcher.Match(req.Message, s.profile); res.Matched {
		reply = res.Answer
		source = SourceKnowledge
		tokens = len(strings.Fields(reply))
	} else {
		reply, source, tokens, streamed = s.fallback(ctx, conv, req, classification.Decision, onToken)
	}

	if onToken != nil && !streamed {
		_ = onToken(reply, 0)
	}

	now := time.Now()
	conv.Append(
		model.Turn{Role: model.RoleUser, Content: req.Message, Timestamp: now},
		model.Turn{Role: model.RoleAssistant, Content: reply, Timestamp: now},
	)

	metrics.RecordReply(sourceLabel(source))
	s.publishExchange(conv.ID, req.Message, reply, source)

	s.logger.Debug("reply composed",
		zap.String("conversation_id", conv.ID),
		zap.String("source", source),
		zap.String("decision", classification.Decision.String()),
	)

	return &model.ChatResponse{
		Response:       reply,
		ConversationID: conv.ID,
		ModelUsed:      source,
		ProcessingTime: time.Since(start).Seconds(),
		TokensUsed:     tokens,
	}
}

// fallback invokes the generative client. Any failure, including an absent
// client or a timeout, degrades to the fixed apology reply; the request as a
// whole never fails.
func (s *Composer) fallback(
	ctx context.Context,
	conv *memory.Conversation,
	req *model.ChatRequest,
	decision guard.Decision,
	onToken llm.StreamCallback,
) (reply, source string, tokens int, streamed bool) {
	if s.llmClient == nil {
		s.logger.Warn("generative fallback not configured", zap.Error(llm.ErrUnavailable))
		metrics.RecordFallback("none", "unavailable", 0, 0, 0)
		return apologyReply, SourceErrorHandler, 0, false
	}

	prompt := s.buildPrompt(conv, req, decision)

	llmReq := &llm.CompletionRequest{
		Model:       s.opts.Model,
		Messages:    []llm.ChatMessage{{Role: string(model.RoleUser), Content: prompt}},
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.FallbackTimeout)
	defer cancel()

	callStart := time.Now()
	var resp *llm.CompletionResponse
	var err error
	if onToken != nil {
		resp, err = s.llmClient.CompleteStream(callCtx, llmReq, onToken)
		streamed = err == nil
	} else {
		resp, err = s.llmClient.Complete(callCtx, llmReq)
	}
	if err != nil {
		s.logger.Warn("generative fallback failed", zap.Error(err))
		metrics.RecordFallback(s.llmClient.Name(), "error", time.Since(callStart).Seconds(), 0, 0)
		return apologyReply, SourceErrorHandler, 0, false
	}

	metrics.RecordFallback(resp.Model, "success", time.Since(callStart).Seconds(), resp.TokensIn, resp.TokensOut)

	return cleanResponse(resp.Content, req.Message), resp.Model, resp.TokensIn + resp.TokensOut, streamed
}

// buildPrompt assembles the business prompt: identity, knowledge facts,
// guidelines, recent conversation turns and the user's message.
func (s *Composer) buildPrompt(conv *memory.Conversation, req *model.ChatRequest, decision guard.Decision) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a helpful assistant for %s, a %s.\n\n", s.profile.Name, s.profile.Type)

	if len(s.profile.Facts) > 0 {
		b.WriteString("BUSINESS INFORMATION:\n")
		for _, fact := range s.profile.Facts {
			fmt.Fprintf(&b, "%s: %s\n", fact.Category, fact.Text)
		}
		b.WriteString("\n")
	}

	b.WriteString("GUIDELINES:\n")
	b.WriteString("- Be professional, helpful, and friendly\n")
	b.WriteString("- Use the business information above to answer questions accurately\n")
	if len(s.profile.AllowedTopics) > 0 {
		fmt.Fprintf(&b, "- Focus on topics related to: %s\n", strings.Join(s.profile.AllowedTopics, ", "))
	}
	b.WriteString("- If asked about unrelated topics, politely redirect to your area of expertise\n")
	b.WriteString("- Keep responses concise and helpful\n")
	if decision == guard.Neutral {
		b.WriteString("- The question is outside the configured topics; keep the answer brief and generic\n")
	}

	recent := conv.Recent(promptTurns)
	if len(recent) == 0 && len(req.History) > 0 {
		recent = req.History
		if len(recent) > promptTurns {
			recent = recent[len(recent)-promptTurns:]
		}
	}
	if len(recent) > 0 {
		b.WriteString("\nCONVERSATION CONTEXT:\n")
		for _, turn := range recent {
			role := "Human"
			if turn.Role == model.RoleAssistant {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
		}
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "\nAdditional Context: %s\n", req.Context)
	}

	fmt.Fprintf(&b, "\nUSER: %s\nASSISTANT:", req.Message)

	return b.String()
}

func (s *Composer) refusalReply(topic string) string {
	return fmt.Sprintf("I can't provide %s. Let me help you with %s related questions instead.", topic, s.profile.Type)
}

// publishExchange publishes the completed exchange without blocking the
// request path.
func (s *Composer) publishExchange(conversationID, userText, replyText, source string) {
	event := &model.ExchangeEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		UserText:       userText,
		ReplyText:      replyText,
		ModelUsed:      source,
		CreatedAt:      time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish exchange", zap.Error(err))
			metrics.ExchangeEventsTotal.WithLabelValues("error").Inc()
			return
		}
		metrics.ExchangeEventsTotal.WithLabelValues("ok").Inc()
	}()
}

// cleanResponse post-processes raw model output: drops echoes of the user's
// message and role prefixes, guarantees a non-empty reply and caps length.
func cleanResponse(response, originalMessage string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(response, originalMessage, ""))

	for _, prefix := range []string{"ASSISTANT:", "Assistant:", "AI:", "Bot:"} {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
		}
	}

	if cleaned == "" {
		return emptyReply
	}

	if runes := []rune(cleaned); len(runes) > maxReplyRunes {
		cleaned = string(runes[:maxReplyRunes]) + "..."
	}

	return cleaned
}

// sourceLabel collapses model names to one metrics label.
func sourceLabel(source string) string {
	switch source {
	case SourceBusinessRules, SourceKnowledge, SourceErrorHandler:
		return source
	default:
		return "model"
	}
}
