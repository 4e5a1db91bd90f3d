// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shoptalk-ai/business-chatbot/internal/config"
	"github.com/shoptalk-ai/business-chatbot/internal/events"
	"github.com/shoptalk-ai/business-chatbot/internal/handler"
	"github.com/shoptalk-ai/business-chatbot/internal/llm"
	"github.com/shoptalk-ai/business-chatbot/internal/memory"
	"github.com/shoptalk-ai/business-chatbot/internal/middleware"
	"github.com/shoptalk-ai/business-chatbot/internal/profile"
	"github.com/shoptalk-ai/business-chatbot/internal/service"
	"github.com/shoptalk-ai/business-chatbot/pkg/logger"
	"github.com/shoptalk-ai/business-chatbot/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("business", cfg.BusinessName))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "business-chatbot", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Build the business profile from configuration
	bizProfile := profile.New(
		cfg.BusinessName,
		cfg.BusinessType,
		cfg.BusinessDetails,
		cfg.AllowedTopics,
		cfg.RestrictedTopics,
	)
	if len(bizProfile.Facts) == 0 {
		log.Warn("no business details configured, knowledge base is empty")
	}

	// Connect the exchange event publisher if enabled
	var publisher events.Publisher = events.Noop{}
	var eventsClient *events.Client
	if cfg.EventsEnabled {
		eventsClient, err = events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer eventsClient.Close()

		jsPublisher := events.NewJetStreamPublisher(eventsClient)
		if err := jsPublisher.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure exchange stream", zap.Error(err))
			os.Exit(1)
		}
		publisher = jsPublisher
	}

	// Initialize the generative fallback client
	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" && cfg.DefaultLLM != string(llm.ProviderOpenAI) {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, fallback disabled", zap.Error(err))
		}
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
		if err != nil {
			log.Warn("failed to create OpenAI client, fallback disabled", zap.Error(err))
		}
	} else {
		log.Warn("no LLM API key configured, generative fallback disabled")
	}

	// Initialize the pipeline
	store := memory.NewStore(cfg.ContextTurns)
	composer := service.NewComposer(bizProfile, store, llmClient, publisher, log, service.Options{
		Model:           cfg.ModelName,
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		FallbackTimeout: cfg.FallbackTimeout,
	})

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(eventsClient)
	chatHandler := handler.NewChatHandler(composer, log)
	conversationHandler := handler.NewConversationHandler(composer, log)
	configHandler := handler.NewConfigHandler(composer)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.Chat)
		r.Post("/chat/stream", chatHandler.ChatStream)

		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Get("/", conversationHandler.Get)
			r.Delete("/", conversationHandler.Delete)
		})

		r.Get("/config", configHandler.Get)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
