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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wanderai/travel-gateway/internal/config"
	"github.com/wanderai/travel-gateway/internal/events"
	"github.com/wanderai/travel-gateway/internal/handler"
	"github.com/wanderai/travel-gateway/internal/kb"
	"github.com/wanderai/travel-gateway/internal/middleware"
	"github.com/wanderai/travel-gateway/internal/provider"
	"github.com/wanderai/travel-gateway/internal/service"
	"github.com/wanderai/travel-gateway/internal/session"
	"github.com/wanderai/travel-gateway/internal/webhook"
	"github.com/wanderai/travel-gateway/pkg/logger"
	"github.com/wanderai/travel-gateway/pkg/tracing"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "travel-gateway", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsPub, err := events.Connect(ctx, cfg.NATSURL, cfg.NATSToken, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		publisher = natsPub
		defer natsPub.Close()
	}

	// Build provider clients in failover priority order
	clients := buildProviders(cfg, log)
	if len(clients) == 0 {
		log.Warn("no providers configured, chat requests will fail")
	}
	dispatcher := provider.NewDispatcher(clients, cfg.ProviderTimeout, log)

	// Session store with background eviction
	store := session.NewStore(cfg.SessionTTL, cfg.SessionMaxTurns, log)
	store.Start(ctx, cfg.SessionSweepInterval)
	defer store.Stop()

	// Knowledge base collaborator
	var knowledge kb.KnowledgeBase
	if cfg.KnowledgeBaseURL != "" {
		knowledge = kb.NewHTTPStore(cfg.KnowledgeBaseURL, cfg.KnowledgeBaseTimeout)
	} else {
		log.Warn("no knowledge base URL configured, using in-memory store")
		knowledge = kb.NewMemoryStore()
	}

	// Webhook pipeline
	authenticator := webhook.NewAuthenticator(cfg.WebhookSecret)
	if !authenticator.Enabled() {
		log.Warn("webhook secret not configured, signature verification is disabled")
	}
	processor := webhook.NewProcessor(knowledge, publisher, log)

	// Services and handlers
	chatSvc := service.NewChatService(store, dispatcher, publisher, log)
	healthHandler := handler.NewHealthHandler(dispatcher, publisher)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	webhookHandler := handler.NewWebhookHandler(authenticator, processor, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", webhook.SignatureHeader},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Webhook ingestion authenticates via body signature, not bearer token
		r.Post("/webhook", webhookHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Post("/chat", chatHandler.Chat)
			r.Get("/sessions/{id}", chatHandler.Session)
		})
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

	// Graceful shutdown with timeout, draining in-flight requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped", zap.Int("sessions_at_shutdown", store.Len()))

}

// buildProviders constructs clients for every provider named in the configured
// priority order that has credentials. Unconfigured providers are skipped with
// a log line rather than failing startup.
func buildProviders(cfg *config.Config, log *logger.Logger) []provider.Client {
	var clients []provider.Client
	for _, name := range cfg.ProviderOrder {
		var (
			client provider.Client
			err    error
		)
		switch name {
		case "groq":
			client, err = provider.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel)
		case "openai":
			client, err = provider.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		case "anthropic":
			client, err = provider.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		default:
			log.Warn("unknown provider in PROVIDER_ORDER", zap.String("provider", name))
			continue
		}
		if err != nil {
			log.Info("provider not configured, skipping", zap.String("provider", name), zap.Error(err))
			continue
		}
		clients = append(clients, client)
		log.Info("provider configured", zap.String("provider", name))
	}
	return clients
}
