package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/sapira-io/triage/internal/api/handler"
	customMiddleware "github.com/sapira-io/triage/internal/api/middleware"
	"github.com/sapira-io/triage/internal/config"
	"github.com/sapira-io/triage/internal/conversation"
	"github.com/sapira-io/triage/internal/llm"
	"github.com/sapira-io/triage/internal/llm/anthropic"
	"github.com/sapira-io/triage/internal/llm/gemini"
	"github.com/sapira-io/triage/internal/llm/ollama"
	"github.com/sapira-io/triage/internal/llm/openai"
	"github.com/sapira-io/triage/internal/repository/postgres"
	"github.com/sapira-io/triage/internal/repository/redis"
	"github.com/sapira-io/triage/internal/teams"
	"github.com/sapira-io/triage/internal/ticketing"
	"github.com/sapira-io/triage/internal/ticketing/jira"
	"github.com/sapira-io/triage/internal/triage"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client, store *conversation.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize LLM Router with providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	} else {
		log.Warn().Msg("Gemini API Key is empty, skipping registration")
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		llmRouter.RegisterProvider(anthropic.NewProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model))
	}
	if cfg.LLM.Ollama.Host != "" {
		log.Info().Str("host", cfg.LLM.Ollama.Host).Msg("Registering Ollama provider")
		llmRouter.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}

	// Initialize repositories
	ticketRepo := postgres.NewTicketRepository(db)

	// Initialize rate limiter
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.RateLimit.RequestsPerMinute,
		cfg.RateLimit.Burst,
	)

	// Initialize services
	connector := teams.NewConnector(cfg.Teams)
	jiraClient := jira.NewClient(cfg.Ticketing)
	ticketService := ticketing.NewService(jiraClient, ticketRepo, cfg.Triage.MaxKeyPoints)
	generator := triage.NewGenerator(llmRouter, cfg.LLM.RequestTimeout, cfg.Triage.FallbackTurnThreshold)
	triageService := triage.NewService(store, generator, ticketService, connector)

	// Initialize handlers
	messagesHandler := handler.NewMessagesHandler(triageService, connector, rateLimiter)
	ticketsHandler := handler.NewTicketsHandler(ticketRepo)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Bot Framework webhook
		r.Post("/messages", messagesHandler.Post)

		// Ticket audit trail
		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", ticketsHandler.List)
			r.Get("/conversation/{conversationID}", ticketsHandler.ListByConversation)
		})
	})

	return r
}
