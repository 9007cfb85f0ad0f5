package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/haven-app/haven-api/internal/api/handler"
	customMiddleware "github.com/haven-app/haven-api/internal/api/middleware"
	"github.com/haven-app/haven-api/internal/config"
	"github.com/haven-app/haven-api/internal/llm"
	"github.com/haven-app/haven-api/internal/llm/gemini"
	"github.com/haven-app/haven-api/internal/llm/groq"
	"github.com/haven-app/haven-api/internal/payment/paystack"
	"github.com/haven-app/haven-api/internal/payment/stripe"
	"github.com/haven-app/haven-api/internal/repository/mongo"
	"github.com/haven-app/haven-api/internal/repository/redis"
	"github.com/haven-app/haven-api/internal/security"
	"github.com/haven-app/haven-api/internal/service"
	"github.com/haven-app/haven-api/internal/tts/elevenlabs"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *mongo.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Payment.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Initialize repositories
	userRepo := mongo.NewUserRepository(db)
	journalRepo := mongo.NewJournalRepository(db)
	conversationRepo := mongo.NewConversationRepository(db)

	// Initialize rate limiter
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Limits.ChatRequestsPerMinute,
		cfg.Limits.ChatBurst,
	)

	// Initialize LLM Router with providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.Groq.APIKey != "" {
		llmRouter.RegisterProvider(groq.NewProvider(cfg.LLM.Groq.APIKey, cfg.LLM.Groq.Model))
	} else {
		log.Warn().Msg("Groq API key is empty, skipping registration")
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini.APIKey, cfg.LLM.Gemini.Model))
	} else {
		log.Warn().Msg("Gemini API key is empty, skipping registration")
	}

	// Initialize payment providers
	stripeProvider := stripe.NewProvider(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.WebhookSecret)
	paystackProvider := paystack.NewProvider(cfg.Payment.Paystack.SecretKey)

	// Initialize TTS provider
	ttsProvider := elevenlabs.NewProvider(cfg.TTS.ElevenLabs.APIKey, cfg.TTS.ElevenLabs.VoiceID)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	entitlementService := service.NewEntitlementService(userRepo)
	ledgerService := service.NewLedgerService(userRepo)
	chatService := service.NewChatService(userRepo, conversationRepo, entitlementService, llmRouter)
	journalService := service.NewJournalService(journalRepo)
	conversationService := service.NewConversationService(conversationRepo)
	paymentService := service.NewPaymentService(userRepo, ledgerService, stripeProvider, paystackProvider, service.PaymentConfig{
		DefaultProvider: cfg.Payment.DefaultProvider,
		AmountMinor:     cfg.Payment.AmountMinor,
		Currency:        cfg.Payment.Currency,
		CallbackURL:     cfg.Payment.CallbackURL,
	})

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	journalHandler := handler.NewJournalHandler(journalService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	paymentHandler := handler.NewPaymentHandler(paymentService, stripeProvider)
	ttsHandler := handler.NewTTSHandler(ttsProvider)

	// Auth middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Webhook route (public, authenticated by signature)
		r.Post("/payments/webhook", paymentHandler.Webhook)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/me", authHandler.Me)

			r.Get("/llm-providers", handler.ListLLMProviders(llmRouter))

			r.Group(func(r chi.Router) {
				r.Use(rateLimitMiddleware.Limit)
				r.Post("/chat", chatHandler.Send)
				r.Post("/tts", ttsHandler.Synthesize)
			})

			r.Route("/journal", func(r chi.Router) {
				r.Get("/", journalHandler.List)
				r.Post("/", journalHandler.Create)
				r.Delete("/{journalID}", journalHandler.Delete)
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", conversationHandler.List)
				r.Post("/", conversationHandler.Save)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/checkout", paymentHandler.Checkout)
				r.Get("/verify/{reference}", paymentHandler.Verify)
			})
		})
	})

	return r
}
