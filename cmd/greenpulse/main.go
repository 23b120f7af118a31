package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"greenpulse/internal/airquality"
	"greenpulse/internal/airquality/providers"
	httpapi "greenpulse/internal/api/http"
	"greenpulse/internal/config"
	"greenpulse/internal/policy"
	"greenpulse/internal/rag"
	"greenpulse/internal/store"
	"greenpulse/internal/stream"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound feed calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Upstream provider with resilience (circuit breaker).
	provider := providers.NewWAQIProvider(httpClient, cfg.WAQIBaseURL, cfg.WAQIToken)
	service := airquality.NewService(provider)

	// Latest snapshot store and the hub fanning updates out to websockets.
	latest := store.NewLatestStore()
	hub := stream.NewHub(latest)

	// Poller that periodically collects and publishes snapshots.
	poller := stream.NewPoller(service, hub, cfg.RefreshInterval, cfg.ActiveCities)
	if err := poller.Start(); err != nil {
		log.Fatalf("failed to start poller: %v", err)
	}
	defer poller.Stop()

	// Question answering over the live snapshot and the policy corpus.
	// Without credentials the backend still serves, reporting the missing
	// key on every question.
	var embedder rag.Embedder
	var generator rag.Generator
	if cfg.GoogleAPIKey != "" {
		client := rag.NewGeminiClient(cfg.GoogleAPIKey, cfg.LLMBaseURL)
		embedder = rag.NewOpenAIEmbedder(client, cfg.EmbeddingModel)
		generator = rag.NewOpenAIGenerator(client, cfg.LLMModel)
	} else {
		log.Printf("WARN: GOOGLE_API_KEY not set, chat endpoints will report the missing key")
	}
	backend := rag.NewBackend(latest, policy.Corpus(), embedder, generator, rag.Options{
		Strategy:    cfg.RetrievalStrategy,
		TopK:        cfg.RetrievalTopK,
		InitTimeout: cfg.RAGInitTimeout,
	})
	// Warm start so the first question does not pay the indexing cost.
	backend.Preload()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "greenpulse",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// No WriteTimeout: chat streams can stay open for minutes.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Latest:  latest,
		Hub:     hub,
		Poller:  poller,
		Backend: backend,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
