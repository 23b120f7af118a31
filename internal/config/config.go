package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"greenpulse/internal/rag"
)

type AppConfig struct {
	Port string

	// Upstream WAQI feed.
	WAQIToken   string
	WAQIBaseURL string
	HTTPTimeout time.Duration

	// RefreshInterval controls how often the poll cycle runs.
	RefreshInterval time.Duration

	// ActiveCities is the initial selection; nil means every catalog city.
	ActiveCities []string

	// Retrieval-augmented answering.
	RetrievalStrategy string
	RetrievalTopK     int
	GoogleAPIKey      string
	LLMBaseURL        string
	LLMModel          string
	EmbeddingModel    string
	RAGInitTimeout    time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8000")

	cfg.WAQIToken = getenvDefault("WAQI_TOKEN", "demo")
	cfg.WAQIBaseURL = getenvDefault("WAQI_BASE_URL", "https://api.waqi.info")

	timeout, err := getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	interval, err := getenvDuration("REFRESH_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	cfg.RefreshInterval = interval

	if csv := os.Getenv("ACTIVE_CITIES"); csv != "" {
		for _, name := range strings.Split(csv, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.ActiveCities = append(cfg.ActiveCities, name)
			}
		}
	}

	cfg.RetrievalStrategy = getenvDefault("RETRIEVAL_STRATEGY", rag.StrategySimilarity)
	switch cfg.RetrievalStrategy {
	case rag.StrategySimilarity, rag.StrategyKeyword:
	default:
		return nil, fmt.Errorf("invalid RETRIEVAL_STRATEGY %q: want %q or %q",
			cfg.RetrievalStrategy, rag.StrategySimilarity, rag.StrategyKeyword)
	}
	cfg.RetrievalTopK = getenvInt("RETRIEVAL_TOP_K", 3)

	// The sample .env ships a placeholder value; treat it as unset.
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	if cfg.GoogleAPIKey == "your_key_here" {
		cfg.GoogleAPIKey = ""
	}

	cfg.LLMBaseURL = getenvDefault("LLM_BASE_URL", rag.DefaultLLMBaseURL)
	cfg.LLMModel = getenvDefault("LLM_MODEL", "gemini-2.5-flash")
	cfg.EmbeddingModel = getenvDefault("EMBEDDING_MODEL", "text-embedding-004")

	ragTimeout, err := getenvDuration("RAG_INIT_TIMEOUT", "180s")
	if err != nil {
		return nil, err
	}
	cfg.RAGInitTimeout = ragTimeout

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
