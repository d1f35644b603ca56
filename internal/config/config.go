package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danieljharvey/chatbat/internal/service/llm"
)

// Scoring strategy names accepted in SIMILARITY_STRATEGY.
const (
	StrategyEdit  = "edit"
	StrategyModel = "model"
)

// Config aggregates every setting the service reads from the
// environment.
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Scoring ScoringConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	llmCfg, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	scoring, err := loadScoringConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, LLM: llmCfg, Scoring: scoring}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LLMConfig describes the Ollama-compatible endpoint the engines talk
// to.
type LLMConfig struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature *float64
}

// ClientConfig converts to the llm client's own config type.
func (c LLMConfig) ClientConfig() llm.Config {
	return llm.Config{
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Timeout:     c.Timeout,
		Temperature: c.Temperature,
	}
}

func loadLLMConfig() (LLMConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return LLMConfig{}, err
	}

	timeoutSeconds, err := parseOptionalIntEnv("LLM_TIMEOUT")
	if err != nil {
		return LLMConfig{}, err
	}
	timeout := llm.DefaultTimeout
	if timeoutSeconds != nil {
		if *timeoutSeconds < 1 {
			return LLMConfig{}, fmt.Errorf("invalid LLM_TIMEOUT value: %d", *timeoutSeconds)
		}
		timeout = time.Duration(*timeoutSeconds) * time.Second
	}

	return LLMConfig{
		BaseURL:     getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		Model:       getEnvOrDefault("OLLAMA_MODEL", "qwen2.5-coder:7b"),
		Timeout:     timeout,
		Temperature: temperature,
	}, nil
}

// ScoringConfig selects how the two samples of a turn are compared.
type ScoringConfig struct {
	Strategy string
}

func loadScoringConfig() (ScoringConfig, error) {
	strategy := getEnvOrDefault("SIMILARITY_STRATEGY", StrategyEdit)
	if strategy != StrategyEdit && strategy != StrategyModel {
		return ScoringConfig{}, fmt.Errorf("invalid SIMILARITY_STRATEGY value: %q", strategy)
	}
	return ScoringConfig{Strategy: strategy}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
