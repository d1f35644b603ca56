package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danieljharvey/chatbat/internal/apps"
	"github.com/danieljharvey/chatbat/internal/config"
	"github.com/danieljharvey/chatbat/internal/handler"
	"github.com/danieljharvey/chatbat/internal/service/chat"
	"github.com/danieljharvey/chatbat/internal/service/llm"
	"github.com/danieljharvey/chatbat/internal/service/scoring"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	client, err := llm.NewClient(cfg.LLM.ClientConfig())
	if err != nil {
		log.Fatalf("failed to initialize llm client: %v", err)
	}
	log.Printf("llm client initialized: endpoint=%s model=%s", cfg.LLM.BaseURL, cfg.LLM.Model)

	scorer, err := newScorer(cfg.Scoring, client)
	if err != nil {
		log.Fatalf("failed to initialize scorer: %v", err)
	}

	seeded, err := apps.Seed(client, scorer)
	if err != nil {
		log.Fatalf("failed to seed apps: %v", err)
	}
	appStore := apps.NewMemoryStore(seeded...)
	log.Printf("registered apps: %v", appStore.List())

	chatService := chat.NewService()

	router := handler.NewRouter(appStore, chatService)

	startServer(ctx, cfg.Server, router)
}

func newScorer(cfg config.ScoringConfig, client *llm.Client) (scoring.Scorer, error) {
	switch cfg.Strategy {
	case config.StrategyModel:
		log.Println("scoring replies with the model itself")
		return scoring.NewModelScorer(client)
	default:
		log.Println("scoring replies by edit distance")
		return scoring.EditScorer{}, nil
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("chatbat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
