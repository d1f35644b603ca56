// Command console runs one app as an interactive terminal chat against
// a local model endpoint, the same engines the HTTP API uses.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/danieljharvey/chatbat/internal/apps"
	"github.com/danieljharvey/chatbat/internal/config"
	chatModel "github.com/danieljharvey/chatbat/internal/model/chat"
	"github.com/danieljharvey/chatbat/internal/service/llm"
	"github.com/danieljharvey/chatbat/internal/service/scoring"
)

func main() {
	appName := flag.String("app", "planner", "which app to chat with")
	turnTimeout := flag.Duration("timeout", 5*time.Minute, "per-turn timeout covering both generation calls")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	client, err := llm.NewClient(cfg.LLM.ClientConfig())
	if err != nil {
		log.Fatalf("failed to initialize llm client: %v", err)
	}

	scorer, err := newScorer(cfg.Scoring, client)
	if err != nil {
		log.Fatalf("failed to initialize scorer: %v", err)
	}

	seeded, err := apps.Seed(client, scorer)
	if err != nil {
		log.Fatalf("failed to seed apps: %v", err)
	}
	store := apps.NewMemoryStore(seeded...)

	app, ok := store.Find(*appName)
	if !ok {
		log.Fatalf("unknown app %q, available: %v", *appName, store.List())
	}

	if err := run(app, *turnTimeout); err != nil {
		log.Fatalf("console error: %v", err)
	}
}

func newScorer(cfg config.ScoringConfig, client *llm.Client) (scoring.Scorer, error) {
	if cfg.Strategy == config.StrategyModel {
		return scoring.NewModelScorer(client)
	}
	return scoring.EditScorer{}, nil
}

// run loops reading a line, evaluating a turn, and printing its
// rendering. A failed turn leaves history untouched, so the user can
// simply try again.
func run(app apps.App, turnTimeout time.Duration) error {
	fmt.Println(app.Greeting())

	state := chatModel.NewState()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		input := scanner.Text()

		turn, err := evaluateTurn(app, state, input, turnTimeout)
		if err != nil {
			log.Printf("turn failed, history unchanged: %v", err)
			continue
		}

		fmt.Printf("\n%s\n\n", turn.Display)

		if turn.HTML != "" {
			if err := writeWebsite(turn.HTML); err != nil {
				log.Printf("failed to write website: %v", err)
			}
		}
	}
	return scanner.Err()
}

func evaluateTurn(app apps.App, state *chatModel.State, input string, timeout time.Duration) (*apps.Turn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return app.Evaluate(ctx, state, input)
}

func writeWebsite(html string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "website.html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return err
	}
	fmt.Printf("Written to %s\n", path)
	return nil
}
