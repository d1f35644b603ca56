// Package apps hosts the bundled structured-chat applications. Each
// app owns one consistency engine over its own reply type and renders
// turns for both the HTTP API and the console.
package apps

import (
	"context"
	"encoding/json"
	"sort"

	chat "github.com/danieljharvey/chatbat/internal/model/chat"
	"github.com/danieljharvey/chatbat/internal/service/llm"
	"github.com/danieljharvey/chatbat/internal/service/scoring"
)

// Turn is one committed exchange as presented to clients. Reply is the
// raw assistant JSON exactly as committed to history; Display is a
// human rendering of it. HTML carries a generated page for apps that
// produce one and is only consumed by the console.
type Turn struct {
	App       string          `json:"app"`
	Agreement int             `json:"agreement"`
	Reply     json.RawMessage `json:"reply"`
	Display   string          `json:"display"`
	HTML      string          `json:"-"`
}

// App is a structured-chat application. Evaluate runs one full turn
// against the supplied conversation state and commits to it on
// success.
type App interface {
	Name() string
	Greeting() string
	Evaluate(ctx context.Context, state *chat.State, input string) (*Turn, error)
}

// Store looks up registered applications by name.
type Store interface {
	List() []string
	Find(name string) (App, bool)
}

// MemoryStore is a fixed in-memory app registry, populated once at
// startup.
type MemoryStore struct {
	apps map[string]App
}

func NewMemoryStore(apps ...App) *MemoryStore {
	store := &MemoryStore{apps: make(map[string]App, len(apps))}
	for _, app := range apps {
		store.apps[app.Name()] = app
	}
	return store
}

func (s *MemoryStore) List() []string {
	names := make([]string, 0, len(s.apps))
	for name := range s.apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *MemoryStore) Find(name string) (App, bool) {
	app, ok := s.apps[name]
	return app, ok
}

// Seed builds the full bundled app set against one shared client and
// scorer.
func Seed(client *llm.Client, scorer scoring.Scorer) ([]App, error) {
	planner, err := NewPlanner(client, scorer)
	if err != nil {
		return nil, err
	}
	facts, err := NewCountryFacts(client, scorer)
	if err != nil {
		return nil, err
	}
	website, err := NewWebsiteMaker(client, scorer)
	if err != nil {
		return nil, err
	}
	return []App{planner, facts, website}, nil
}
