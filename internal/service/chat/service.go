package chat

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danieljharvey/chatbat/internal/model/chat"
)

var (
	ErrAppRequired     = errors.New("app name is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Service owns every live conversation. Each session holds exactly one
// State; turns on a session are serialized so the transcript only ever
// has a single writer, while separate sessions proceed independently.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	info chat.Session
	// mu serializes turns and is held for the whole evaluate, network
	// wait included.
	mu    sync.Mutex
	state *chat.State
}

// NewService bootstraps the in-memory session registry. Conversations
// live only as long as the process.
func NewService() *Service {
	return &Service{sessions: make(map[string]*session)}
}

// CreateSession provisions a session bound to one application, with an
// empty conversation.
func (s *Service) CreateSession(_ context.Context, app string) (chat.Session, error) {
	if app == "" {
		return chat.Session{}, ErrAppRequired
	}

	info := chat.Session{
		ID:        uuid.NewString(),
		App:       app,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[info.ID] = &session{info: info, state: chat.NewState()}
	s.mu.Unlock()

	log.Printf("[chat] session created: id=%s app=%s", info.ID, info.App)
	return info, nil
}

// GetSession retrieves session metadata by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return entry.info, nil
}

// Transcript returns a snapshot of the session's committed history.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.Messages(), nil
}

// WithState runs fn with exclusive access to the session's state for
// the duration of one turn. fn receives the session's app name so the
// caller can route to the right engine.
func (s *Service) WithState(_ context.Context, sessionID string, fn func(app string, state *chat.State) error) error {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.info.App, entry.state)
}
