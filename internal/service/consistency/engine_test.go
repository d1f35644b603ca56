package consistency_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	chat "github.com/danieljharvey/chatbat/internal/model/chat"
	"github.com/danieljharvey/chatbat/internal/schema"
	"github.com/danieljharvey/chatbat/internal/service/consistency"
	"github.com/danieljharvey/chatbat/internal/service/llm"
	"github.com/danieljharvey/chatbat/internal/service/scoring"
)

type task struct {
	Title string `json:"title"`
}

type plan struct {
	Tasks []task `json:"tasks"`
}

// fakeEndpoint scripts assistant replies by arrival order and records
// every request payload it saw.
type fakeEndpoint struct {
	mu       sync.Mutex
	replies  []string
	status   int
	requests []fakeRequest
}

type fakeRequest struct {
	Messages []chat.Message  `json:"messages"`
	Format   json.RawMessage `json:"format"`
	Stream   bool            `json:"stream"`
}

func (f *fakeEndpoint) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		index := len(f.requests) - 1
		f.mu.Unlock()

		if f.status != 0 {
			http.Error(w, "server exploded", f.status)
			return
		}

		reply := f.replies[index%len(f.replies)]
		envelope, _ := json.Marshal(map[string]any{
			"message": map[string]string{"role": "assistant", "content": reply},
		})
		w.Write(envelope)
	}
}

func (f *fakeEndpoint) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newEngine(t *testing.T, endpoint *fakeEndpoint) (*consistency.Engine[plan], *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(endpoint.handler(t))
	t.Cleanup(server.Close)

	client, err := llm.NewClient(llm.Config{BaseURL: server.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}
	engine, err := consistency.New[plan](client, scoring.EditScorer{}, "You are a planner.")
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	return engine, server
}

func TestEvaluateIdenticalRepliesFullAgreement(t *testing.T) {
	reply := `{"tasks":[{"title":"Pack bags"},{"title":"Book train"}]}`
	endpoint := &fakeEndpoint{replies: []string{reply}}
	engine, _ := newEngine(t, endpoint)

	state := chat.NewState()
	outcome, err := engine.Evaluate(context.Background(), state, "Plan a weekend trip")
	if err != nil {
		t.Fatalf("Evaluate err: %v", err)
	}

	if outcome.Agreement != 100 {
		t.Fatalf("identical replies scored %d, want 100", outcome.Agreement)
	}
	if len(outcome.Primary.Value.Tasks) != 2 {
		t.Fatalf("primary decode lost tasks: %+v", outcome.Primary.Value)
	}
	if state.Len() != 2 {
		t.Fatalf("state should grow by exactly 2, got %d", state.Len())
	}

	messages := state.Messages()
	if messages[0].Role != chat.RoleUser {
		t.Fatalf("first committed message role: %q", messages[0].Role)
	}
	if messages[1].Role != chat.RoleAssistant || messages[1].Content != reply {
		t.Fatalf("committed assistant reply is not the primary raw text: %+v", messages[1])
	}
	if endpoint.callCount() != 2 {
		t.Fatalf("expected exactly 2 generation calls, got %d", endpoint.callCount())
	}
}

func TestEvaluatePromptAndConstraintOnTheWire(t *testing.T) {
	endpoint := &fakeEndpoint{replies: []string{`{"tasks":[]}`}}
	engine, _ := newEngine(t, endpoint)

	state := chat.NewState()
	if _, err := engine.Evaluate(context.Background(), state, "ship it"); err != nil {
		t.Fatalf("Evaluate err: %v", err)
	}

	for _, req := range endpoint.requests {
		if req.Stream {
			t.Fatal("engine must request full replies, not streams")
		}
		if len(req.Format) == 0 {
			t.Fatal("schema constraint missing from request")
		}
		if len(req.Messages) != 1 {
			t.Fatalf("expected 1 outbound message on empty history, got %d", len(req.Messages))
		}
		content := req.Messages[0].Content
		if content != "You are a planner.\nHere are the requirements:\n\nship it" {
			t.Fatalf("instruction preamble not applied: %q", content)
		}
	}
}

func TestEvaluateDifferingRepliesPartialAgreement(t *testing.T) {
	endpoint := &fakeEndpoint{replies: []string{
		`{"tasks":[{"title":"Pack bags"}]}`,
		`{"tasks":[{"title":"Packing"}]}`,
	}}
	engine, _ := newEngine(t, endpoint)

	state := chat.NewState()
	outcome, err := engine.Evaluate(context.Background(), state, "Plan a weekend trip")
	if err != nil {
		t.Fatalf("Evaluate err: %v", err)
	}

	if outcome.Agreement <= 0 || outcome.Agreement >= 100 {
		t.Fatalf("near-identical replies should score strictly between 0 and 100, got %d", outcome.Agreement)
	}
	if state.Len() != 2 {
		t.Fatalf("state should grow by exactly 2, got %d", state.Len())
	}
}

func TestEvaluateMalformedReplyAbortsTurn(t *testing.T) {
	endpoint := &fakeEndpoint{replies: []string{"that is not json, sorry"}}
	engine, _ := newEngine(t, endpoint)

	state := chat.NewState()
	state.Append(chat.Message{Role: chat.RoleUser, Content: "earlier"})
	state.Append(chat.Message{Role: chat.RoleAssistant, Content: `{"tasks":[]}`})

	_, err := engine.Evaluate(context.Background(), state, "Plan a weekend trip")

	var branchErr *consistency.BranchError
	if !errors.As(err, &branchErr) {
		t.Fatalf("expected BranchError, got %v", err)
	}
	if branchErr.Branch != consistency.Primary && branchErr.Branch != consistency.Secondary {
		t.Fatalf("error not attributed to a branch: %q", branchErr.Branch)
	}
	var decodeErr *schema.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError inside BranchError, got %v", err)
	}
	if decodeErr.Kind != schema.MalformedPayload {
		t.Fatalf("expected MalformedPayload, got %v", decodeErr.Kind)
	}
	if state.Len() != 2 {
		t.Fatalf("failed turn must not touch history, got len=%d", state.Len())
	}
}

func TestEvaluateSchemaMismatchAbortsTurn(t *testing.T) {
	endpoint := &fakeEndpoint{replies: []string{`{"steps":["wrong shape"]}`}}
	engine, _ := newEngine(t, endpoint)

	state := chat.NewState()
	_, err := engine.Evaluate(context.Background(), state, "Plan a weekend trip")

	var decodeErr *schema.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Kind != schema.SchemaMismatch {
		t.Fatalf("expected SchemaMismatch, got %v", decodeErr.Kind)
	}
	if state.Len() != 0 {
		t.Fatalf("failed turn must not touch history, got len=%d", state.Len())
	}
}

func TestEvaluateTransportFailureAbortsTurn(t *testing.T) {
	endpoint := &fakeEndpoint{replies: []string{`{"tasks":[]}`}, status: http.StatusInternalServerError}
	engine, _ := newEngine(t, endpoint)

	state := chat.NewState()
	_, err := engine.Evaluate(context.Background(), state, "Plan a weekend trip")

	var branchErr *consistency.BranchError
	if !errors.As(err, &branchErr) {
		t.Fatalf("expected BranchError, got %v", err)
	}
	var transportErr *llm.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError inside BranchError, got %v", err)
	}
	if state.Len() != 0 {
		t.Fatalf("failed turn must not touch history, got len=%d", state.Len())
	}
}

func TestEvaluateEmptyInputStillQueriesTwice(t *testing.T) {
	endpoint := &fakeEndpoint{replies: []string{`{"tasks":[]}`}}
	engine, _ := newEngine(t, endpoint)

	state := chat.NewState()
	if _, err := engine.Evaluate(context.Background(), state, ""); err != nil {
		t.Fatalf("Evaluate err: %v", err)
	}
	if endpoint.callCount() != 2 {
		t.Fatalf("empty input must not be special-cased, got %d calls", endpoint.callCount())
	}
}

func TestEvaluateReplaysCommittedHistory(t *testing.T) {
	endpoint := &fakeEndpoint{replies: []string{`{"tasks":[{"title":"Step"}]}`}}
	engine, _ := newEngine(t, endpoint)

	state := chat.NewState()
	if _, err := engine.Evaluate(context.Background(), state, "first turn"); err != nil {
		t.Fatalf("Evaluate err: %v", err)
	}
	if _, err := engine.Evaluate(context.Background(), state, "second turn"); err != nil {
		t.Fatalf("Evaluate err: %v", err)
	}

	if state.Len() != 4 {
		t.Fatalf("two turns should commit 4 messages, got %d", state.Len())
	}

	endpoint.mu.Lock()
	defer endpoint.mu.Unlock()
	for _, req := range endpoint.requests[2:] {
		if len(req.Messages) != 3 {
			t.Fatalf("second turn must replay committed history, got %d messages", len(req.Messages))
		}
		if req.Messages[1].Role != chat.RoleAssistant {
			t.Fatalf("history order corrupted: %+v", req.Messages)
		}
	}
}
