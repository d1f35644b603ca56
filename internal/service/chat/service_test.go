package chat_test

import (
	"context"
	"testing"

	model "github.com/danieljharvey/chatbat/internal/model/chat"
	chat "github.com/danieljharvey/chatbat/internal/service/chat"
)

func TestServiceCreateAndGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "planner")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.App != "planner" {
		t.Fatalf("unexpected app: got %s", got.App)
	}
}

func TestServiceCreateSessionRequiresApp(t *testing.T) {
	svc := chat.NewService()
	if _, err := svc.CreateSession(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService()
	if _, err := svc.GetSession(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestServiceWithStateCommitsHistory(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "planner")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	err = svc.WithState(ctx, session.ID, func(app string, state *model.State) error {
		if app != "planner" {
			t.Fatalf("unexpected app inside turn: %q", app)
		}
		state.Append(model.Message{Role: model.RoleUser, Content: "hello"})
		state.Append(model.Message{Role: model.RoleAssistant, Content: "hi"})
		return nil
	})
	if err != nil {
		t.Fatalf("WithState err: %v", err)
	}

	transcript, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("expected 2 committed messages, got %d", len(transcript))
	}
	if transcript[1].Content != "hi" {
		t.Fatalf("unexpected transcript tail: %+v", transcript[1])
	}
}

func TestServiceWithStateUnknownSession(t *testing.T) {
	svc := chat.NewService()
	err := svc.WithState(context.Background(), "missing", func(string, *model.State) error {
		t.Fatal("fn must not run for missing session")
		return nil
	})
	if err != chat.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
