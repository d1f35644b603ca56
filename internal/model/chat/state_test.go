package chat_test

import (
	"testing"

	chat "github.com/danieljharvey/chatbat/internal/model/chat"
)

func TestStateCloneIsIndependent(t *testing.T) {
	original := chat.NewState()
	original.Append(chat.Message{Role: chat.RoleUser, Content: "hello"})

	left := original.Clone()
	right := original.Clone()

	left.Append(chat.Message{Role: chat.RoleAssistant, Content: "left"})
	left.Append(chat.Message{Role: chat.RoleUser, Content: "more"})
	right.Append(chat.Message{Role: chat.RoleAssistant, Content: "right"})

	if original.Len() != 1 {
		t.Fatalf("original mutated by clone appends: len=%d", original.Len())
	}
	if left.Len() != 3 {
		t.Fatalf("unexpected left length: %d", left.Len())
	}
	if right.Len() != 2 {
		t.Fatalf("unexpected right length: %d", right.Len())
	}
	if got := right.Messages()[1].Content; got != "right" {
		t.Fatalf("clone content leaked across branches: %q", got)
	}
}

func TestStateMessagesSnapshot(t *testing.T) {
	state := chat.NewState()
	state.Append(chat.Message{Role: chat.RoleUser, Content: "first"})

	snapshot := state.Messages()
	snapshot[0].Content = "tampered"
	snapshot = append(snapshot, chat.Message{Role: chat.RoleAssistant, Content: "extra"})
	_ = snapshot

	if state.Len() != 1 {
		t.Fatalf("snapshot append changed state length: %d", state.Len())
	}
	if got := state.Messages()[0].Content; got != "first" {
		t.Fatalf("snapshot mutation reached state: %q", got)
	}
}
