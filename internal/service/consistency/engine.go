// Package consistency issues two independent generation calls for
// every turn and reconciles them into a single schema-validated reply
// annotated with an agreement score.
package consistency

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	chat "github.com/danieljharvey/chatbat/internal/model/chat"
	"github.com/danieljharvey/chatbat/internal/schema"
	"github.com/danieljharvey/chatbat/internal/service/llm"
	"github.com/danieljharvey/chatbat/internal/service/scoring"
)

// Engine runs dual-sample turns for one result type T. One engine is
// configured once with an instruction preamble and a scorer; the
// conversation state it commits to is supplied per call and must only
// ever be handed to one Evaluate at a time.
type Engine[T any] struct {
	client      *llm.Client
	scorer      scoring.Scorer
	instruction string
	desc        *schema.Descriptor
	format      json.RawMessage
}

// Outcome is the reconciled result of one successful turn. It is
// transient: created once per turn, reported to the caller, never
// persisted.
type Outcome[T any] struct {
	Primary   schema.Result[T]
	Secondary schema.Result[T]
	// Agreement is 0-100, higher meaning more similar. Byte-identical
	// canonical serializations always score exactly 100.
	Agreement int
}

// New derives the schema constraint for T once and wires the engine.
func New[T any](client *llm.Client, scorer scoring.Scorer, instruction string) (*Engine[T], error) {
	desc, err := schema.For[T]()
	if err != nil {
		return nil, fmt.Errorf("consistency: describe result type: %w", err)
	}
	format, err := desc.JSON()
	if err != nil {
		return nil, fmt.Errorf("consistency: encode schema constraint: %w", err)
	}
	return &Engine[T]{
		client:      client,
		scorer:      scorer,
		instruction: instruction,
		desc:        desc,
		format:      format,
	}, nil
}

// Evaluate runs one turn: clone state into two independent branches,
// query both concurrently, decode both replies strictly, score their
// agreement, then commit exactly the primary branch (the user message
// followed by the primary's raw assistant reply). Any branch failure
// aborts the whole turn with a BranchError and leaves state untouched,
// so the caller may safely retry the same input. Empty input is not
// special-cased; both calls are still issued.
func (e *Engine[T]) Evaluate(ctx context.Context, state *chat.State, userInput string) (*Outcome[T], error) {
	userMessage := chat.Message{Role: chat.RoleUser, Content: e.buildPrompt(userInput)}

	branches := [2]*chat.State{state.Clone(), state.Clone()}
	names := [2]Branch{Primary, Secondary}
	for _, branch := range branches {
		branch.Append(userMessage)
	}

	// Both branches always run to completion (or the first failure
	// cancels the group); nothing short-circuits on the faster reply.
	var results [2]schema.Result[T]
	g, gctx := errgroup.WithContext(ctx)
	for i := range branches {
		g.Go(func() error {
			raw, err := e.client.Chat(gctx, branches[i].Messages(), e.format)
			if err != nil {
				return &BranchError{Branch: names[i], Err: err}
			}
			decoded, err := schema.Decode[T](e.desc, raw)
			if err != nil {
				return &BranchError{Branch: names[i], Err: err}
			}
			results[i] = decoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	canonicalPrimary, err := canonicalize(results[0].Value)
	if err != nil {
		return nil, fmt.Errorf("consistency: canonicalize primary reply: %w", err)
	}
	canonicalSecondary, err := canonicalize(results[1].Value)
	if err != nil {
		return nil, fmt.Errorf("consistency: canonicalize secondary reply: %w", err)
	}

	agreement, err := e.scorer.Score(ctx, canonicalPrimary, canonicalSecondary)
	if err != nil {
		return nil, fmt.Errorf("consistency: score replies: %w", err)
	}

	// The single state mutation of the turn, performed only after
	// every fallible step succeeded. The secondary branch's history is
	// discarded entirely.
	state.Append(userMessage)
	state.Append(chat.Message{Role: chat.RoleAssistant, Content: results[0].Raw})

	log.Printf("[consistency] turn committed: history=%d agreement=%d", state.Len(), agreement)
	return &Outcome[T]{
		Primary:   results[0],
		Secondary: results[1],
		Agreement: agreement,
	}, nil
}

// buildPrompt prefixes the user input with the engine's fixed
// instruction preamble.
func (e *Engine[T]) buildPrompt(input string) string {
	if e.instruction == "" {
		return input
	}
	return e.instruction + "\nHere are the requirements:\n\n" + input
}

// canonicalize renders a decoded value in its canonical comparison
// form: JSON with stable field ordering, uppercased so comparison is
// case-insensitive. Used only for scoring, never stored.
func canonicalize(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(string(encoded)), nil
}
