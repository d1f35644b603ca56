package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	chat "github.com/danieljharvey/chatbat/internal/model/chat"
	"github.com/danieljharvey/chatbat/internal/schema"
	"github.com/danieljharvey/chatbat/internal/service/llm"
)

// rating is the structured reply the comparison prompt asks for.
type rating struct {
	Score int `json:"score"`
}

// ModelScorer delegates the comparison to the language model itself,
// asking for a 1-100 rating of how similar the two texts are. Each
// comparison runs against a fresh, empty conversation so ratings never
// leak into any session transcript.
type ModelScorer struct {
	client *llm.Client
	desc   *schema.Descriptor
	format json.RawMessage
}

// NewModelScorer derives the rating schema once and wires the scorer.
func NewModelScorer(client *llm.Client) (*ModelScorer, error) {
	desc, err := schema.For[rating]()
	if err != nil {
		return nil, fmt.Errorf("scoring: describe rating type: %w", err)
	}
	format, err := desc.JSON()
	if err != nil {
		return nil, fmt.Errorf("scoring: encode rating schema: %w", err)
	}
	return &ModelScorer{client: client, desc: desc, format: format}, nil
}

func (s *ModelScorer) Score(ctx context.Context, a, b string) (int, error) {
	prompt := fmt.Sprintf(
		"Please compare %s and %s and describe how similar they are between 1 and 100",
		a, b,
	)
	messages := []chat.Message{{Role: chat.RoleUser, Content: prompt}}

	raw, err := s.client.Chat(ctx, messages, s.format)
	if err != nil {
		return 0, fmt.Errorf("scoring: rating call failed: %w", err)
	}

	decoded, err := schema.Decode[rating](s.desc, raw)
	if err != nil {
		return 0, fmt.Errorf("scoring: decode rating: %w", err)
	}

	score := decoded.Value.Score
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}
