package apps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	chat "github.com/danieljharvey/chatbat/internal/model/chat"
	"github.com/danieljharvey/chatbat/internal/service/consistency"
	"github.com/danieljharvey/chatbat/internal/service/llm"
	"github.com/danieljharvey/chatbat/internal/service/scoring"
)

const countryFactsInstruction = `Hello!

I need you to tell me about countries. For whichever country I name,
fill in every field truthfully. If I name something that is not a
country, pick the closest real country and say so in the summary.`

// CountryFact is a flat factual record about one country. Flat records
// make disagreement between the two samples easy to see: any field the
// model is unsure about shows up directly in the agreement score.
type CountryFact struct {
	Country    string   `json:"country"`
	Capital    string   `json:"capital"`
	Continent  string   `json:"continent"`
	Languages  []string `json:"languages"`
	Population int      `json:"population"`
	Summary    string   `json:"summary"`
}

// CountryFacts answers country lookups with a structured fact sheet.
type CountryFacts struct {
	engine *consistency.Engine[CountryFact]
}

func NewCountryFacts(client *llm.Client, scorer scoring.Scorer) (*CountryFacts, error) {
	engine, err := consistency.New[CountryFact](client, scorer, countryFactsInstruction)
	if err != nil {
		return nil, fmt.Errorf("countryfacts: %w", err)
	}
	return &CountryFacts{engine: engine}, nil
}

func (c *CountryFacts) Name() string { return "countryfacts" }

func (c *CountryFacts) Greeting() string {
	return "Excellent. I am a country fact sheet tool. Which country would you like to know about?"
}

func (c *CountryFacts) Evaluate(ctx context.Context, state *chat.State, input string) (*Turn, error) {
	outcome, err := c.engine.Evaluate(ctx, state, input)
	if err != nil {
		return nil, err
	}

	fact := outcome.Primary.Value
	display := fmt.Sprintf(
		"Accuracy %d%%\n%s\nCapital: %s\nContinent: %s\nLanguages: %s\nPopulation: %d\n%s",
		outcome.Agreement,
		fact.Country,
		fact.Capital,
		fact.Continent,
		strings.Join(fact.Languages, ", "),
		fact.Population,
		fact.Summary,
	)

	return &Turn{
		App:       c.Name(),
		Agreement: outcome.Agreement,
		Reply:     json.RawMessage(outcome.Primary.Raw),
		Display:   display,
	}, nil
}
