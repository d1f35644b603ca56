package apps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	chat "github.com/danieljharvey/chatbat/internal/model/chat"
	"github.com/danieljharvey/chatbat/internal/schema"
	"github.com/danieljharvey/chatbat/internal/service/consistency"
	"github.com/danieljharvey/chatbat/internal/service/llm"
	"github.com/danieljharvey/chatbat/internal/service/scoring"
)

// baselineWebsite is the page every redesign starts from. The model is
// asked to keep its text and content intact.
const baselineWebsite = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Olympians</title>
</head>
<body>
  <h1>Olympians</h1>
  <p>Olympians are a rock band. Loud guitars, louder drums.</p>
  <h2>Upcoming shows</h2>
  <ul>
    <li>Friday - The Cellar</li>
    <li>Saturday - Town Hall</li>
  </ul>
  <h2>Contact</h2>
  <p>Email the band at olympians@example.com to book a show.</p>
</body>
</html>`

const websiteInstruction = "Hello! We're redesigning a website. The original website is a single html file that looks like the following:\n\n" +
	baselineWebsite +
	"\n\n. I would like you to regenerate a new version of it as a single html page with all styles inlined. It should contains all the text and content from the previous site. Make sure to make it very exciting."

type HTMLDocument struct {
	HTML string `json:"html"`
}

// WebsiteReply has a single variant. Keeping it a union keeps the wire
// shape stable if more variants are ever added.
type WebsiteReply struct {
	NewWebsite *HTMLDocument
}

func (WebsiteReply) Variants() []schema.Variant {
	return []schema.Variant{
		{Tag: "NewWebsite", Payload: HTMLDocument{}},
	}
}

func (r WebsiteReply) MarshalJSON() ([]byte, error) {
	if r.NewWebsite == nil {
		return nil, errors.New("website reply has no variant set")
	}
	return json.Marshal(map[string]*HTMLDocument{"NewWebsite": r.NewWebsite})
}

func (r *WebsiteReply) UnmarshalJSON(data []byte) error {
	*r = WebsiteReply{}
	var wrapper struct {
		NewWebsite *HTMLDocument `json:"NewWebsite"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if wrapper.NewWebsite == nil {
		return errors.New("website reply matches no declared variant")
	}
	r.NewWebsite = wrapper.NewWebsite
	return nil
}

// WebsiteMaker regenerates the band's single-page site to match a
// described vibe.
type WebsiteMaker struct {
	engine *consistency.Engine[WebsiteReply]
}

func NewWebsiteMaker(client *llm.Client, scorer scoring.Scorer) (*WebsiteMaker, error) {
	engine, err := consistency.New[WebsiteReply](client, scorer, websiteInstruction)
	if err != nil {
		return nil, fmt.Errorf("websitemaker: %w", err)
	}
	return &WebsiteMaker{engine: engine}, nil
}

func (w *WebsiteMaker) Name() string { return "website" }

func (w *WebsiteMaker) Greeting() string {
	return "Excellent. I am a tool for making new websites for the rock band Olympians. Please describe the vibe of the website you would like please?"
}

func (w *WebsiteMaker) Evaluate(ctx context.Context, state *chat.State, input string) (*Turn, error) {
	outcome, err := w.engine.Evaluate(ctx, state, input)
	if err != nil {
		return nil, err
	}

	html := outcome.Primary.Value.NewWebsite.HTML
	return &Turn{
		App:       w.Name(),
		Agreement: outcome.Agreement,
		Reply:     json.RawMessage(outcome.Primary.Raw),
		Display:   fmt.Sprintf("Accuracy %d%%\n%s", outcome.Agreement, html),
		HTML:      html,
	}, nil
}
