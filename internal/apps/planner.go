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

const plannerInstruction = `Hello!

I need you to help me break down some tasks into steps.

If anything is unclear, please return a ` + "`FollowUpQuestion`" + `.
If you'd like to know my current location, return a ` + "`RequestMyLocation`" + `, but only once.

If you have enough information, return a ` + "`Plan`" + `.

Things to ensure before returning a plan:
- I know where I am travelling, and how I will get there
- If I need to take anything with me, and how I will transport those things
- Who is coming with me.

Keep the titles short and snappy, and include a list of items I will require with each step.`

// Task is one step of a plan, with the items it requires.
type Task struct {
	Title        string   `json:"title"`
	Instructions string   `json:"instructions"`
	Items        []string `json:"items"`
}

type Plan struct {
	Tasks []Task `json:"tasks"`
}

type FollowUpQuestion struct {
	Question string `json:"question"`
}

// PlannerReply is the planner's closed reply set: a finished plan, a
// clarifying question, or a request for the user's location.
type PlannerReply struct {
	Plan              *Plan
	FollowUpQuestion  *FollowUpQuestion
	RequestMyLocation bool
}

func (PlannerReply) Variants() []schema.Variant {
	return []schema.Variant{
		{Tag: "Plan", Payload: Plan{}},
		{Tag: "FollowUpQuestion", Payload: FollowUpQuestion{}},
		{Tag: "RequestMyLocation"},
	}
}

func (r PlannerReply) MarshalJSON() ([]byte, error) {
	switch {
	case r.Plan != nil:
		return json.Marshal(map[string]*Plan{"Plan": r.Plan})
	case r.FollowUpQuestion != nil:
		return json.Marshal(map[string]*FollowUpQuestion{"FollowUpQuestion": r.FollowUpQuestion})
	case r.RequestMyLocation:
		return json.Marshal("RequestMyLocation")
	}
	return nil, errors.New("planner reply has no variant set")
}

func (r *PlannerReply) UnmarshalJSON(data []byte) error {
	*r = PlannerReply{}
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != "RequestMyLocation" {
			return fmt.Errorf("unknown variant %q", tag)
		}
		r.RequestMyLocation = true
		return nil
	}
	var wrapper struct {
		Plan             *Plan             `json:"Plan"`
		FollowUpQuestion *FollowUpQuestion `json:"FollowUpQuestion"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	switch {
	case wrapper.Plan != nil:
		r.Plan = wrapper.Plan
	case wrapper.FollowUpQuestion != nil:
		r.FollowUpQuestion = wrapper.FollowUpQuestion
	default:
		return errors.New("planner reply matches no declared variant")
	}
	return nil
}

// Planner breaks a request down into a step-by-step plan, asking
// clarifying questions until it has enough to go on.
type Planner struct {
	engine *consistency.Engine[PlannerReply]
}

func NewPlanner(client *llm.Client, scorer scoring.Scorer) (*Planner, error) {
	engine, err := consistency.New[PlannerReply](client, scorer, plannerInstruction)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	return &Planner{engine: engine}, nil
}

func (p *Planner) Name() string { return "planner" }

func (p *Planner) Greeting() string {
	return "Excellent. I am a task planning tool. What would you like me to help you plan?"
}

func (p *Planner) Evaluate(ctx context.Context, state *chat.State, input string) (*Turn, error) {
	outcome, err := p.engine.Evaluate(ctx, state, input)
	if err != nil {
		return nil, err
	}

	reply := outcome.Primary.Value
	var display string
	switch {
	case reply.Plan != nil:
		pretty, err := json.MarshalIndent(reply.Plan, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("planner: render plan: %w", err)
		}
		display = fmt.Sprintf("Accuracy %d%%\n%s", outcome.Agreement, pretty)
	case reply.FollowUpQuestion != nil:
		display = reply.FollowUpQuestion.Question
	case reply.RequestMyLocation:
		display = "Where are you currently?"
	}

	return &Turn{
		App:       p.Name(),
		Agreement: outcome.Agreement,
		Reply:     json.RawMessage(outcome.Primary.Raw),
		Display:   display,
	}, nil
}
