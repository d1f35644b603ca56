// Package llm sends conversations to an Ollama-style chat endpoint and
// returns raw assistant replies. One Chat call is one bounded network
// operation; retry policy belongs to the caller.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danieljharvey/chatbat/internal/model/chat"
)

// DefaultTimeout bounds a single generation call. Model generation
// regularly takes multiple seconds per reply, so the bound is
// deliberately generous.
const DefaultTimeout = 60 * time.Second

// Config carries the endpoint settings. Endpoint and model are always
// explicit so separate sessions can target different endpoints or
// models concurrently.
type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature *float64
}

// Client is the transport adapter for one endpoint/model pair.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	temperature *float64
}

// NewClient validates the configuration and builds a client. A zero
// timeout falls back to DefaultTimeout.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("llm: base URL is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm: model is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Model reports the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []chat.Message  `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type chatResponse struct {
	Model     string       `json:"model"`
	CreatedAt string       `json:"created_at"`
	Message   chat.Message `json:"message"`
	Done      bool         `json:"done"`
}

// Chat sends the full conversation plus an optional schema constraint
// to /api/chat and returns the raw assistant reply. It appends nothing
// to the conversation itself; what becomes history is the caller's
// decision. The endpoint is asked to honor the format constraint, but
// the reply must still be decoded and validated downstream.
func (c *Client) Chat(ctx context.Context, messages []chat.Message, format json.RawMessage) (string, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Format:   format,
	}
	if c.temperature != nil {
		payload.Options = map[string]any{"temperature": *c.temperature}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm: marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyRequestError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyRequestError(err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[llm] chat returned status %d: %s", resp.StatusCode, respBody)
		return "", &TransportError{
			Kind: UnexpectedResponseShape,
			Err:  fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	var envelope chatResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		log.Printf("[llm] failed to parse chat envelope: %v", err)
		return "", &TransportError{
			Kind: UnexpectedResponseShape,
			Err:  fmt.Errorf("parse chat envelope: %w", err),
		}
	}
	if envelope.Message.Role != chat.RoleAssistant {
		return "", &TransportError{
			Kind: UnexpectedResponseShape,
			Err:  fmt.Errorf("reply role %q is not assistant", envelope.Message.Role),
		}
	}

	return envelope.Message.Content, nil
}

// classifyRequestError maps low-level request failures onto the
// transport taxonomy. Caller-initiated cancellation is passed through
// untouched: an abandoned turn is not a transport fault.
func classifyRequestError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Kind: Timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: Timeout, Err: err}
	}
	return &TransportError{Kind: Unreachable, Err: err}
}
