// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion wraps the remote text-completion endpoint behind a
// chat-style interface. The endpoint accepts only a flat prompt string,
// so structured messages are flattened to "role: content" lines before
// transmission. The mapping is lossy: role labels become plain text
// prefixes and do not survive the call as structure.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Role tags a message turn in a completion request.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single role-tagged turn.
type Message struct {
	Role    Role
	Content string
}

// Result is the normalized response from the endpoint. Only the first
// choice is used regardless of how many the endpoint returned. Content
// is nil when the endpoint returned a null text field.
type Result struct {
	Content *string
}

// Client abstracts the completion endpoint so tests can supply a mock.
type Client interface {
	Complete(ctx context.Context, model string, messages []Message) (Result, error)
}

// TransportError reports a network or non-2xx HTTP failure when calling
// the endpoint. Status and Body are populated when a response was
// received; Err holds the underlying error for pure network failures.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("completion endpoint returned %d: %s", e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("calling completion endpoint: %v", e.Err)
	}
	return "completion endpoint request failed"
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrEmptyResponse indicates the endpoint returned zero choices.
var ErrEmptyResponse = errors.New("completion endpoint returned no choices")

// Generation parameters are fixed per deployment, not per call.
const (
	maxTokens   = 1024
	temperature = 0.3
)

const defaultBaseURL = "https://api.openai.com/v1"

// HTTPClient calls an OpenAI-compatible completions endpoint. It is
// stateless aside from the credential it holds.
type HTTPClient struct {
	// APIKey is sent as a bearer token.
	APIKey string

	// BaseURL overrides the default endpoint base. The request path is
	// always /completions.
	BaseURL string

	// Client is the underlying HTTP client. Nil uses http.DefaultClient.
	Client *http.Client
}

// completionRequest is the flat-prompt request body for POST /completions.
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// completionResponse is the response body from the endpoint.
type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

// completionChoice is a single returned completion. Text is a pointer so
// an explicit null survives decoding.
type completionChoice struct {
	Text *string `json:"text"`
}

// Complete flattens messages into a single prompt and issues one request.
// There are no retries; the caller bears the full latency and failure
// risk of a single attempt.
func (c *HTTPClient) Complete(ctx context.Context, model string, messages []Message) (Result, error) {
	reqBody := completionRequest{
		Model:       model,
		Prompt:      flattenPrompt(messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(), bytes.NewReader(bodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return Result{}, &TransportError{Status: resp.StatusCode, Body: string(body)}
	}

	var cResp completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return Result{}, fmt.Errorf("decoding completion response: %w", err)
	}

	if len(cResp.Choices) == 0 {
		return Result{}, ErrEmptyResponse
	}

	return Result{Content: cResp.Choices[0].Text}, nil
}

func (c *HTTPClient) endpointURL() string {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/completions"
}

// flattenPrompt joins messages into the endpoint's single-prompt format:
// one "<role>: <content>" line per message, joined with newlines.
func flattenPrompt(messages []Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return strings.Join(lines, "\n")
}
