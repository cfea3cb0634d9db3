// Package script is the client for the narration-script generation
// collaborator: a chat-completion style HTTP API that expands a structured
// prompt into the narration text later fed to the voice collaborator.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com"
	maxErrorBody   = 512
)

// Generator calls the script-generation HTTP API.
type Generator struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// Option customizes a Generator.
type Option func(*Generator)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(g *Generator) { g.baseURL = strings.TrimRight(u, "/") }
}

// NewGenerator builds a script generator client.
func NewGenerator(apiKey, model string, timeout time.Duration, opts ...Option) *Generator {
	g := &Generator{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      model,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate expands a narration prompt into script text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("script API key is not set")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("script prompt is empty")
	}

	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: "You write short, warm narration scripts for 45-second keepsake videos. " +
					"Respond with the narration text only, no stage directions.",
			},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal script request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build script request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("script request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("script API returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode script response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("script API returned no choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("script API returned empty narration")
	}
	return text, nil
}
