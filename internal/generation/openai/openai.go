// Package openai implements a Generator over OpenAI-compatible chat
// completion APIs.
package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/julianshen/codesage/internal/generation"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

func init() {
	generation.Register("openai", func(opts generation.Options) generation.Generator {
		return New(opts.BaseURL, opts.APIKey, opts.ExtraHeaders, &http.Client{Timeout: opts.Timeout})
	})
}

// Client implements generation.Generator for OpenAI-compatible APIs.
type Client struct {
	baseURL      string
	apiKey       string
	extraHeaders map[string]string
	http         *http.Client
}

// New creates a new OpenAI-compatible client.
func New(baseURL, apiKey string, extraHeaders map[string]string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		extraHeaders: extraHeaders,
		http:         httpClient,
	}
}

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature"`
	Stream      bool         `json:"stream"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Choices []struct {
		Message apiMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends req to /chat/completions and returns the first choice.
func (c *Client) Generate(ctx context.Context, req generation.Request) (string, error) {
	body := apiRequest{
		Model:       req.Model,
		Messages:    []apiMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	headers := make(map[string]string, len(c.extraHeaders)+1)
	for k, v := range c.extraHeaders {
		headers[k] = v
	}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var resp apiResponse
	if err := generation.PostJSON(ctx, c.http, "openai", c.baseURL+"/chat/completions", headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", generation.ErrEmptyResponse
	}
	return generation.CheckText(resp.Choices[0].Message.Content)
}
