// Package anthropic implements a Generator over the Anthropic Messages API.
package anthropic

import (
	"context"
	"net/http"
	"strings"

	"github.com/julianshen/codesage/internal/generation"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.anthropic.com"

func init() {
	generation.Register("anthropic", func(opts generation.Options) generation.Generator {
		return New(opts.BaseURL, opts.APIKey, &http.Client{Timeout: opts.Timeout})
	})
}

// Client implements generation.Generator for the Anthropic API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a new Anthropic client. A nil httpClient uses a default client.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}
}

type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends req as a single user message and returns the concatenated
// text blocks of the reply.
func (c *Client) Generate(ctx context.Context, req generation.Request) (string, error) {
	body := apiRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Messages:    []apiMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var resp apiResponse
	if err := generation.PostJSON(ctx, c.http, "anthropic", c.baseURL+"/v1/messages", headers, body, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return generation.CheckText(sb.String())
}
