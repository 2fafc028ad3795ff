// Package ollama implements a Generator over a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/julianshen/codesage/internal/generation"
)

// DefaultBaseURL is the address of a default local Ollama install.
const DefaultBaseURL = "http://localhost:11434"

func init() {
	generation.Register("ollama", func(opts generation.Options) generation.Generator {
		return New(opts.BaseURL, &http.Client{Timeout: opts.Timeout})
	})
}

// Client is a thin HTTP client for the Ollama generate API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a new Ollama client.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type apiRequest struct {
	Model   string     `json:"model"`
	Prompt  string     `json:"prompt"`
	Stream  bool       `json:"stream"`
	Options apiOptions `json:"options"`
}

type apiOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type apiResponse struct {
	Response string `json:"response"`
}

// Generate calls POST /api/generate without streaming.
func (c *Client) Generate(ctx context.Context, req generation.Request) (string, error) {
	body := apiRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Options: apiOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	var resp apiResponse
	if err := generation.PostJSON(ctx, c.http, "ollama", c.baseURL+"/api/generate", nil, body, &resp); err != nil {
		return "", err
	}
	return generation.CheckText(resp.Response)
}

// ModelInfo describes a locally available model.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	Digest     string    `json:"digest"`
}

// Version returns the Ollama server version via GET /api/version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var result struct {
		Version string `json:"version"`
	}
	if err := generation.GetJSON(ctx, c.http, "ollama", c.baseURL+"/api/version", &result); err != nil {
		return "", fmt.Errorf("checking version: %w", err)
	}
	return result.Version, nil
}

// ListModels returns locally available models via GET /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var result struct {
		Models []ModelInfo `json:"models"`
	}
	if err := generation.GetJSON(ctx, c.http, "ollama", c.baseURL+"/api/tags", &result); err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	return result.Models, nil
}
