package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"climate-dashboard/internal/domain"
	"climate-dashboard/internal/provider"
)

// Name identifies this provider in fallback results and logs.
const Name = "huggingface"

const (
	defaultBaseURL = "https://api-inference.huggingface.co"
	defaultModel   = "mistralai/Mistral-7B-Instruct-v0.2"
	maxNewTokens   = 500
	temperature    = 0.7
	maxErrorBody   = 4096
)

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

// ClientConfig captures the knobs exposed to operators.
type ClientConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the hosted text-generation inference API.
type Client struct {
	http   *resty.Client
	apiKey string
	model  string
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout).
			SetRetryCount(0),
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
	}
}

// Available reports whether an API token is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Generate renders messages into a single prompt and returns the completion.
func (c *Client) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if !c.Available() {
		return "", provider.Unavailable(Name)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(generateRequest{
			Inputs: renderPrompt(messages),
			Parameters: generateParameters{
				MaxNewTokens:   maxNewTokens,
				Temperature:    temperature,
				ReturnFullText: false,
			},
		}).
		Post("/models/" + c.model)
	if err != nil {
		return "", provider.Transport(Name, err)
	}
	if resp.IsError() {
		return "", provider.Rejected(Name, resp.StatusCode(), truncate(resp.String(), maxErrorBody))
	}

	var out []generation
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", provider.Malformed(Name, fmt.Errorf("decode response: %w", err))
	}
	if len(out) == 0 {
		return "", provider.Malformed(Name, errors.New("no generations in response"))
	}
	text := strings.TrimSpace(out[0].GeneratedText)
	if text == "" {
		return "", provider.Malformed(Name, errors.New("empty generation"))
	}
	return text, nil
}

// renderPrompt flattens chat messages into the plain-text prompt the
// text-generation endpoint expects, ending with an open assistant turn.
func renderPrompt(messages []domain.ChatMessage) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			b.WriteString("System: ")
		case domain.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(strings.TrimSpace(m.Content))
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
