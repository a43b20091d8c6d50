// Package llm generates a character profile from scraped text through any
// OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/use-agent/charscrape/models"
)

// Provider describes an OpenAI-compatible endpoint.
type Provider struct {
	Name         string
	BaseURL      string
	DefaultModel string

	// Vision reports whether the provider's default model accepts images.
	Vision bool
}

var providers = map[string]Provider{
	"groq": {
		Name:         "groq",
		BaseURL:      "https://api.groq.com/openai/v1",
		DefaultModel: "llama-3.1-70b-versatile",
	},
	"openrouter": {
		Name:         "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "openai/gpt-4o-mini",
		Vision:       true,
	},
	"gemini": {
		Name:         "gemini",
		BaseURL:      "https://generativelanguage.googleapis.com/v1beta/openai/",
		DefaultModel: "gemini-2.0-flash-exp",
		Vision:       true,
	},
	"openai": {
		Name:         "openai",
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4o-mini",
		Vision:       true,
	},
}

// LookupProvider returns the provider registered under name.
func LookupProvider(name string) (Provider, bool) {
	p, ok := providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Options configures a Client. Model and BaseURL override the provider
// defaults when set.
type Options struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int

	// HTTPClient replaces the SDK's default client. Used by tests.
	HTTPClient *http.Client
}

// Client generates profiles with one provider.
type Client struct {
	api      openai.Client
	provider Provider
	model    string
	hasKey   bool
}

// Result is a generated profile plus the raw model answer.
type Result struct {
	Profile *models.Profile
	Raw     string
	Usage   *models.LLMUsage
}

// NewClient builds a Client. An unknown provider is an INVALID_INPUT error;
// a missing API key is only reported when Generate is called.
func NewClient(opts Options) (*Client, error) {
	p, ok := LookupProvider(opts.Provider)
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown LLM provider %q", opts.Provider), nil)
	}
	baseURL := p.BaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	model := p.DefaultModel
	if opts.Model != "" {
		model = opts.Model
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	if p.Name == "openrouter" {
		reqOpts = append(reqOpts,
			option.WithHeader("HTTP-Referer", "https://github.com/use-agent/charscrape"),
			option.WithHeader("X-Title", "charscrape"),
		)
	}

	return &Client{
		api:      openai.NewClient(reqOpts...),
		provider: p,
		model:    model,
		hasKey:   strings.TrimSpace(opts.APIKey) != "",
	}, nil
}

// Provider returns the configured provider.
func (c *Client) Provider() Provider { return c.provider }

// Model returns the model requests are sent to.
func (c *Client) Model() string { return c.model }

// Generate asks the model for a profile. content is the aggregate scraped
// text, instructions are optional caller guidance and img is optional.
// Providers without vision support get the text only.
func (c *Client) Generate(ctx context.Context, content, instructions string, img *Image) (*Result, error) {
	if !c.hasKey {
		return nil, models.NewScrapeError(models.ErrCodeLLMAuthFailure,
			c.provider.Name+" API key not set", nil)
	}
	if img != nil && !c.provider.Vision {
		slog.Warn("llm: provider does not accept images, ignoring image", "provider", c.provider.Name)
		img = nil
	}
	if strings.TrimSpace(content) == "" && img == nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "no content provided", nil)
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    buildMessages(content, instructions, img),
		MaxTokens:   openai.Int(4000),
		Temperature: openai.Float(0.7),
	}

	slog.Info("llm: generating profile", "provider", c.provider.Name, "model", c.model, "image", img != nil)
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}

	raw := resp.Choices[0].Message.Content
	profile := ParseProfile(raw)
	if profile.Name == "" {
		return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM response has no NAME field", nil)
	}

	return &Result{
		Profile: profile,
		Raw:     raw,
		Usage: &models.LLMUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// classifyError maps SDK errors to error codes.
func classifyError(err error) *models.ScrapeError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return models.NewScrapeError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	msg := apiErr.Message
	if msg == "" {
		msg = "LLM API error"
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, msg, err)
	case http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure,
			fmt.Sprintf("LLM API returned %d: %s", apiErr.StatusCode, msg), err)
	}
}
