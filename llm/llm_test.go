package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/charscrape/models"
)

const answer = `Here is the profile.

**NAME:** Captain Mira Vale
DESCRIPTION: A weathered *sea captain* who keeps the northern lighthouse.
She has sailed for thirty years.
PERSONALITY_SUMMARY: Stern but kind.
scenario: {{user}} washes ashore after a storm.
GREETING_MESSAGE: *She lowers the lantern.* "You're lucky the tide turned."
EXAMPLE_MESSAGES: <START>
{{user}}: "Where am I?"
{{char}}: *She points north.* "Vale Point."`

func TestParseProfile(t *testing.T) {
	p := ParseProfile(answer)

	assert.Equal(t, "Captain Mira Vale", p.Name)
	assert.Equal(t, "A weathered sea captain who keeps the northern lighthouse.\nShe has sailed for thirty years.", p.Description)
	assert.Equal(t, "Stern but kind.", p.Personality)
	assert.Equal(t, "{{user}} washes ashore after a storm.", p.Scenario)
	assert.Equal(t, `She lowers the lantern. "You're lucky the tide turned."`, p.Greeting)
	assert.True(t, strings.HasPrefix(p.Examples, "<START>\n{{user}}"))
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"no labels", "just some prose", map[string]string{}},
		{"heading markers", "## NAME: Ash\n### SCENARIO: A forest", map[string]string{"NAME": "Ash", "SCENARIO": "A forest"}},
		{"first occurrence wins", "NAME: Ash\nNAME: Birch", map[string]string{"NAME": "Ash"}},
		{"label mid line is text", "DESCRIPTION: her NAME: is secret", map[string]string{"DESCRIPTION": "her NAME: is secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFields(tt.in))
		})
	}
}

func TestSourceMessage(t *testing.T) {
	assert.Equal(t, "", sourceMessage("  ", ""))
	assert.Equal(t, "text", sourceMessage(" text ", ""))
	assert.Equal(t, "ADDITIONAL INSTRUCTIONS:\nbe brief", sourceMessage("", "be brief"))
	assert.Equal(t, "text\nADDITIONAL INSTRUCTIONS:\nbe brief", sourceMessage("text", "be brief"))
}

func TestImageDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", (&Image{MIME: "image/png", Data: []byte{1, 2}}).DataURL())
	assert.Equal(t, "data:image/jpeg;base64,", (&Image{}).DataURL())
}

func TestLookupProvider(t *testing.T) {
	p, ok := LookupProvider(" Groq ")
	require.True(t, ok)
	assert.Equal(t, "llama-3.1-70b-versatile", p.DefaultModel)
	assert.False(t, p.Vision)

	_, ok = LookupProvider("anthropic")
	assert.False(t, ok)
}

// chatRequest is the subset of the request body the tests inspect.
type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, body string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if got != nil {
			require.NoError(t, json.Unmarshal(raw, got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
	})
	return string(b)
}

func newTestClient(t *testing.T, provider, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Options{Provider: provider, APIKey: "test-key", BaseURL: baseURL, Model: "test-model"})
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	var req chatRequest
	srv := completionServer(t, http.StatusOK, completion(answer), &req)
	c := newTestClient(t, "openrouter", srv.URL)

	res, err := c.Generate(context.Background(), "scraped text", "make her older", nil)
	require.NoError(t, err)

	assert.Equal(t, "Captain Mira Vale", res.Profile.Name)
	assert.Equal(t, answer, res.Raw)
	assert.Equal(t, 150, res.Usage.TotalTokens)

	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, string(req.Messages[0].Content), "ADDITIONAL INSTRUCTIONS")
	assert.Equal(t, "user", req.Messages[2].Role)
}

func TestGenerate_Image(t *testing.T) {
	var req chatRequest
	srv := completionServer(t, http.StatusOK, completion(answer), &req)
	c := newTestClient(t, "gemini", srv.URL)

	_, err := c.Generate(context.Background(), "", "", &Image{MIME: "image/png", Data: []byte("png")})
	require.NoError(t, err)

	require.Len(t, req.Messages, 2)
	assert.Contains(t, string(req.Messages[1].Content), "data:image/png;base64,")
}

func TestGenerate_ImageDroppedForTextOnlyProvider(t *testing.T) {
	var req chatRequest
	srv := completionServer(t, http.StatusOK, completion(answer), &req)
	c := newTestClient(t, "groq", srv.URL)

	_, err := c.Generate(context.Background(), "text", "", &Image{Data: []byte("jpg")})
	require.NoError(t, err)
	assert.NotContains(t, string(req.Messages[len(req.Messages)-1].Content), "base64")

	_, err = c.Generate(context.Background(), "", "", &Image{Data: []byte("jpg")})
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, models.ErrCodeLLMAuthFailure},
		{"forbidden", http.StatusForbidden, `{"error":{"message":"no access"}}`, models.ErrCodeLLMAuthFailure},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, models.ErrCodeLLMRateLimited},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad model"}}`, models.ErrCodeLLMFailure},
		{"no name", http.StatusOK, completion("I cannot help with that."), models.ErrCodeLLMFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.status, tt.body, nil)
			c := newTestClient(t, "openai", srv.URL)

			_, err := c.Generate(context.Background(), "text", "", nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, models.CodeOf(err))
		})
	}
}

func TestGenerate_MissingKey(t *testing.T) {
	c, err := NewClient(Options{Provider: "groq"})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "text", "", nil)
	assert.Equal(t, models.ErrCodeLLMAuthFailure, models.CodeOf(err))
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(Options{Provider: "nope"})
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Options{Provider: "openrouter", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", c.Model())
	assert.Equal(t, "openrouter", c.Provider().Name)
}
