package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/charscrape/models"
)

func apiServer(t *testing.T, path string, status int, resp any, got any) *apiClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return &apiClient{baseURL: srv.URL, apiKey: "k", http: srv.Client()}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestScrapeURLs(t *testing.T) {
	var got models.ScrapeRequest
	api := apiServer(t, "/api/v1/scrape", http.StatusOK, models.ScrapeResponse{
		Success: true,
		Content: "\n# A\n\nBody\n\n---\n",
		Summary: models.BatchSummary{Successful: 1, Total: 2, Outcomes: []models.URLOutcome{
			{URL: "https://a.example.com", State: models.StateSuccess},
			{URL: "https://b.example.com", State: models.StateFailed, Code: models.ErrCodeTimeout},
		}},
		Tokens: 7,
	}, &got)

	res, err := handleScrapeURLs(api)(context.Background(), call(map[string]any{
		"urls":      []any{"https://a.example.com", "https://b.example.com"},
		"http_only": true,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	out := text(t, res)
	assert.Contains(t, out, "# A")
	assert.Contains(t, out, "Scraped 1/2 pages")
	assert.Contains(t, out, "FAILED https://b.example.com: TIMEOUT")
	assert.True(t, got.HTTPOnly)
	assert.Len(t, got.URLs, 2)
}

func TestScrapeURLs_Errors(t *testing.T) {
	res, err := handleScrapeURLs(nil)(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	api := apiServer(t, "/api/v1/scrape", http.StatusUnauthorized, models.ScrapeResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeUnauthorized, Message: "invalid API key"},
	}, nil)
	res, err = handleScrapeURLs(api)(context.Background(), call(map[string]any{"urls": []any{"https://a.example.com"}}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "[UNAUTHORIZED] invalid API key", text(t, res))
}

func TestValidateURL(t *testing.T) {
	var got models.ValidateRequest
	api := apiServer(t, "/api/v1/validate", http.StatusOK, models.ValidateResponse{
		URL: "https://a.example.com", WellFormed: true, Probed: true, Reason: "timeout", Soft: true,
	}, &got)

	res, err := handleValidateURL(api)(context.Background(), call(map[string]any{"url": "a.example.com", "probe": true}))
	require.NoError(t, err)

	out := text(t, res)
	assert.Contains(t, out, "Well formed: true")
	assert.Contains(t, out, "Reachable: false (timeout)")
	assert.Contains(t, out, "transient")
	assert.True(t, got.Probe)
}

func TestGenerateProfile(t *testing.T) {
	var got models.GenerateRequest
	api := apiServer(t, "/api/v1/generate", http.StatusOK, models.GenerateResponse{
		Success: true,
		Profile: &models.Profile{Name: "Mira Vale", Personality: "Stern."},
		Summary: models.BatchSummary{Successful: 1, Total: 1},
		Card:    "e30=",
	}, &got)

	res, err := handleGenerateProfile(api)(context.Background(), call(map[string]any{
		"urls":         []any{"https://a.example.com"},
		"instructions": "older",
	}))
	require.NoError(t, err)

	out := text(t, res)
	assert.Contains(t, out, "NAME: Mira Vale")
	assert.Contains(t, out, "PERSONALITY_SUMMARY: Stern.")
	assert.Contains(t, out, "e30=")
	assert.Equal(t, "older", got.Instructions)
}

func TestGenerateProfile_Failure(t *testing.T) {
	api := apiServer(t, "/api/v1/generate", http.StatusBadGateway, models.GenerateResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeLLMFailure, Message: "no LLM provider configured"},
	}, nil)

	res, err := handleGenerateProfile(api)(context.Background(), call(map[string]any{"urls": []any{"https://a.example.com"}}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "LLM_FAILURE")
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, newServer(&apiClient{}))
}
