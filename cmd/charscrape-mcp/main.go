package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/charscrape/models"
)

func main() {
	apiURL := os.Getenv("CHARSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("CHARSCRAPE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "CHARSCRAPE_API_KEY is required")
		os.Exit(1)
	}

	s := newServer(&apiClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Minute},
	})
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(api *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"charscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("scrape_urls",
		mcp.WithDescription("Scrape one or more pages about a character, in order, and return a single document with one '# Title' section per page. Uses a headless browser and falls back to plain HTTP."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Pages to scrape, in order"),
		),
		mcp.WithBoolean("http_only",
			mcp.Description("Skip the browser and fetch over plain HTTP"),
		),
	), handleScrapeURLs(api))

	s.AddTool(mcp.NewTool("validate_url",
		mcp.WithDescription("Check that a URL is well formed and, optionally, that its host answers."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to check"),
		),
		mcp.WithBoolean("probe",
			mcp.Description("Also send a HEAD/GET request to the host"),
		),
	), handleValidateURL(api))

	s.AddTool(mcp.NewTool("generate_profile",
		mcp.WithDescription("Scrape pages about a character and generate a character profile and chara_card_v3 card with the configured LLM provider."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Source pages about the character"),
		),
		mcp.WithString("instructions",
			mcp.Description("Extra guidance for the model"),
		),
	), handleGenerateProfile(api))

	return s
}

// apiClient forwards tool calls to the charscrape HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// post sends payload to path and decodes the JSON answer into out,
// whatever the status code: error bodies share the response shape.
func (c *apiClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

func errorText(d *models.ErrorDetail, fallback string) string {
	if d == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

func writeOutcomes(sb *strings.Builder, s models.BatchSummary) {
	fmt.Fprintf(sb, "Scraped %d/%d pages\n", s.Successful, s.Total)
	for _, o := range s.Outcomes {
		if o.State != models.StateSuccess {
			fmt.Fprintf(sb, "- FAILED %s: %s\n", o.URL, o.Code)
		}
	}
}

func handleScrapeURLs(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		var resp models.ScrapeResponse
		err = api.post(ctx, "/api/v1/scrape", models.ScrapeRequest{
			URLs:     urls,
			HTTPOnly: request.GetBool("http_only", false),
		}, &resp)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "scrape failed")), nil
		}

		var sb strings.Builder
		sb.WriteString(resp.Content)
		sb.WriteString("\n")
		writeOutcomes(&sb, resp.Summary)
		fmt.Fprintf(&sb, "Tokens: %d\n", resp.Tokens)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleValidateURL(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		var resp models.ValidateResponse
		err = api.post(ctx, "/api/v1/validate", models.ValidateRequest{
			URL:   url,
			Probe: request.GetBool("probe", false),
		}, &resp)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "URL: %s\nWell formed: %t\n", resp.URL, resp.WellFormed)
		if resp.Probed {
			fmt.Fprintf(&sb, "Reachable: %t (%s", resp.Reachable, resp.Reason)
			if resp.StatusCode != 0 {
				fmt.Fprintf(&sb, ", HTTP %d", resp.StatusCode)
			}
			sb.WriteString(")\n")
			if resp.Downgraded {
				sb.WriteString("Certificate verification had to be disabled.\n")
			}
			if resp.Soft {
				sb.WriteString("The failure is transient; scraping may still succeed.\n")
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleGenerateProfile(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		var resp models.GenerateResponse
		err = api.post(ctx, "/api/v1/generate", models.GenerateRequest{
			URLs:         urls,
			Instructions: request.GetString("instructions", ""),
		}, &resp)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success || resp.Profile == nil {
			return mcp.NewToolResultError(errorText(resp.Error, "generation failed")), nil
		}

		p := resp.Profile
		var sb strings.Builder
		fmt.Fprintf(&sb, "NAME: %s\n\nDESCRIPTION: %s\n\nPERSONALITY_SUMMARY: %s\n\nSCENARIO: %s\n\nGREETING_MESSAGE: %s\n\nEXAMPLE_MESSAGES: %s\n\n",
			p.Name, p.Description, p.Personality, p.Scenario, p.Greeting, p.Examples)
		writeOutcomes(&sb, resp.Summary)
		fmt.Fprintf(&sb, "Card (base64 chara_card_v3): %s\n", resp.Card)
		return mcp.NewToolResultText(sb.String()), nil
	}
}
