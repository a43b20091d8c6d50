package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

var (
	apiURL   = flag.String("api-url", "http://localhost:8080", "charscrape API base URL")
	apiKey   = flag.String("api-key", "", "API key for authenticated requests")
	runs     = flag.Int("runs", 3, "Number of runs per batch for averaging")
	httpOnly = flag.Bool("http-only", false, "Skip the browser backend")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Batches cover the kinds of pages character material usually comes from.
var batches = []struct {
	Label string
	URLs  []string
}{
	{"Static", []string{"https://example.com"}},
	{"Wiki", []string{"https://en.wikipedia.org/wiki/Sherlock_Holmes"}},
	{"Fandom", []string{"https://bakerstreet.fandom.com/wiki/Sherlock_Holmes"}},
	{"Mixed", []string{
		"https://en.wikipedia.org/wiki/Dr._Watson",
		"https://en.wikipedia.org/wiki/Mrs._Hudson",
		"https://example.com",
	}},
}

// Wire types, mirroring the models package.

type scrapeRequest struct {
	URLs     []string `json:"urls"`
	HTTPOnly bool     `json:"http_only,omitempty"`
}

type scrapeResponse struct {
	Success bool         `json:"success"`
	Content string       `json:"content"`
	Summary batchSummary `json:"summary"`
	Tokens  int          `json:"tokens"`
	Timing  struct {
		TotalMs int64 `json:"total_ms"`
	} `json:"timing"`
	Error *errorDetail `json:"error,omitempty"`
}

type batchSummary struct {
	Successful int `json:"successful"`
	Total      int `json:"total"`
	Outcomes   []struct {
		URL    string `json:"url"`
		Method string `json:"method"`
	} `json:"outcomes"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type runResult struct {
	Run           int      `json:"run"`
	TotalMs       int64    `json:"total_ms"`
	Successful    int      `json:"successful"`
	Total         int      `json:"total"`
	Tokens        int      `json:"tokens"`
	ContentLength int      `json:"content_length"`
	Methods       []string `json:"methods"`
	Success       bool     `json:"success"`
	Error         string   `json:"error,omitempty"`
}

type batchAverages struct {
	TotalMs       float64 `json:"total_ms"`
	Tokens        float64 `json:"tokens"`
	ContentLength float64 `json:"content_length"`
	SuccessRate   float64 `json:"success_rate"`
}

type batchResult struct {
	Label    string         `json:"label"`
	URLs     []string       `json:"urls"`
	Runs     []runResult    `json:"runs"`
	Averages *batchAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string        `json:"timestamp"`
	APIURL     string        `json:"api_url"`
	RunsPerURL int           `json:"runs_per_batch"`
	HTTPOnly   bool          `json:"http_only"`
	Results    []batchResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== charscrape benchmark ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Runs/batch: %d\n", *runs)
	fmt.Printf("HTTP only:  %t\n", *httpOnly)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Start the server first: charscrape serve\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
		HTTPOnly:   *httpOnly,
	}

	for _, b := range batches {
		fmt.Printf("Benchmarking [%s] %d URL(s) ...\n", b.Label, len(b.URLs))
		br := batchResult{Label: b.Label, URLs: b.URLs}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkBatch(b.URLs, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d/%d pages  %d tokens\n", rr.TotalMs, rr.Successful, rr.Total, rr.Tokens)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			br.Runs = append(br.Runs, rr)
		}

		br.Averages = computeAverages(br.Runs)
		report.Results = append(report.Results, br)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkBatch(urls []string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(scrapeRequest{URLs: urls, HTTPOnly: *httpOnly})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	// Batches are sequential server-side, so allow a few minutes.
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.TotalMs = sr.Timing.TotalMs
	rr.Successful = sr.Summary.Successful
	rr.Total = sr.Summary.Total
	rr.Tokens = sr.Tokens
	rr.ContentLength = len(sr.Content)
	for _, o := range sr.Summary.Outcomes {
		rr.Methods = append(rr.Methods, o.Method)
	}
	if sr.Error != nil {
		rr.Error = sr.Error.Code + ": " + sr.Error.Message
	}
	return rr
}

func computeAverages(runs []runResult) *batchAverages {
	var successCount int
	var avg batchAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.Tokens += float64(r.Tokens)
		avg.ContentLength += float64(r.ContentLength)
		if r.Total > 0 {
			avg.SuccessRate += float64(r.Successful) / float64(r.Total) * 100
		}
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.Tokens /= n
	avg.ContentLength /= n
	avg.SuccessRate /= n
	return &avg
}

func printTable(results []batchResult) {
	fmt.Println(strings.Repeat("─", 80))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Batch\tURLs\tAvg Latency\tPages OK\tTokens\tContent Len\n")
	fmt.Fprintf(w, "─────\t────\t───────────\t────────\t──────\t───────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t%d\tFAILED\t-\t-\t-\n", r.Label, len(r.URLs))
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%dms\t%.0f%%\t%s\t%s\n",
			r.Label,
			len(r.URLs),
			int64(r.Averages.TotalMs),
			r.Averages.SuccessRate,
			formatInt(int(r.Averages.Tokens)),
			formatInt(int(r.Averages.ContentLength)),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 80))
}

func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
