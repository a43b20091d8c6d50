package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/use-agent/charscrape/models"
)

// maxBody caps how much of a response is read.
const maxBody = 10 << 20

// HTTPEngine is the fallback fetcher. It issues a plain GET through the
// retry client and degrades certificate verification once when the TLS
// handshake fails.
type HTTPEngine struct {
	client   *retryablehttp.Client
	insecure *retryablehttp.Client
}

// NewHTTPEngine creates an HTTPEngine with a Chrome-like TLS fingerprint.
func NewHTTPEngine(opts ClientOptions) *HTTPEngine {
	insecure := opts
	insecure.Insecure = true
	return &HTTPEngine{
		client:   NewRetryClient(opts),
		insecure: NewRetryClient(insecure),
	}
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	downgraded := false
	resp, err := e.do(ctx, e.client, req.URL)
	if err != nil && IsTLSError(err) {
		slog.Warn("tls verification failed, retrying without certificate verification",
			"url", req.URL, "error", err,
		)
		downgraded = true
		resp, err = e.do(ctx, e.insecure, req.URL)
	}
	if err != nil {
		return nil, categorizeError(err, "http request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, models.NewScrapeError(models.ErrCodeHTTPStatus,
			fmt.Sprintf("server answered %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, categorizeError(err, "read response body")
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	if !isTextContentType(ct) {
		return nil, models.NewScrapeError(models.ErrCodeContentType,
			fmt.Sprintf("unsupported content type %q", ct), nil)
	}

	bodyStr := decodeBody(body, ct)
	return &FetchResult{
		HTML:       bodyStr,
		Title:      extractTitle(bodyStr),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
		Downgraded: downgraded,
	}, nil
}

func (e *HTTPEngine) do(ctx context.Context, client *retryablehttp.Client, url string) (*http.Response, error) {
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeMalformedURL, "build request", err)
	}
	setBrowserHeaders(httpReq.Header)
	return client.Do(httpReq)
}

// isTextContentType accepts HTML and plain text.
func isTextContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "application/xhtml+xml") ||
		strings.Contains(ct, "text/plain")
}

// decodeBody converts body to UTF-8. A charset in the Content-Type wins;
// otherwise bytes that are not valid UTF-8 go through charset detection.
func decodeBody(body []byte, contentType string) string {
	label := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = params["charset"]
	}
	if label == "" {
		if utf8.Valid(body) {
			return string(body)
		}
		if res, err := chardet.NewTextDetector().DetectBest(body); err == nil && res.Confidence >= 30 {
			label = res.Charset
		}
	}
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return string(body)
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		slog.Debug("unknown charset, keeping raw bytes", "charset", label, "error", err)
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
