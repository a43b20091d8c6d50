package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/charscrape/models"
)

// readySelectors indicate that the main content has rendered, most specific
// first. None matching is not an error.
var readySelectors = []string{
	"article",
	"main",
	"[role='main']",
	"#mw-content-text",
	"#content",
	".post-content",
	".entry-content",
	".content",
}

const (
	scrollMiddleJS = `window.scrollTo(0, Math.floor(document.body.scrollHeight / 2))`
	scrollTopJS    = `window.scrollTo(0, 0)`
)

// BrowserEngine fetches pages through a live browser Session. One engine
// serves a whole batch, one navigation at a time.
type BrowserEngine struct {
	name    string
	session Session
	timings Timings
}

// NewBrowserEngine wraps an already launched session.
func NewBrowserEngine(name string, session Session, timings Timings) *BrowserEngine {
	return &BrowserEngine{name: name, session: session, timings: timings}
}

func (e *BrowserEngine) Name() string { return e.name }

// Fetch loads req.URL and returns the rendered markup.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Navigate         – bounded by the page-load timeout
//  2. Body wait        – bounded; a timeout still proceeds to extraction
//  3. Content wait     – first matching ready selector wins, none is fine
//  4. Settle + scroll  – deferred rendering, then midpoint and back to top
//  5. Extract          – title (best-effort) and full markup
func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	// ── 1. Navigate ───────────────────────────────────────────────────
	navCtx, navCancel := context.WithTimeout(ctx, e.timings.PageLoad)
	err := e.session.Navigate(navCtx, req.URL)
	navCancel()
	if err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	// ── 2. Wait for <body> ────────────────────────────────────────────
	if err := e.waitFor(ctx, "body", e.timings.BodyWait); err != nil {
		slog.Debug("body did not appear in time, extracting anyway",
			"url", req.URL, "engine", e.name, "error", err,
		)
	}

	// ── 3. Wait for a content container ──────────────────────────────
	for _, sel := range readySelectors {
		if ctx.Err() != nil {
			break
		}
		if err := e.waitFor(ctx, sel, e.timings.SelectorWait); err == nil {
			slog.Debug("content ready", "url", req.URL, "selector", sel)
			break
		}
	}

	// ── 4. Settle, then scroll to trigger lazy loading ────────────────
	pause(ctx, e.timings.Settle)
	for _, js := range []string{scrollMiddleJS, scrollTopJS} {
		if err := e.session.Eval(ctx, js); err != nil {
			slog.Debug("scroll failed", "url", req.URL, "error", err)
			break
		}
		pause(ctx, e.timings.ScrollPause)
	}

	// ── 5. Extract ────────────────────────────────────────────────────
	rawHTML, err := e.session.HTML(ctx)
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	title, err := e.session.Title(ctx)
	if err != nil {
		slog.Debug("title unavailable", "url", req.URL, "error", err)
		title = ""
	}

	return &FetchResult{
		HTML:       rawHTML,
		Title:      title,
		FinalURL:   req.URL,
		EngineName: e.name,
	}, nil
}

// Close releases the browser process.
func (e *BrowserEngine) Close() error {
	if err := e.session.Close(); err != nil {
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "close browser", err)
	}
	return nil
}

func (e *BrowserEngine) waitFor(ctx context.Context, selector string, d time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return e.session.WaitFor(wctx, selector)
}

// pause sleeps for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
