// Package scraper runs a batch of URLs through fetch and extraction, one
// URL at a time, and assembles the title-delimited aggregate document.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/use-agent/charscrape/cleaner"
	"github.com/use-agent/charscrape/engine"
	"github.com/use-agent/charscrape/models"
	"github.com/use-agent/charscrape/simhash"
	"github.com/use-agent/charscrape/urlcheck"
)

// BackendSelector acquires a live browser backend for a batch.
type BackendSelector interface {
	Select(ctx context.Context, pref models.BrowserPreference) (engine.Backend, models.BrowserPreference, error)
}

// Extractor turns fetched markup into a titled page.
type Extractor interface {
	ExtractPage(rawHTML, fetchedTitle, sourceURL string) (*cleaner.Page, error)
}

// Options tunes a Scraper.
type Options struct {
	// HTTPOnly skips browser acquisition entirely.
	HTTPOnly bool

	// PageTimeout bounds each fetch attempt. Zero leaves it to the engine.
	PageTimeout time.Duration

	// MinHTTPChars is the length the extracted text of an HTTP fallback
	// fetch must exceed to count as a success.
	MinHTTPChars int

	// Dedupe drops sections whose text is a near duplicate of an earlier
	// section of the same batch, within DedupeDistance bits.
	Dedupe         bool
	DedupeDistance int
}

// Result is the outcome of a batch. Preference is the backend preference
// to persist; PreferenceChanged reports whether it differs from the one
// passed to Run.
type Result struct {
	Document          models.ExtractedDocument
	Summary           models.BatchSummary
	Preference        models.BrowserPreference
	PreferenceChanged bool
}

// Scraper owns the per-batch retrieval state machine:
//
//	PENDING → BROWSER_ATTEMPT → (SUCCESS | HTTP_FALLBACK) → (SUCCESS | FAILED)
//
// A Scraper may be reused across batches but a single batch is strictly
// sequential.
type Scraper struct {
	selector  BackendSelector
	http      engine.Engine
	extractor Extractor
	opts      Options
}

// NewScraper wires a Scraper. selector may be nil, in which case every
// batch runs HTTP-only.
func NewScraper(selector BackendSelector, httpEngine engine.Engine, extractor Extractor, opts Options) *Scraper {
	return &Scraper{
		selector:  selector,
		http:      httpEngine,
		extractor: extractor,
		opts:      opts,
	}
}

// Run scrapes urls in order. It never fails: malformed URLs, fetch errors
// and thin pages become FAILED outcomes and the batch continues. ctx is
// checked between URLs; once it is done the remaining URLs are failed.
// The browser backend is acquired once and always closed before Run
// returns.
func (s *Scraper) Run(ctx context.Context, urls []string, pref models.BrowserPreference) *Result {
	res := &Result{Preference: pref}
	outcomes := make([]models.URLOutcome, len(urls))
	pending := 0
	for i, raw := range urls {
		u := urlcheck.Normalize(raw)
		outcomes[i] = models.URLOutcome{URL: u, State: models.StatePending}
		if !urlcheck.IsWellFormed(u) {
			fail(&outcomes[i], models.NewScrapeError(models.ErrCodeMalformedURL, "malformed URL", nil))
			slog.Warn("scrape: malformed url excluded", "url", raw)
			continue
		}
		pending++
	}

	var backend engine.Backend
	if pending > 0 && !s.opts.HTTPOnly && s.selector != nil {
		b, newPref, err := s.selector.Select(ctx, pref)
		if err != nil {
			slog.Warn("scrape: no browser backend, continuing http-only", "error", err)
		} else {
			backend = b
			defer func() {
				if err := backend.Close(); err != nil {
					slog.Warn("scrape: closing browser backend", "engine", backend.Name(), "error", err)
				}
			}()
			if !newPref.Equal(pref) {
				res.Preference = newPref
				res.PreferenceChanged = true
			}
		}
	}

	var seen *simhash.Index
	if s.opts.Dedupe {
		seen = simhash.NewIndex(s.opts.DedupeDistance)
	}

	for i := range outcomes {
		out := &outcomes[i]
		if out.State.Terminal() {
			continue
		}
		if err := ctx.Err(); err != nil {
			fail(out, models.NewScrapeError(models.ErrCodeCancelled, "batch cancelled", err))
			continue
		}

		section, err := s.scrapeOne(ctx, backend, out)
		if err != nil {
			fail(out, err)
			slog.Warn("scrape: url failed", "url", out.URL, "state", out.State, "code", out.Code, "error", err)
			continue
		}
		if seen != nil {
			if dup, ok := seen.Match(section.Body); ok {
				fail(out, models.NewScrapeError(models.ErrCodeDuplicate, "near duplicate of "+dup, nil))
				slog.Info("scrape: dropped near duplicate", "url", out.URL, "duplicate_of", dup)
				continue
			}
			seen.Add(out.URL, section.Body)
		}

		out.State = models.StateSuccess
		out.Title = section.Title
		res.Document.Append(*section)
		slog.Info("scrape: url succeeded", "url", out.URL, "engine", out.Method, "title", section.Title)
	}

	res.Summary = models.BatchSummary{
		Successful: len(res.Document.Sections),
		Total:      len(urls),
		Outcomes:   outcomes,
	}
	slog.Info("scrape: batch complete", "successful", res.Summary.Successful, "total", res.Summary.Total)
	return res
}

// scrapeOne tries the browser backend (when present) and then the HTTP
// engine. Any browser-side failure, including thin content, falls back.
func (s *Scraper) scrapeOne(ctx context.Context, backend engine.Backend, out *models.URLOutcome) (*models.Section, error) {
	if backend != nil {
		transition(out, models.StateBrowserAttempt)
		section, err := s.attempt(ctx, backend, out.URL)
		if err == nil {
			out.Method = backend.Name()
			return section, nil
		}
		slog.Warn("scrape: browser attempt failed, falling back to http",
			"url", out.URL, "engine", backend.Name(), "code", models.CodeOf(err), "error", err,
		)
	}

	transition(out, models.StateHTTPFallback)
	section, err := s.attempt(ctx, s.http, out.URL)
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(section.Body); n <= s.opts.MinHTTPChars {
		return nil, models.NewScrapeError(models.ErrCodeContentTooShort,
			fmt.Sprintf("http fallback extracted %d characters, need more than %d", n, s.opts.MinHTTPChars), nil)
	}
	out.Method = s.http.Name()
	return section, nil
}

func (s *Scraper) attempt(ctx context.Context, e engine.Engine, url string) (*models.Section, error) {
	fetched, err := e.Fetch(ctx, &engine.FetchRequest{URL: url, Timeout: s.opts.PageTimeout})
	if err != nil {
		return nil, err
	}
	page, err := s.extractor.ExtractPage(fetched.HTML, fetched.Title, url)
	if err != nil {
		return nil, err
	}
	return &models.Section{SourceURL: url, Title: page.Title, Body: page.Text}, nil
}

func transition(out *models.URLOutcome, state models.URLState) {
	slog.Debug("scrape: state", "url", out.URL, "from", out.State, "to", state)
	out.State = state
}

func fail(out *models.URLOutcome, err error) {
	out.State = models.StateFailed
	out.Code = models.CodeOf(err)
	out.Error = err.Error()
}
