package scraper

import (
	"context"
	"log/slog"

	"github.com/use-agent/charscrape/engine"
	"github.com/use-agent/charscrape/models"
)

// PreferenceStore loads and persists the browser preference between runs.
type PreferenceStore interface {
	Load() (models.BrowserPreference, error)
	SaveIfChanged(old, pref models.BrowserPreference) (bool, error)
}

// Service runs batches against the stored browser preference and writes
// back whatever backend ended up initializing.
type Service struct {
	full     *Scraper
	httpOnly *Scraper
	prefs    PreferenceStore
}

// NewService wires a Service. prefs may be nil, in which case every batch
// starts from the default candidate order and nothing is persisted.
func NewService(selector BackendSelector, httpEngine engine.Engine, extractor Extractor, opts Options, prefs PreferenceStore) *Service {
	httpOpts := opts
	httpOpts.HTTPOnly = true
	return &Service{
		full:     NewScraper(selector, httpEngine, extractor, opts),
		httpOnly: NewScraper(selector, httpEngine, extractor, httpOpts),
		prefs:    prefs,
	}
}

// Scrape runs one batch. httpOnly skips the browser for this batch only.
func (s *Service) Scrape(ctx context.Context, urls []string, httpOnly bool) *Result {
	pref := s.Preference()

	sc := s.full
	if httpOnly {
		sc = s.httpOnly
	}
	res := sc.Run(ctx, urls, pref)

	if res.PreferenceChanged && s.prefs != nil {
		if _, err := s.prefs.SaveIfChanged(pref, res.Preference); err != nil {
			slog.Warn("scrape: saving browser preference", "error", err)
		} else {
			slog.Info("scrape: browser preference updated", "browser", res.Preference.BrowserName)
		}
	}
	return res
}

// Preference returns the stored preference, or the zero value when none
// is stored or it cannot be read.
func (s *Service) Preference() models.BrowserPreference {
	if s.prefs == nil {
		return models.BrowserPreference{}
	}
	pref, err := s.prefs.Load()
	if err != nil {
		slog.Warn("scrape: loading browser preference, using defaults", "error", err)
		return models.BrowserPreference{}
	}
	return pref
}
