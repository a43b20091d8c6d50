package main

import (
	"github.com/use-agent/charscrape/cleaner"
	"github.com/use-agent/charscrape/config"
	"github.com/use-agent/charscrape/engine"
	"github.com/use-agent/charscrape/llm"
	"github.com/use-agent/charscrape/scraper"
	"github.com/use-agent/charscrape/urlcheck"
)

func newService(cfg *config.Config) *scraper.Service {
	httpEngine := engine.NewHTTPEngine(engine.ClientOptions{
		Timeout:      cfg.Fetch.HTTPTimeout,
		RetryMax:     cfg.Fetch.RetryMax,
		RetryWaitMin: cfg.Fetch.RetryWaitMin,
		RetryWaitMax: cfg.Fetch.RetryWaitMax,
	})

	var selector scraper.BackendSelector
	if cfg.Browser.Enabled {
		selector = newSelector(cfg.Browser, cfg.Fetch)
	}

	return scraper.NewService(
		selector,
		httpEngine,
		cleaner.NewCleaner(cleanerOptions(cfg.Cleaner)),
		scraper.Options{
			MinHTTPChars:   cfg.Cleaner.MinChars,
			Dedupe:         cfg.Scraper.Dedupe,
			DedupeDistance: cfg.Scraper.DedupeDistance,
		},
		config.NewPreferenceStore(cfg.Browser.PreferenceFile),
	)
}

func newSelector(b config.BrowserConfig, f config.FetchConfig) *engine.Selector {
	candidates := engine.CandidatesFromNames(b.Order)
	if b.BrowserBin != "" && len(candidates) > 0 {
		candidates[0].BinaryPath = b.BrowserBin
	}
	drivers := engine.NewDrivers(engine.DriverOptions{
		Headless:             b.Headless,
		NoSandbox:            b.NoSandbox,
		Stealth:              b.Stealth,
		BlockAds:             b.BlockAds,
		BlockedResourceTypes: b.BlockedResourceTypes,
		Chromium:             b.ChromiumDriver,
	})
	return engine.NewSelector(candidates, drivers, engine.WithTimings(engine.Timings{
		PageLoad:     f.PageLoadTimeout,
		BodyWait:     f.BodyWaitTimeout,
		SelectorWait: f.SelectorWaitTimeout,
		Settle:       f.SettleDelay,
		ScrollPause:  f.ScrollPause,
	}))
}

func cleanerOptions(c config.CleanerConfig) cleaner.Options {
	return cleaner.Options{
		MinWords:         c.MinWords,
		DensityFloor:     c.DensityFloor,
		LandmarkMaxWords: c.LandmarkMaxWords,
		PatternMaxWords:  c.PatternMaxWords,
		MaxTableRows:     c.MaxTableRows,
		MaxTableCols:     c.MaxTableCols,
		MaxEmptyRows:     c.MaxEmptyRows,
		SiteSelectors:    c.SiteSelectors,
	}
}

func newProber(f config.FetchConfig) *urlcheck.Prober {
	return urlcheck.NewProber(f.ProbeTimeout, 1)
}

func newGenerator(c config.LLMConfig) (*llm.Client, error) {
	return llm.NewClient(llm.Options{
		Provider:   c.Provider,
		APIKey:     c.APIKey,
		Model:      c.Model,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxRetries: 2,
	})
}
