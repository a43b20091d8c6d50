package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/charscrape/models"
)

// Locator finds the binary of a browser family. It returns "" with a nil
// error when the driver can supply its own browser.
type Locator func(t BrowserType) (string, error)

// Selector walks the candidate backends in preference order and returns the
// first one that starts. It holds no state between calls: the remembered
// preference comes in as an argument and the new one goes out as a result.
type Selector struct {
	candidates []Candidate
	drivers    map[BrowserType]Driver
	locate     Locator
	timings    Timings
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithLocator replaces the binary lookup.
func WithLocator(l Locator) SelectorOption {
	return func(s *Selector) { s.locate = l }
}

// WithTimings sets the step limits of the engines the selector returns.
func WithTimings(t Timings) SelectorOption {
	return func(s *Selector) { s.timings = t }
}

// NewSelector creates a Selector. Candidates without a driver are skipped
// at selection time.
func NewSelector(candidates []Candidate, drivers map[BrowserType]Driver, opts ...SelectorOption) *Selector {
	s := &Selector{
		candidates: candidates,
		drivers:    drivers,
		locate:     LocateBrowser,
		timings:    DefaultTimings(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Select starts the first working backend. The returned preference
// describes the winner and should be persisted when it differs from pref.
// On exhaustion it returns an ErrCodeNoBackend error and pref unchanged.
func (s *Selector) Select(ctx context.Context, pref models.BrowserPreference) (Backend, models.BrowserPreference, error) {
	var errs []error
	for _, c := range s.order(pref) {
		if err := ctx.Err(); err != nil {
			return nil, pref, err
		}

		driver, ok := s.drivers[c.Type]
		if !ok || driver == nil {
			slog.Debug("no driver for browser", "browser", c.Name, "type", c.Type)
			continue
		}

		session, bin, err := s.launch(ctx, driver, c)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}

		slog.Info("browser backend ready", "browser", c.Name, "binary", bin)
		next := models.BrowserPreference{BrowserName: c.Name, BrowserType: string(c.Type)}
		if bin != "" {
			next.BinaryPath = &bin
		}
		return NewBrowserEngine(c.Name, session, s.timings), next, nil
	}

	return nil, pref, models.NewScrapeError(models.ErrCodeNoBackend, "no browser backend available", errors.Join(errs...))
}

// launch starts one candidate and returns the binary it ran.
func (s *Selector) launch(ctx context.Context, driver Driver, c Candidate) (Session, string, error) {
	bin := c.BinaryPath
	if bin == "" {
		found, err := s.locate(c.Type)
		if err != nil {
			slog.Info("browser not found, trying next candidate", "browser", c.Name, "error", err)
			return nil, "", err
		}
		bin = found
	}

	session, err := driver.Launch(ctx, bin)
	if err == nil {
		return session, bin, nil
	}
	slog.Warn("browser failed to start", "browser", c.Name, "binary", bin, "error", err)
	if !c.remembered {
		return nil, bin, err
	}

	found, lerr := s.locate(c.Type)
	if lerr != nil || found == bin {
		return nil, bin, err
	}
	slog.Info("remembered browser binary failed, retrying with located binary",
		"browser", c.Name, "stale", bin, "binary", found,
	)
	session, err = driver.Launch(ctx, found)
	if err != nil {
		slog.Warn("browser failed to start", "browser", c.Name, "binary", found, "error", err)
		return nil, found, err
	}
	return session, found, nil
}

// order puts the remembered backend first, carrying over its stored binary
// path, and keeps the rest in configured order.
func (s *Selector) order(pref models.BrowserPreference) []Candidate {
	out := make([]Candidate, 0, len(s.candidates)+1)
	if pref.IsZero() {
		return append(out, s.candidates...)
	}

	prefType, err := ParseBrowserType(pref.BrowserType)
	if err != nil {
		return append(out, s.candidates...)
	}

	front := Candidate{Name: pref.BrowserName, Type: prefType, BinaryPath: pref.Binary(), remembered: pref.Binary() != ""}
	if front.Name == "" {
		front.Name = string(prefType)
	}
	rest := make([]Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if c.Name == front.Name || (c.Type == prefType && c.Name == string(c.Type)) {
			if front.BinaryPath == "" {
				front.BinaryPath = c.BinaryPath
			}
			continue
		}
		rest = append(rest, c)
	}
	out = append(out, front)
	return append(out, rest...)
}

// IsNoBackend reports whether err means no browser could be started.
func IsNoBackend(err error) bool {
	return models.CodeOf(err) == models.ErrCodeNoBackend
}
