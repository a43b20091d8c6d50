// Package cleaner turns raw page markup into normalized plain text: it
// detects the main content region, strips boilerplate, renders the DOM to
// markdown-flavoured text and normalizes the result.
package cleaner

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/charscrape/models"
)

// Options holds the extraction heuristics.
type Options struct {
	MinWords         int
	DensityFloor     float64
	LandmarkMaxWords int
	PatternMaxWords  int
	MaxTableRows     int
	MaxTableCols     int
	MaxEmptyRows     int
	// SiteSelectors are scored ahead of the generic region selectors.
	SiteSelectors []string
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		MinWords:         10,
		DensityFloor:     10,
		LandmarkMaxWords: 50,
		PatternMaxWords:  20,
		MaxTableRows:     100,
		MaxTableCols:     10,
		MaxEmptyRows:     3,
		SiteSelectors:    []string{"#mw-content-text .mw-parser-output"},
	}
}

// Page is the cleaned form of one fetched document.
type Page struct {
	Title string
	Text  string
}

// Cleaner runs the extraction pipeline. It is safe for concurrent use.
type Cleaner struct {
	opts     Options
	matchers []cascadia.Selector
	render   renderer
}

// NewCleaner compiles the region selectors once.
func NewCleaner(opts Options) *Cleaner {
	matchers := append(compileSelectors(opts.SiteSelectors), regionMatchers...)
	return &Cleaner{
		opts:     opts,
		matchers: matchers,
		render: renderer{
			maxRows:  opts.MaxTableRows,
			maxCols:  opts.MaxTableCols,
			maxEmpty: opts.MaxEmptyRows,
		},
	}
}

// Extract returns the normalized text of rawHTML. It fails with
// CONTENT_TOO_SHORT when fewer than MinWords words survive.
func (c *Cleaner) Extract(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeExtraction, "failed to parse markup", err)
	}
	return c.extract(doc)
}

// ExtractPage is Extract plus title resolution. fetchedTitle is the title
// reported by the fetcher and wins when non-empty.
func (c *Cleaner) ExtractPage(rawHTML, fetchedTitle, sourceURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to parse markup", err)
	}

	title := resolveTitle(doc, rawHTML, fetchedTitle, sourceURL)
	text, err := c.extract(doc)
	if err != nil {
		return nil, err
	}
	return &Page{Title: title, Text: text}, nil
}

// extract runs strip, detect, strip noise, render and normalize, in that
// order, mutating doc.
func (c *Cleaner) extract(doc *goquery.Document) (string, error) {
	stripNonContent(doc)

	region := detectRegion(doc, c.matchers, c.opts.DensityFloor)
	stripNoise(region, c.opts.LandmarkMaxWords, c.opts.PatternMaxWords)
	prepareCells(region)

	text := Normalize(c.render.render(region.Get(0)), c.opts.MinWords)
	if text == "" {
		return "", models.NewScrapeError(
			models.ErrCodeContentTooShort,
			fmt.Sprintf("fewer than %d words of content", c.opts.MinWords),
			nil,
		)
	}
	return text, nil
}
