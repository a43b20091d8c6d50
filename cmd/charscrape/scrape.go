package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/use-agent/charscrape/cleaner"
	"github.com/use-agent/charscrape/models"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	res := deps.Scraper.Scrape(deps.Ctx, c.URLs, c.HTTPOnly)
	text := res.Document.Text()

	printOutcomes(deps.Stderr, res.Summary)
	fmt.Fprintf(deps.Stderr, "Scraped %d/%d pages, %d tokens\n",
		res.Summary.Successful, res.Summary.Total, cleaner.CountTokens(text))

	if res.Document.Empty() {
		return errors.New("no content scraped")
	}
	if c.Out == "" {
		_, err := io.WriteString(deps.Stdout, text)
		return err
	}
	if err := os.WriteFile(c.Out, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", c.Out, err)
	}
	fmt.Fprintf(deps.Stderr, "Wrote %s\n", c.Out)
	return nil
}

func printOutcomes(w io.Writer, s models.BatchSummary) {
	for _, o := range s.Outcomes {
		if o.State == models.StateSuccess {
			fmt.Fprintf(w, "  ok      %s  %q via %s\n", o.URL, o.Title, o.Method)
			continue
		}
		fmt.Fprintf(w, "  failed  %s  %s\n", o.URL, o.Code)
	}
}
