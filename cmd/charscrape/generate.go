package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/use-agent/charscrape/card"
	"github.com/use-agent/charscrape/cleaner"
	"github.com/use-agent/charscrape/llm"
)

// Run executes the generate command: scrape, generate, then write the
// card PNG.
func (c *GenerateCmd) Run(deps *Dependencies) error {
	if deps.Generator == nil {
		return fmt.Errorf("profile generator unavailable: %w", deps.GeneratorErr)
	}
	if len(c.URLs) == 0 && c.Image == "" {
		return errors.New("provide at least one URL or --image")
	}

	var img *llm.Image
	var imgBytes []byte
	if c.Image != "" {
		b, err := os.ReadFile(c.Image)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		mime := http.DetectContentType(b)
		if !strings.HasPrefix(mime, "image/") {
			return fmt.Errorf("%s is not an image (%s)", c.Image, mime)
		}
		imgBytes = b
		img = &llm.Image{MIME: mime, Data: b}
	}

	var content string
	if len(c.URLs) > 0 {
		res := deps.Scraper.Scrape(deps.Ctx, c.URLs, c.HTTPOnly)
		printOutcomes(deps.Stderr, res.Summary)
		content = res.Document.Text()
		if res.Document.Empty() {
			if img == nil {
				return errors.New("no content scraped and no image given")
			}
			fmt.Fprintln(deps.Stderr, "Warning: no text content scraped, generating from the image only")
		} else {
			fmt.Fprintf(deps.Stderr, "Content ready: %d/%d pages, %d tokens\n",
				res.Summary.Successful, res.Summary.Total, cleaner.CountTokens(content))
		}
	}

	out, err := deps.Generator.Generate(deps.Ctx, content, c.Instructions, img)
	if err != nil {
		return fmt.Errorf("generate profile: %w", err)
	}

	dir := c.OutDir
	if dir == "" {
		dir = deps.Config.Card.OutputDir
	}
	path, _, err := card.Write(dir, out.Profile, imgBytes, deps.Config.Card.Creator)
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Name:        %s\n", out.Profile.Name)
	fmt.Fprintf(deps.Stdout, "Personality: %s\n", out.Profile.Personality)
	if out.Usage != nil {
		fmt.Fprintf(deps.Stdout, "Tokens:      %d prompt, %d completion\n", out.Usage.PromptTokens, out.Usage.CompletionTokens)
	}
	fmt.Fprintf(deps.Stdout, "Card:        %s\n", path)
	return nil
}
