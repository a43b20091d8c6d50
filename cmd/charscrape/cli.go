package main

import (
	"context"
	"io"

	"github.com/use-agent/charscrape/api"
	"github.com/use-agent/charscrape/api/handler"
	"github.com/use-agent/charscrape/config"
)

// Dependencies holds the services and configuration bound into commands.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config

	Scraper   api.Scraper
	Prober    handler.Prober
	Generator handler.Generator

	// GeneratorErr explains why Generator is nil.
	GeneratorErr error
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Scrape   ScrapeCmd   `cmd:"" help:"Scrape pages into one title-delimited text document"`
	Validate ValidateCmd `cmd:"" help:"Check URL shape and, optionally, reachability"`
	Generate GenerateCmd `cmd:"" help:"Scrape pages and generate a character card"`
	Serve    ServeCmd    `cmd:"" help:"Run the HTTP API"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URLs     []string `arg:"" name:"url" help:"Pages to scrape, in order"`
	HTTPOnly bool     `name:"http-only" help:"Skip the browser and fetch over plain HTTP"`
	Out      string   `short:"o" type:"path" help:"Write the document to a file instead of stdout"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	URLs  []string `arg:"" name:"url" help:"URLs to check"`
	Probe bool     `short:"p" help:"Also check that the host answers"`
}

// GenerateCmd is the "generate" subcommand.
type GenerateCmd struct {
	URLs         []string `arg:"" optional:"" name:"url" help:"Source pages about the character"`
	Image        string   `type:"existingfile" help:"Picture of the character; the card is embedded into it"`
	Instructions string   `short:"i" help:"Extra guidance for the model"`
	OutDir       string   `name:"out-dir" type:"path" help:"Directory for the card PNG (default: CHARSCRAPE_CARD_DIR)"`
	HTTPOnly     bool     `name:"http-only" help:"Skip the browser and fetch over plain HTTP"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct{}
