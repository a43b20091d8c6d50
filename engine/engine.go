package engine

import (
	"context"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "chrome", "firefox").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// Backend is a live browser handle. It is owned by one batch at a time and
// must be closed when the batch ends.
type Backend interface {
	Engine
	Close() error
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL string

	// Timeout bounds the whole fetch. Zero leaves it to the engine's own
	// per-step limits.
	Timeout time.Duration
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string

	// Downgraded is set when the page was only reachable with certificate
	// verification disabled.
	Downgraded bool
}
