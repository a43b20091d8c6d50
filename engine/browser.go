package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BrowserType is the browser family of a candidate backend.
type BrowserType string

const (
	BrowserChrome  BrowserType = "chrome"
	BrowserEdge    BrowserType = "edge"
	BrowserFirefox BrowserType = "firefox"
)

// ParseBrowserType accepts the names used in config and preference files.
func ParseBrowserType(s string) (BrowserType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chrome", "chromium", "google-chrome":
		return BrowserChrome, nil
	case "edge", "msedge", "microsoft-edge":
		return BrowserEdge, nil
	case "firefox":
		return BrowserFirefox, nil
	default:
		return "", fmt.Errorf("unknown browser type %q", s)
	}
}

// Session is one open browser tab. Implementations bound every call by the
// deadline of ctx.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until an element matching the CSS selector exists.
	WaitFor(ctx context.Context, selector string) error
	// Eval runs a JavaScript expression and discards its value.
	Eval(ctx context.Context, expr string) error
	Title(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Driver starts a browser of one family. An empty binPath lets the driver
// use its own default.
type Driver interface {
	Launch(ctx context.Context, binPath string) (Session, error)
}

// Candidate is one entry of the backend preference order.
type Candidate struct {
	Name       string
	Type       BrowserType
	BinaryPath string

	// remembered marks a BinaryPath carried over from a saved preference.
	// The binary may since have moved, so a failed launch retries once
	// with the located binary.
	remembered bool
}

// CandidatesFromNames turns config names into candidates, skipping
// unknown names.
func CandidatesFromNames(names []string) []Candidate {
	out := make([]Candidate, 0, len(names))
	for _, n := range names {
		t, err := ParseBrowserType(n)
		if err != nil {
			continue
		}
		out = append(out, Candidate{Name: string(t), Type: t})
	}
	return out
}

// Timings bounds each step of a browser fetch.
type Timings struct {
	PageLoad     time.Duration // default: 60s
	BodyWait     time.Duration // default: 10s
	SelectorWait time.Duration // default: 5s
	Settle       time.Duration // default: 2s
	ScrollPause  time.Duration // default: 500ms
}

// DefaultTimings returns the production step limits.
func DefaultTimings() Timings {
	return Timings{
		PageLoad:     60 * time.Second,
		BodyWait:     10 * time.Second,
		SelectorWait: 5 * time.Second,
		Settle:       2 * time.Second,
		ScrollPause:  500 * time.Millisecond,
	}
}
