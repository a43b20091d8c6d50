package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/charscrape/cleaner"
	"github.com/use-agent/charscrape/engine"
	"github.com/use-agent/charscrape/models"
)

const body = "The lighthouse keeper wrote every evening about the storms that rolled in from the northern sea."

type page struct {
	title string
	text  string
}

func articleHTML(text string) string {
	return "<html><body><nav>Home | About</nav><article><p>" + text + "</p></article></body></html>"
}

type fakeEngine struct {
	name  string
	pages map[string]page
	errs  map[string]error
	calls []string
}

func (e *fakeEngine) Name() string { return e.name }

func (e *fakeEngine) Fetch(_ context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	e.calls = append(e.calls, req.URL)
	if err, ok := e.errs[req.URL]; ok {
		return nil, err
	}
	p, ok := e.pages[req.URL]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeHTTPStatus, "HTTP 404", nil)
	}
	return &engine.FetchResult{
		HTML:       articleHTML(p.text),
		Title:      p.title,
		StatusCode: 200,
		FinalURL:   req.URL,
		EngineName: e.name,
	}, nil
}

type fakeBackend struct {
	fakeEngine
	closed int
}

func (b *fakeBackend) Close() error {
	b.closed++
	return nil
}

type fakeSelector struct {
	backend engine.Backend
	pref    models.BrowserPreference
	err     error
	calls   int
}

func (s *fakeSelector) Select(_ context.Context, pref models.BrowserPreference) (engine.Backend, models.BrowserPreference, error) {
	s.calls++
	if s.err != nil {
		return nil, pref, s.err
	}
	return s.backend, s.pref, nil
}

func timeoutErr() error {
	return models.NewScrapeError(models.ErrCodeTimeout, "navigation timed out", context.DeadlineExceeded)
}

func newTestScraper(sel BackendSelector, http engine.Engine, opts Options) *Scraper {
	return NewScraper(sel, http, cleaner.NewCleaner(cleaner.DefaultOptions()), opts)
}

func TestRun_FailedURLDoesNotAbortBatch(t *testing.T) {
	urls := []string{"https://example.com/one", "https://example.com/two", "https://example.com/three"}
	browser := &fakeBackend{fakeEngine: fakeEngine{
		name: "chrome",
		pages: map[string]page{
			urls[0]: {"One", "First page. " + body},
			urls[2]: {"Three", "Third page. " + body},
		},
		errs: map[string]error{urls[1]: timeoutErr()},
	}}
	http := &fakeEngine{name: "http", errs: map[string]error{urls[1]: timeoutErr()}}
	sel := &fakeSelector{backend: browser}

	res := newTestScraper(sel, http, Options{}).Run(context.Background(), urls, models.BrowserPreference{})

	require.Len(t, res.Document.Sections, 2)
	assert.Equal(t, "One", res.Document.Sections[0].Title)
	assert.Equal(t, "Three", res.Document.Sections[1].Title)
	assert.Equal(t, 2, res.Summary.Successful)
	assert.Equal(t, 3, res.Summary.Total)

	assert.Equal(t, models.StateSuccess, res.Summary.Outcomes[0].State)
	assert.Equal(t, "chrome", res.Summary.Outcomes[0].Method)
	assert.Equal(t, models.StateFailed, res.Summary.Outcomes[1].State)
	assert.Equal(t, models.ErrCodeTimeout, res.Summary.Outcomes[1].Code)
	assert.Equal(t, []string{urls[1]}, http.calls)
	assert.Equal(t, 1, browser.closed)
	assert.Equal(t, 1, sel.calls)

	text := res.Document.Text()
	assert.Regexp(t, `(?s)^\n# One\n\nFirst page\..*\n\n---\n\n# Three\n\nThird page\..*\n\n---\n$`, text)
}

func TestRun_BrowserTLSErrorFallsBackToHTTP(t *testing.T) {
	urls := []string{"https://self-signed.example.org/", "https://example.com/next"}
	browser := &fakeBackend{fakeEngine: fakeEngine{
		name:  "edge",
		pages: map[string]page{urls[1]: {"Next", body}},
		errs: map[string]error{
			urls[0]: models.NewScrapeError(models.ErrCodeTLS, "tls handshake failed", errors.New("net::ERR_CERT_AUTHORITY_INVALID")),
		},
	}}
	http := &fakeEngine{name: "http", pages: map[string]page{urls[0]: {"Legacy", body}}}

	res := newTestScraper(&fakeSelector{backend: browser}, http, Options{}).Run(context.Background(), urls, models.BrowserPreference{})

	require.Equal(t, 2, res.Summary.Successful)
	assert.Equal(t, "http", res.Summary.Outcomes[0].Method)
	assert.Equal(t, "Legacy", res.Document.Sections[0].Title)
	assert.Equal(t, "edge", res.Summary.Outcomes[1].Method)
	assert.Equal(t, 1, browser.closed)
}

func TestRun_ThinBrowserContentFallsBack(t *testing.T) {
	url := "https://example.com/spa"
	browser := &fakeBackend{fakeEngine: fakeEngine{
		name:  "chrome",
		pages: map[string]page{url: {"Loading", "Loading..."}},
	}}
	http := &fakeEngine{name: "http", pages: map[string]page{url: {"Static", body}}}

	res := newTestScraper(&fakeSelector{backend: browser}, http, Options{}).Run(context.Background(), []string{url}, models.BrowserPreference{})

	require.Len(t, res.Document.Sections, 1)
	assert.Equal(t, "Static", res.Document.Sections[0].Title)
	assert.Equal(t, "http", res.Summary.Outcomes[0].Method)
}

func TestRun_NoBackendIsHTTPOnly(t *testing.T) {
	url := "https://example.com/a"
	http := &fakeEngine{name: "http", pages: map[string]page{url: {"A", body}}}
	sel := &fakeSelector{err: models.NewScrapeError(models.ErrCodeNoBackend, "no browser backend available", nil)}
	pref := models.BrowserPreference{BrowserName: "chrome", BrowserType: "chrome"}

	res := newTestScraper(sel, http, Options{}).Run(context.Background(), []string{url}, pref)

	assert.Equal(t, 1, res.Summary.Successful)
	assert.Equal(t, "http", res.Summary.Outcomes[0].Method)
	assert.False(t, res.PreferenceChanged)
	assert.True(t, pref.Equal(res.Preference))
}

func TestRun_HTTPOnlyOptionSkipsSelector(t *testing.T) {
	url := "https://example.com/a"
	sel := &fakeSelector{backend: &fakeBackend{}}
	http := &fakeEngine{name: "http", pages: map[string]page{url: {"A", body}}}

	res := newTestScraper(sel, http, Options{HTTPOnly: true}).Run(context.Background(), []string{url}, models.BrowserPreference{})

	assert.Equal(t, 1, res.Summary.Successful)
	assert.Zero(t, sel.calls)
}

func TestRun_MalformedURLsExcluded(t *testing.T) {
	http := &fakeEngine{name: "http", pages: map[string]page{"https://example.com/a": {"A", body}}}
	sel := &fakeSelector{err: errors.New("unused")}

	res := newTestScraper(sel, http, Options{}).Run(context.Background(), []string{"not a url", "example.com/a", "https://localhost/"}, models.BrowserPreference{})

	assert.Equal(t, 1, res.Summary.Successful)
	assert.Equal(t, 3, res.Summary.Total)
	assert.Equal(t, models.ErrCodeMalformedURL, res.Summary.Outcomes[0].Code)
	assert.Equal(t, "https://example.com/a", res.Summary.Outcomes[1].URL)
	assert.Equal(t, models.ErrCodeMalformedURL, res.Summary.Outcomes[2].Code)
	assert.Equal(t, []string{"https://example.com/a"}, http.calls)
}

func TestRun_AllMalformedAcquiresNothing(t *testing.T) {
	sel := &fakeSelector{backend: &fakeBackend{}}

	res := newTestScraper(sel, &fakeEngine{name: "http"}, Options{}).Run(context.Background(), []string{"ftp://example.com"}, models.BrowserPreference{})

	assert.Zero(t, sel.calls)
	assert.True(t, res.Document.Empty())
	assert.Equal(t, "", res.Document.Text())
	assert.Equal(t, 0, res.Summary.Successful)
}

func TestRun_ReturnsChangedPreference(t *testing.T) {
	url := "https://example.com/a"
	bin := "/usr/bin/microsoft-edge"
	winner := models.BrowserPreference{BrowserName: "edge", BrowserType: "edge", BinaryPath: &bin}
	browser := &fakeBackend{fakeEngine: fakeEngine{name: "edge", pages: map[string]page{url: {"A", body}}}}

	s := newTestScraper(&fakeSelector{backend: browser, pref: winner}, &fakeEngine{name: "http"}, Options{})

	res := s.Run(context.Background(), []string{url}, models.BrowserPreference{BrowserName: "chrome", BrowserType: "chrome"})
	assert.True(t, res.PreferenceChanged)
	assert.True(t, winner.Equal(res.Preference))

	res = s.Run(context.Background(), []string{url}, winner)
	assert.False(t, res.PreferenceChanged)
	assert.Equal(t, 2, browser.closed)
}

func TestRun_CancelledContextFailsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	browser := &fakeBackend{fakeEngine: fakeEngine{name: "chrome"}}

	res := newTestScraper(&fakeSelector{backend: browser}, &fakeEngine{name: "http"}, Options{}).
		Run(ctx, []string{"https://example.com/a", "https://example.com/b"}, models.BrowserPreference{})

	assert.Equal(t, 0, res.Summary.Successful)
	for _, out := range res.Summary.Outcomes {
		assert.Equal(t, models.StateFailed, out.State)
		assert.Equal(t, models.ErrCodeCancelled, out.Code)
	}
	assert.Empty(t, browser.calls)
	assert.Equal(t, 1, browser.closed)
}

func TestRun_DedupeDropsMirrors(t *testing.T) {
	urls := []string{"https://example.com/a", "https://mirror.example.net/a", "https://example.com/b"}
	http := &fakeEngine{name: "http", pages: map[string]page{
		urls[0]: {"Original", body},
		urls[1]: {"Mirror", "<b>" + body + "</b>"},
		urls[2]: {"Other", "Recipes for sourdough bread, rye crackers and a very slow fermented pizza dough."},
	}}

	res := newTestScraper(nil, http, Options{Dedupe: true, DedupeDistance: 3}).Run(context.Background(), urls, models.BrowserPreference{})

	assert.Equal(t, 2, res.Summary.Successful)
	assert.Equal(t, models.ErrCodeDuplicate, res.Summary.Outcomes[1].Code)
	assert.Equal(t, "Other", res.Document.Sections[1].Title)
}

func TestRun_HTTPFallbackNeedsMinChars(t *testing.T) {
	short := "I am a cat and so are we all in it"
	urls := []string{"https://example.com/short", "https://example.com/long"}
	http := &fakeEngine{name: "http", pages: map[string]page{
		urls[0]: {"Short", short},
		urls[1]: {"Long", body},
	}}

	res := newTestScraper(nil, http, Options{MinHTTPChars: 50}).Run(context.Background(), urls, models.BrowserPreference{})

	assert.Equal(t, 1, res.Summary.Successful)
	assert.Equal(t, models.ErrCodeContentTooShort, res.Summary.Outcomes[0].Code)
	assert.Equal(t, models.StateSuccess, res.Summary.Outcomes[1].State)
}

func TestRun_BrowserShortParagraphSucceeds(t *testing.T) {
	url := "https://example.com/short"
	short := "I am a cat and so are we all in it"
	browser := &fakeBackend{fakeEngine: fakeEngine{name: "chrome", pages: map[string]page{url: {"Cat", short}}}}

	res := newTestScraper(&fakeSelector{backend: browser}, &fakeEngine{name: "http"}, Options{MinHTTPChars: 50}).
		Run(context.Background(), []string{url}, models.BrowserPreference{})

	require.Equal(t, 1, res.Summary.Successful)
	assert.Equal(t, "chrome", res.Summary.Outcomes[0].Method)
	assert.Equal(t, short, res.Document.Sections[0].Body)
}
