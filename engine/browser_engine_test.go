package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/charscrape/models"
)

func fastTimings() Timings {
	return Timings{
		PageLoad:     time.Second,
		BodyWait:     20 * time.Millisecond,
		SelectorWait: 10 * time.Millisecond,
		Settle:       time.Millisecond,
		ScrollPause:  time.Millisecond,
	}
}

func TestBrowserEngine_Fetch(t *testing.T) {
	t.Parallel()

	s := &fakeSession{
		waitable: map[string]bool{"body": true, "main": true},
		html:     "<html><body><main>hi</main></body></html>",
		title:    "Hello",
	}
	e := NewBrowserEngine("chrome", s, fastTimings())

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: "https://example.com/a"})

	require.NoError(t, err)
	assert.Equal(t, s.html, res.HTML)
	assert.Equal(t, "Hello", res.Title)
	assert.Equal(t, "chrome", res.EngineName)
	// Waits stop at the first ready selector.
	assert.Equal(t, []string{"body", "article", "main"}, s.waits)
	assert.Equal(t, []string{scrollMiddleJS, scrollTopJS}, s.evals)
}

func TestBrowserEngine_BodyTimeoutStillExtracts(t *testing.T) {
	t.Parallel()

	s := &fakeSession{blockWait: true, html: "<p>late</p>", titleErr: errors.New("gone")}
	e := NewBrowserEngine("edge", s, fastTimings())

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})

	require.NoError(t, err)
	assert.Equal(t, "<p>late</p>", res.HTML)
	assert.Empty(t, res.Title)
	assert.Len(t, s.waits, 1+len(readySelectors))
}

func TestBrowserEngine_NavigationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"tls", errors.New("net::ERR_CERT_AUTHORITY_INVALID at https://self-signed.example"), models.ErrCodeTLS},
		{"timeout", context.DeadlineExceeded, models.ErrCodeTimeout},
		{"dns", errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeConnection},
		{"other", errors.New("target crashed"), models.ErrCodeNavigation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewBrowserEngine("chrome", &fakeSession{navErr: tt.err}, fastTimings())

			_, err := e.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})

			require.Error(t, err)
			assert.Equal(t, tt.code, models.CodeOf(err))
		})
	}
}

func TestBrowserEngine_Close(t *testing.T) {
	t.Parallel()

	s := &fakeSession{}
	e := NewBrowserEngine("chrome", s, fastTimings())

	require.NoError(t, e.Close())
	assert.Equal(t, 1, s.closed)
}
