package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/charscrape/models"
)

func testClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:      5 * time.Second,
		RetryMax:     3,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	}
}

func TestHTTPEngine_Fetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Chrome")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><head><title> Tea &amp; Biscuits </title></head><body><p>hello</p></body></html>")
	}))
	defer srv.Close()

	res, err := NewHTTPEngine(testClientOptions()).Fetch(context.Background(), &FetchRequest{URL: srv.URL})

	require.NoError(t, err)
	assert.Equal(t, "Tea & Biscuits", res.Title)
	assert.Contains(t, res.HTML, "<p>hello</p>")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "http", res.EngineName)
	assert.False(t, res.Downgraded)
}

func TestHTTPEngine_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<p>finally</p>")
	}))
	defer srv.Close()

	res, err := NewHTTPEngine(testClientOptions()).Fetch(context.Background(), &FetchRequest{URL: srv.URL})

	require.NoError(t, err)
	assert.Contains(t, res.HTML, "finally")
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPEngine_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			code: models.ErrCodeHTTPStatus,
		},
		{
			name: "json is not page content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"a":1}`)
			},
			code: models.ErrCodeContentType,
		},
		{
			name: "retries exhausted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			code: models.ErrCodeHTTPStatus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPEngine(testClientOptions()).Fetch(context.Background(), &FetchRequest{URL: srv.URL})

			require.Error(t, err)
			assert.Equal(t, tt.code, models.CodeOf(err))
		})
	}
}

func TestHTTPEngine_PlainTextAccepted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "just words")
	}))
	defer srv.Close()

	res, err := NewHTTPEngine(testClientOptions()).Fetch(context.Background(), &FetchRequest{URL: srv.URL})

	require.NoError(t, err)
	assert.Equal(t, "just words", res.HTML)
	assert.Empty(t, res.Title)
}

func TestHTTPEngine_ConnectionRefused(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	opts := testClientOptions()
	opts.RetryMax = 1
	_, err = NewHTTPEngine(opts).Fetch(context.Background(), &FetchRequest{URL: "http://" + addr})

	require.Error(t, err)
	assert.Equal(t, models.ErrCodeConnection, models.CodeOf(err))
}

func TestHTTPEngine_TLSDowngrade(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<title>Self signed</title><p>legacy server</p>")
	}))
	defer srv.Close()

	res, err := NewHTTPEngine(testClientOptions()).Fetch(context.Background(), &FetchRequest{URL: srv.URL})

	require.NoError(t, err)
	assert.True(t, res.Downgraded)
	assert.Equal(t, "Self signed", res.Title)
}

func TestDecodeBody(t *testing.T) {
	t.Parallel()

	latin1 := []byte("caf\xe9 cr\xe8me")

	assert.Equal(t, "café crème", decodeBody(latin1, "text/html; charset=ISO-8859-1"))
	assert.Equal(t, "plain ascii", decodeBody([]byte("plain ascii"), "text/html"))
	assert.Equal(t, "héllo", decodeBody([]byte("héllo"), "text/html"))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTLSError(errors.New("x509: certificate signed by unknown authority")))
	assert.False(t, IsTLSError(errors.New("connection refused")))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.True(t, IsConnectionError(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.False(t, IsTLSError(nil))

	se := categorizeError(models.NewScrapeError(models.ErrCodeContentType, "x", nil), "ignored")
	assert.Equal(t, models.ErrCodeContentType, se.Code)
}
