package urlcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/use-agent/charscrape/engine"
)

// Reason classifies the outcome of a reachability probe.
type Reason string

const (
	ReasonOK               Reason = "ok"
	ReasonMalformed        Reason = "malformed"
	ReasonConnectionFailed Reason = "connection_failed"
	ReasonTimeout          Reason = "timeout"
	ReasonTLSHandshake     Reason = "tls_handshake_failed"
	ReasonHTTPError        Reason = "http_error"
	ReasonUnknown          Reason = "unknown"
)

// ProbeResult is the answer of IsReachable.
type ProbeResult struct {
	Reachable  bool
	Reason     Reason
	StatusCode int
	// Downgraded is set when the host only answered with certificate
	// verification disabled.
	Downgraded bool
	Detail     string
}

// Soft reports whether a failed probe should still let the caller try a
// fetch, since the fetchers carry their own fallbacks.
func (r ProbeResult) Soft() bool {
	return r.Reason == ReasonTLSHandshake || r.Reason == ReasonTimeout
}

func (r ProbeResult) String() string {
	if r.Reachable {
		if r.Downgraded {
			return fmt.Sprintf("reachable (%d, certificate verification disabled)", r.StatusCode)
		}
		return fmt.Sprintf("reachable (%d)", r.StatusCode)
	}
	if r.Reason == ReasonHTTPError {
		return fmt.Sprintf("%s: status %d", r.Reason, r.StatusCode)
	}
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
	}
	return string(r.Reason)
}

// Prober issues lightweight existence checks.
type Prober struct {
	client   *retryablehttp.Client
	insecure *retryablehttp.Client
}

// NewProber creates a Prober whose every attempt is bounded by timeout.
func NewProber(timeout time.Duration, retryMax int) *Prober {
	opts := engine.ClientOptions{
		Timeout:      timeout,
		RetryMax:     retryMax,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
	}
	insecure := opts
	insecure.Insecure = true
	return &Prober{
		client:   engine.NewRetryClient(opts),
		insecure: engine.NewRetryClient(insecure),
	}
}

// IsReachable sends a HEAD request (GET when HEAD is refused). A TLS
// failure is retried once without certificate verification and the
// downgrade is recorded on the result.
func (p *Prober) IsReachable(ctx context.Context, raw string) ProbeResult {
	if !IsWellFormed(raw) {
		return ProbeResult{Reason: ReasonMalformed, Detail: "not an absolute http(s) URL with a dotted host"}
	}

	res, err := p.probe(ctx, p.client, raw)
	if err != nil && engine.IsTLSError(err) {
		slog.Warn("probe: tls verification failed, retrying without certificate verification",
			"url", raw, "error", err,
		)
		res, err = p.probe(ctx, p.insecure, raw)
		res.Downgraded = true
	}
	if err != nil {
		res.Reason = classify(err)
		res.Detail = err.Error()
	}
	return res
}

func (p *Prober) probe(ctx context.Context, client *retryablehttp.Client, raw string) (ProbeResult, error) {
	status, err := p.send(ctx, client, http.MethodHead, raw)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = p.send(ctx, client, http.MethodGet, raw)
	}
	if err != nil {
		return ProbeResult{}, err
	}
	if status >= 400 {
		return ProbeResult{Reason: ReasonHTTPError, StatusCode: status}, nil
	}
	return ProbeResult{Reachable: true, Reason: ReasonOK, StatusCode: status}, nil
}

func (p *Prober) send(ctx context.Context, client *retryablehttp.Client, method, raw string) (int, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, raw, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; charscrape)")
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func classify(err error) Reason {
	switch {
	case engine.IsTLSError(err):
		return ReasonTLSHandshake
	case engine.IsTimeout(err):
		return ReasonTimeout
	case engine.IsConnectionError(err):
		return ReasonConnectionFailed
	default:
		return ReasonUnknown
	}
}
