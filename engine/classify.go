package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"

	"github.com/use-agent/charscrape/models"
)

// IsTLSError reports whether err came from a failed TLS handshake or
// certificate verification.
func IsTLSError(err error) bool {
	if err == nil {
		return false
	}
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		invalid          x509.CertificateInvalidError
		stdVerify        *tls.CertificateVerificationError
		recordHeader     tls.RecordHeaderError
	)
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostname) ||
		errors.As(err, &invalid) || errors.As(err, &stdVerify) ||
		errors.As(err, &recordHeader) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"x509:", "tls:", "handshake", "certificate", "err_cert", "err_ssl", "ssl_error", "sec_error"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// IsConnectionError reports whether err means the host could not be reached.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "err_name_not_resolved") ||
		strings.Contains(msg, "err_connection")
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// tell timeouts, TLS failures and unreachable hosts apart.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	case IsTLSError(err):
		return models.NewScrapeError(models.ErrCodeTLS, msg, err)
	case IsTimeout(err):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case IsConnectionError(err):
		return models.NewScrapeError(models.ErrCodeConnection, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
