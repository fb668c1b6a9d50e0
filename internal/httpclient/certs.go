package httpclient

import (
	"crypto/tls"
	"net"
	"net/url"
	"strings"
	"time"
)

// KnownProxyIssuers lists certificate issuers of common corporate SSL
// inspection products.
var KnownProxyIssuers = []string{
	"iboss",
	"zscaler",
	"bluecoat",
	"forcepoint",
	"symantec",
	"mcafee",
	"cisco",
	"palo alto",
	"fortinet",
	"websense",
	"netskope",
}

// IsProxyIssuer reports whether a certificate issuer looks like a corporate
// inspection proxy.
func IsProxyIssuer(issuer string) bool {
	lower := strings.ToLower(issuer)
	for _, proxy := range KnownProxyIssuers {
		if strings.Contains(lower, proxy) {
			return true
		}
	}
	return false
}

// ExtractDomain returns the host component of url, or "unknown" when the URL
// cannot be parsed.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

// PeekIssuer connects to addr ("host:port") without verification and returns
// the issuer common name of the leaf certificate. Used by certificate
// diagnostics to name the intercepting party; never used to trust it.
func PeekIssuer(addr string, timeout time.Duration) (string, error) {
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		InsecureSkipVerify: true, // #nosec G402 -- inspection only, the connection is discarded
	})
	if err != nil {
		return "", err
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return "", nil
	}
	return certs[0].Issuer.CommonName, nil
}

func isCertificateError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "x509") ||
		strings.Contains(msg, "tls") ||
		strings.Contains(msg, "ssl") ||
		strings.Contains(msg, "self signed") ||
		strings.Contains(msg, "unable to get local issuer")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// certErrorReason maps raw TLS error text to a human-readable reason.
func certErrorReason(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "self signed"), strings.Contains(lower, "self-signed"):
		return "Self-signed certificate in chain"
	case strings.Contains(lower, "unknown authority"), strings.Contains(lower, "unable to get local issuer"):
		return "Unable to verify certificate chain"
	case strings.Contains(lower, "expired"):
		return "Certificate has expired"
	case strings.Contains(lower, "hostname mismatch"), strings.Contains(lower, "is not valid for"), strings.Contains(lower, "certificate is valid for"):
		return "Certificate hostname mismatch"
	default:
		return "Certificate error: " + msg
	}
}

// detectCorporateProxy reports whether a classified reason is typical of an
// SSL inspection proxy injecting its own root.
func detectCorporateProxy(reason string) bool {
	lower := strings.ToLower(reason)
	if strings.Contains(lower, "self signed") || strings.Contains(lower, "self-signed") {
		return true
	}
	if strings.Contains(lower, "unable to verify certificate chain") {
		return true
	}
	return IsProxyIssuer(lower)
}
