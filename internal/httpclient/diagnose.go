package httpclient

import (
	"crypto/tls"
	"net"
	"time"
)

// Diagnosis is the outcome of probing one TLS endpoint with strict
// verification.
type Diagnosis struct {
	Endpoint       string
	OK             bool
	Reason         string
	Issuer         string
	ProxySuspected bool
	Err            error
}

// Probe dials addr ("host:port") with full certificate verification. On a
// certificate failure it peeks at the presented issuer to name the
// intercepting party, so the operator can tell a corporate proxy from a
// genuinely broken endpoint.
func Probe(addr string, timeout time.Duration) Diagnosis {
	diag := Diagnosis{Endpoint: addr}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, nil)
	if err == nil {
		conn.Close()
		diag.OK = true
		return diag
	}

	diag.Err = err
	if !isCertificateError(err) {
		return diag
	}

	diag.Reason = certErrorReason(err)
	diag.ProxySuspected = detectCorporateProxy(diag.Reason)

	if issuer, peekErr := PeekIssuer(addr, timeout); peekErr == nil && issuer != "" {
		diag.Issuer = issuer
		if IsProxyIssuer(issuer) {
			diag.ProxySuspected = true
		}
	}

	return diag
}
