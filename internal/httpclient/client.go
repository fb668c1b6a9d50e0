package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"time"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/dwalleck/ranch-hand/internal/logger"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Default timeout for API requests.
const DefaultAPITimeout = 30 * time.Second

// Default timeout for file downloads. k3s image bundles can be large.
const DefaultDownloadTimeout = 600 * time.Second

// Config describes how outbound requests negotiate certificate trust.
type Config struct {
	// Insecure accepts any certificate, including self-signed, expired, or
	// mismatched ones. Intentional for corporate SSL inspection proxies.
	Insecure bool
	// Interactive enables the consent prompt on classified certificate
	// failures.
	Interactive bool
	// Timeout bounds each individual request.
	Timeout time.Duration
}

// NewConfig returns a Config for API requests. The prompt is disabled when
// the caller already opted into insecure mode.
func NewConfig(insecure bool) Config {
	return Config{
		Insecure:    insecure,
		Interactive: !insecure,
		Timeout:     DefaultAPITimeout,
	}
}

// ForDownloads returns a Config suitable for large file downloads.
func ForDownloads(insecure bool) Config {
	cfg := NewConfig(insecure)
	cfg.Timeout = DefaultDownloadTimeout
	return cfg
}

// Negotiator issues requests with strict or bypassed TLS verification and,
// on a classified certificate failure, negotiates a one-time insecure retry
// with the operator. It holds no state between calls.
type Negotiator struct {
	cfg        Config
	logger     logger.Logger
	prompter   Prompter
	isTerminal func() bool
}

// NegotiatorOption customises Negotiator construction.
type NegotiatorOption func(*Negotiator)

// WithPrompter overrides the consent prompter.
func WithPrompter(p Prompter) NegotiatorOption {
	return func(n *Negotiator) {
		n.prompter = p
	}
}

// WithTerminalCheck overrides interactive terminal detection.
func WithTerminalCheck(fn func() bool) NegotiatorOption {
	return func(n *Negotiator) {
		n.isTerminal = fn
	}
}

// New constructs a Negotiator bound to the provided config and logger.
func New(cfg Config, log logger.Logger, opts ...NegotiatorOption) *Negotiator {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultAPITimeout
	}
	if log == nil {
		log = logger.NewStandardLogger()
	}

	n := &Negotiator{
		cfg:      cfg,
		logger:   log,
		prompter: NewTerminalPrompter(os.Stderr),
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Client builds an HTTP client honoring the configured trust mode.
func (n *Negotiator) Client() *http.Client {
	return buildClient(n.cfg.Insecure, n.cfg.Timeout)
}

// Fetch issues a GET for url, handling certificate errors per the trust
// negotiation policy. The caller owns the response body.
func (n *Negotiator) Fetch(ctx context.Context, url string) (*http.Response, error) {
	return n.Do(ctx, http.MethodGet, url, nil)
}

// Do issues a request with the supplied method and optional header mutator.
func (n *Negotiator) Do(ctx context.Context, method, url string, decorate func(*http.Request)) (*http.Response, error) {
	if n.cfg.Insecure {
		n.logger.Warn("Certificate validation is DISABLED for this request")
	}

	resp, err := n.attempt(ctx, n.Client(), method, url, decorate)
	if err == nil {
		return resp, nil
	}

	switch {
	case isCertificateError(err):
		return n.handleCertificateError(ctx, method, url, decorate, err)
	case isConnectionRefused(err):
		return nil, apperrors.NetworkError(apperrors.CodeNetworkRefused,
			"connection refused - is Rancher Desktop running?", err).
			WithModule("httpclient").
			WithField("url", url)
	default:
		return nil, apperrors.NetworkError(apperrors.CodeNetworkGeneric, "request failed", err).
			WithModule("httpclient").
			WithField("url", url)
	}
}

func (n *Negotiator) attempt(ctx context.Context, client *http.Client, method, url string, decorate func(*http.Request)) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", "ranch-hand")
	if decorate != nil {
		decorate(req)
	}

	return client.Do(req)
}

// handleCertificateError classifies the failure and, when interactive
// consent is possible, offers a single insecure retry. Every other path
// fails closed with the original certificate error.
func (n *Negotiator) handleCertificateError(ctx context.Context, method, url string, decorate func(*http.Request), cause error) (*http.Response, error) {
	domain := ExtractDomain(url)
	reason := certErrorReason(cause)
	certErr := apperrors.CertificateError(domain, reason, cause).WithModule("httpclient")

	// Already insecure and still failing: nothing left to negotiate.
	if n.cfg.Insecure {
		return nil, certErr
	}

	if !n.cfg.Interactive || !n.isTerminal() {
		return nil, certErr
	}

	proceed, err := n.prompter.ConfirmInsecure(domain, reason, detectCorporateProxy(reason))
	if err != nil {
		n.logger.Warn("Failed to get user confirmation: %v, defaulting to deny", err)
		return nil, certErr
	}
	if !proceed {
		return nil, certErr
	}

	n.logger.Warn("Certificate validation bypassed by user request")

	resp, err := n.attempt(ctx, buildClient(true, n.cfg.Timeout), method, url, decorate)
	if err != nil {
		return nil, apperrors.NetworkError(apperrors.CodeNetworkGeneric,
			"request failed even with certificate bypass", err).
			WithModule("httpclient").
			WithField("url", url).
			WithRecoverable(false)
	}
	return resp, nil
}

func buildClient(insecure bool, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- user-consented bypass
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
