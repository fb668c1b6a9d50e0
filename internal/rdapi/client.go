package rdapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/pkg/errors"
)

// Client is a thin wrapper over the Rancher Desktop HTTP API. Every method
// is a single request with no retry logic; the API listens on loopback.
type Client struct {
	cfg        *EngineConfig
	httpClient *http.Client
}

// NewClient builds a Client for the given engine config.
func NewClient(cfg *EngineConfig, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Do issues a request against an API endpoint and returns the response body.
func (c *Client) Do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL(endpoint), reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create API request")
	}
	req.Header.Set("Authorization", c.cfg.BasicAuth())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NetworkError(apperrors.CodeNetworkRefused,
			"Rancher Desktop API request failed - is Rancher Desktop running?", err).
			WithModule("rdapi").
			WithField("endpoint", endpoint)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read API response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NetworkError(apperrors.CodeNetworkGeneric,
			"Rancher Desktop API returned "+resp.Status, nil).
			WithModule("rdapi").
			WithFields(apperrors.Metadata{
				"endpoint": endpoint,
				"status":   resp.StatusCode,
				"body":     string(payload),
			})
	}

	return payload, nil
}

// Settings fetches the full settings document.
func (c *Client) Settings(ctx context.Context) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, "/v1/settings", nil)
}

// UpdateSettings applies a partial settings document.
func (c *Client) UpdateSettings(ctx context.Context, patch []byte) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, "/v1/settings", patch)
}

// ProposeSettings previews the effect of a settings change.
func (c *Client) ProposeSettings(ctx context.Context, patch []byte) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, "/v1/propose_settings", patch)
}

// FactoryReset resets all settings to their defaults.
func (c *Client) FactoryReset(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodPut, "/v1/factory_reset", []byte(`{}`))
	return err
}

// BackendState reports the backend's lifecycle state.
func (c *Client) BackendState(ctx context.Context) (string, error) {
	payload, err := c.Do(ctx, http.MethodGet, "/v1/backend_state", nil)
	if err != nil {
		return "", err
	}

	var state struct {
		VMState string `json:"vmState"`
	}
	if err := json.Unmarshal(payload, &state); err != nil {
		return "", apperrors.FormatError("failed to decode backend state", err).
			WithModule("rdapi")
	}
	return state.VMState, nil
}

// SetBackendState requests a backend lifecycle transition, e.g. "STARTED"
// or "STOPPED".
func (c *Client) SetBackendState(ctx context.Context, state string) error {
	body, err := json.Marshal(map[string]string{"vmState": state})
	if err != nil {
		return errors.Wrap(err, "failed to encode backend state")
	}
	_, err = c.Do(ctx, http.MethodPut, "/v1/backend_state", body)
	return err
}
