package rdapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
)

// DefaultHost is where the Rancher Desktop API listens.
const DefaultHost = "127.0.0.1"

// EngineConfig carries the credentials and connection info Rancher Desktop
// writes to rd-engine.json while it is running.
type EngineConfig struct {
	User     string `json:"user"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

// EnginePath returns the platform-specific rd-engine.json location.
//
//   - Windows: %LOCALAPPDATA%\rancher-desktop\rd-engine.json
//   - macOS:   ~/Library/Application Support/rancher-desktop/rd-engine.json
//   - Linux:   ~/.local/share/rancher-desktop/rd-engine.json
func EnginePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rancher-desktop", "rd-engine.json"), nil
}

func dataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		return "", apperrors.SystemError(apperrors.CodeSystemGeneric,
			"LOCALAPPDATA is not set", nil).WithModule("rdapi")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", apperrors.SystemError(apperrors.CodeSystemGeneric,
				"could not determine home directory", err).WithModule("rdapi")
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", apperrors.SystemError(apperrors.CodeSystemGeneric,
				"could not determine home directory", err).WithModule("rdapi")
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// LoadEngineConfig reads rd-engine.json from its default location.
func LoadEngineConfig() (*EngineConfig, error) {
	path, err := EnginePath()
	if err != nil {
		return nil, err
	}
	return LoadEngineConfigFrom(path)
}

// LoadEngineConfigFrom reads rd-engine.json from an explicit path.
func LoadEngineConfigFrom(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ConfigError(apperrors.CodeConfigGeneric,
				"rd-engine.json not found - is Rancher Desktop running?", err).
				WithModule("rdapi")
		}
		return nil, apperrors.ConfigError(apperrors.CodeConfigGeneric,
			"failed to read rd-engine.json", err).
			WithModule("rdapi").
			WithField("path", path)
	}

	var cfg EngineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.ConfigError(apperrors.CodeConfigGeneric,
			"failed to parse rd-engine.json", err).
			WithModule("rdapi").
			WithField("path", path)
	}

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}

	return &cfg, nil
}

// BaseURL returns the base URL for the Rancher Desktop API.
func (c *EngineConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// URL returns the full URL for an API endpoint.
func (c *EngineConfig) URL(endpoint string) string {
	for len(endpoint) > 0 && endpoint[0] == '/' {
		endpoint = endpoint[1:]
	}
	return c.BaseURL() + "/" + endpoint
}

// BasicAuth returns the Authorization header value for the API.
func (c *EngineConfig) BasicAuth() string {
	credentials := c.User + ":" + c.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}
