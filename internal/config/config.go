package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes tool-wide defaults that CLI flags may override.
type Config struct {
	Insecure        bool          `yaml:"insecure"`
	Timeout         time.Duration `yaml:"timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	CacheDir        string        `yaml:"cache_dir"`
	Quiet           bool          `yaml:"quiet"`
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine config directory")
	}
	return filepath.Join(base, "ranch-hand", "config.yaml"), nil
}

// Load reads the configuration file at path. A missing file yields the
// defaults rather than an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return withDefaults(&Config{}), nil
		}
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}

	return Parse(data)
}

// Parse decodes configuration data from bytes and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}
	return withDefaults(&cfg), nil
}

func withDefaults(cfg *Config) *Config {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = 600 * time.Second
	}
	return cfg
}
