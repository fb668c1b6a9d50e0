package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dwalleck/ranch-hand/internal/config"
	"github.com/dwalleck/ranch-hand/internal/httpclient"
	"github.com/dwalleck/ranch-hand/internal/logger"
	"github.com/dwalleck/ranch-hand/internal/rdapi"
)

type rootOpts struct {
	insecure        bool
	quiet           bool
	verbose         bool
	timeout         time.Duration
	downloadTimeout time.Duration
	configPath      string

	cfg *config.Config
	log logger.Logger
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
ranch-hand manages the Rancher Desktop k3s artifact cache.

Workflow:
  ranch-hand cache populate v1.29.4+k3s1   # Download and verify a k3s release.
  ranch-hand cache list                    # Inspect cached versions.
  ranch-hand certs check                   # Diagnose TLS trouble on the release hosts.
  ranch-hand backend status                # Query the Rancher Desktop backend.
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "ranch-hand",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}

	// Accept config-file spelling on the command line too.
	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	cmd.PersistentFlags().BoolVar(&opts.insecure, "insecure", false,
		"skip TLS certificate verification (needed behind some SSL inspection proxies)")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false,
		"suppress progress output and informational logging")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"enable debug logging")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0,
		"timeout for API requests (default 30s)")
	cmd.PersistentFlags().DurationVar(&opts.downloadTimeout, "download-timeout", 0,
		"timeout for artifact downloads (default 10m)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to the configuration file")

	cmd.AddCommand(
		newCache(opts).Command(),
		newCerts(opts).Command(),
		newSettings(opts).Command(),
		newBackend(opts).Command(),
		newVersion(opts).Command(),
	)

	return cmd
}

// PersistentPreRunE loads the configuration file and folds the global flags
// over it. Flags win when set; otherwise the file value applies.
func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	path := opts.configPath
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err == nil {
			path = defaultPath
		}
	}

	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("insecure") {
		cfg.Insecure = opts.insecure
	}
	if cmd.Flags().Changed("quiet") {
		cfg.Quiet = opts.quiet
	}
	if opts.timeout > 0 {
		cfg.Timeout = opts.timeout
	}
	if opts.downloadTimeout > 0 {
		cfg.DownloadTimeout = opts.downloadTimeout
	}

	level := logger.LevelInfo
	if cfg.Quiet {
		level = logger.LevelWarn
	}
	if opts.verbose {
		level = logger.LevelDebug
	}

	opts.cfg = cfg
	opts.log = logger.NewColoredLogger(logger.WithLevel(level))
	return nil
}

// apiNegotiator builds the trust negotiator for small API requests.
func (opts *rootOpts) apiNegotiator() *httpclient.Negotiator {
	cfg := httpclient.NewConfig(opts.cfg.Insecure)
	cfg.Timeout = opts.cfg.Timeout
	return httpclient.New(cfg, opts.log)
}

// downloadNegotiator builds the trust negotiator for large file downloads.
func (opts *rootOpts) downloadNegotiator() *httpclient.Negotiator {
	cfg := httpclient.ForDownloads(opts.cfg.Insecure)
	cfg.Timeout = opts.cfg.DownloadTimeout
	return httpclient.New(cfg, opts.log)
}

// rdClient connects to the local Rancher Desktop API using the credentials
// the application writes while running.
func (opts *rootOpts) rdClient() (*rdapi.Client, error) {
	engineCfg, err := rdapi.LoadEngineConfig()
	if err != nil {
		return nil, err
	}
	return rdapi.NewClient(engineCfg, opts.cfg.Timeout), nil
}

func makeExample(examples ...string) string {
	var lines []string
	for _, example := range examples {
		lines = append(lines, "  "+example)
	}
	return strings.Join(lines, "\n")
}

var errorWantedNoArgs = errors.New("expected no (non-flag) arguments")
