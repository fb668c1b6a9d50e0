package main

import (
	"github.com/spf13/cobra"

	apperrors "github.com/dwalleck/ranch-hand/internal/errors"
	"github.com/dwalleck/ranch-hand/internal/httpclient"
)

// requiredEndpoints are the hosts Rancher Desktop and a cache populate run
// talk to: the GitHub release API and asset host, image storage, and the
// version/docs endpoints.
var requiredEndpoints = []string{
	"api.github.com:443",
	"github.com:443",
	"storage.googleapis.com:443",
	"desktop.version.rancher.io:443",
	"docs.rancherdesktop.io:443",
}

type certsOpts struct {
	*rootOpts
}

func newCerts(parent *rootOpts) *certsOpts {
	return &certsOpts{rootOpts: parent}
}

func (opts *certsOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Diagnose TLS certificate problems.",
	}
	cmd.AddCommand(newCertsCheck(opts.rootOpts).Command())
	return cmd
}

type certsCheckOpts struct {
	*rootOpts
}

func newCertsCheck(parent *rootOpts) *certsCheckOpts {
	return &certsCheckOpts{rootOpts: parent}
}

func (opts *certsCheckOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		Short:   "Probe the release hosts with strict certificate verification.",
		Example: makeExample("ranch-hand certs check"),
		RunE:    opts.RunE,
	}
}

func (opts *certsCheckOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	var failures []error
	for _, endpoint := range requiredEndpoints {
		diag := httpclient.Probe(endpoint, opts.cfg.Timeout)
		if diag.OK {
			opts.log.Success("%s: certificate chain verified", endpoint)
			continue
		}

		if diag.Reason == "" {
			opts.log.Error("%s: unreachable: %v", endpoint, diag.Err)
			failures = append(failures, diag.Err)
			continue
		}

		opts.log.Error("%s: %s", endpoint, diag.Reason)
		if diag.Issuer != "" {
			opts.log.Info("%s presents a certificate issued by %q", endpoint, diag.Issuer)
		}
		if diag.ProxySuspected {
			opts.log.Warn("This looks like a corporate SSL inspection proxy; " +
				"rerun with --insecure or install the proxy's root certificate")
		}
		failures = append(failures, diag.Err)
	}

	if agg := apperrors.NewAggregate("certificate check failed", failures); agg != nil {
		return agg.WithModule("certs")
	}

	opts.log.Success("All %d endpoints verified", len(requiredEndpoints))
	return nil
}
