package main

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// toolVersion is overridden at build time via
// -ldflags "-X main.toolVersion=...".
var toolVersion = "dev"

type versionOpts struct {
	*rootOpts
}

func newVersion(parent *rootOpts) *versionOpts {
	return &versionOpts{rootOpts: parent}
}

func (opts *versionOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ranch-hand version and, when reachable, the backend versions.",
		RunE:  opts.RunE,
	}
}

func (opts *versionOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ranch-hand %s %s/%s\n", toolVersion, runtime.GOOS, runtime.GOARCH)

	// Backend details are best-effort: the tool is useful without a running
	// Rancher Desktop.
	client, err := opts.rdClient()
	if err != nil {
		opts.log.Debug("Backend not reachable: %v", err)
		return nil
	}

	payload, err := client.Settings(context.Background())
	if err != nil {
		opts.log.Debug("Could not read backend settings: %v", err)
		return nil
	}

	var settings struct {
		ContainerEngine struct {
			Name string `json:"name"`
		} `json:"containerEngine"`
		Kubernetes struct {
			Version string `json:"version"`
		} `json:"kubernetes"`
	}
	if err := json.Unmarshal(payload, &settings); err != nil {
		opts.log.Debug("Could not decode backend settings: %v", err)
		return nil
	}

	if settings.Kubernetes.Version != "" {
		fmt.Fprintf(out, "kubernetes %s\n", settings.Kubernetes.Version)
	}
	if settings.ContainerEngine.Name != "" {
		fmt.Fprintf(out, "container engine %s\n", settings.ContainerEngine.Name)
	}
	return nil
}
