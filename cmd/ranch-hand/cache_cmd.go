package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwalleck/ranch-hand/internal/cache"
	"github.com/dwalleck/ranch-hand/internal/cache/progress"
	"github.com/dwalleck/ranch-hand/internal/release"
)

type cacheOpts struct {
	*rootOpts
}

func newCache(parent *rootOpts) *cacheOpts {
	return &cacheOpts{rootOpts: parent}
}

func (opts *cacheOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local k3s artifact cache.",
	}
	cmd.AddCommand(
		newCachePopulate(opts.rootOpts).Command(),
		newCacheList(opts.rootOpts).Command(),
	)
	return cmd
}

type cachePopulateOpts struct {
	*rootOpts
	force bool
}

func newCachePopulate(parent *rootOpts) *cachePopulateOpts {
	return &cachePopulateOpts{rootOpts: parent}
}

func (opts *cachePopulateOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "populate [version]",
		Short: "Download and verify the k3s artifacts for a version.",
		Example: makeExample(
			"ranch-hand cache populate v1.29.4+k3s1",
			"ranch-hand cache populate    # pick from recent stable releases",
		),
		Args: cobra.MaximumNArgs(1),
		RunE: opts.RunE,
	}
	cmd.Flags().BoolVar(&opts.force, "force", false,
		"keep files that fail checksum verification instead of treating the run as failed")
	return cmd
}

func (opts *cachePopulateOpts) RunE(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var explicit string
	if len(args) == 1 {
		explicit = args[0]
	}

	resolver := release.NewResolver(opts.apiNegotiator(), opts.log)
	version, err := resolver.Resolve(ctx, explicit)
	if err != nil {
		return err
	}

	root, err := opts.cacheRoot()
	if err != nil {
		return err
	}
	destDir, err := cache.VersionDir(root, version)
	if err != nil {
		return err
	}

	opts.log.Info("Populating cache for k3s %s", version)

	populator := cache.NewPopulator(opts.downloadNegotiator(), opts.log,
		cache.WithDisplay(progress.NewDisplay(os.Stdout, opts.cfg.Quiet)))

	report, err := populator.Populate(ctx, version, cache.Arch(), destDir,
		cache.Policy{ForceKeepMismatched: opts.force})
	if err != nil {
		return err
	}
	if err := report.Err(); err != nil {
		return err
	}

	for _, warning := range report.Warnings {
		opts.log.Warn(warning)
	}
	opts.log.Success("Cache populated for %s in %s", version, destDir)
	return nil
}

type cacheListOpts struct {
	*rootOpts
}

func newCacheList(parent *rootOpts) *cacheListOpts {
	return &cacheListOpts{rootOpts: parent}
}

func (opts *cacheListOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List cached k3s versions and their verification state.",
		Example: makeExample("ranch-hand cache list"),
		RunE:    opts.RunE,
	}
}

func (opts *cacheListOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	root, err := opts.cacheRoot()
	if err != nil {
		return err
	}

	versions, err := cache.List(root)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		opts.log.Info("Cache is empty (%s)", root)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "VERSION\tFILE\tSIZE\tSTATUS\n")
	for _, version := range versions {
		for i, file := range version.Files {
			name := version.Version
			if i > 0 {
				name = ""
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				name, file.Name, formatSize(file.Size), statusText(file.Status))
		}
	}
	return w.Flush()
}

func (opts *rootOpts) cacheRoot() (string, error) {
	if opts.cfg.CacheDir != "" {
		return opts.cfg.CacheDir, nil
	}
	return cache.Root()
}

func statusText(status cache.VerificationStatus) string {
	switch status {
	case cache.VerificationVerified:
		return color.GreenString(status.String())
	case cache.VerificationMismatch:
		return color.RedString(status.String())
	default:
		return color.YellowString(status.String())
	}
}

func formatSize(size int64) string {
	const (
		kib = 1 << 10
		mib = 1 << 20
		gib = 1 << 30
	)
	switch {
	case size >= gib:
		return fmt.Sprintf("%.1f GiB", float64(size)/gib)
	case size >= mib:
		return fmt.Sprintf("%.1f MiB", float64(size)/mib)
	case size >= kib:
		return fmt.Sprintf("%.1f KiB", float64(size)/kib)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
