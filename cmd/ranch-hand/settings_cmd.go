package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type settingsOpts struct {
	*rootOpts
}

func newSettings(parent *rootOpts) *settingsOpts {
	return &settingsOpts{rootOpts: parent}
}

func (opts *settingsOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change Rancher Desktop settings.",
	}
	cmd.AddCommand(
		newSettingsShow(opts.rootOpts).Command(),
		newSettingsSet(opts.rootOpts).Command(),
		newSettingsPropose(opts.rootOpts).Command(),
		newSettingsReset(opts.rootOpts).Command(),
	)
	return cmd
}

type settingsShowOpts struct {
	*rootOpts
}

func newSettingsShow(parent *rootOpts) *settingsShowOpts {
	return &settingsShowOpts{rootOpts: parent}
}

func (opts *settingsShowOpts) Command() *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   "Print the current settings document.",
		Example: makeExample("ranch-hand settings show"),
		RunE:    opts.RunE,
	}
}

func (opts *settingsShowOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	client, err := opts.rdClient()
	if err != nil {
		return err
	}

	settings, err := client.Settings(context.Background())
	if err != nil {
		return err
	}
	return printJSON(cmd, settings)
}

type settingsSetOpts struct {
	*rootOpts
	file string
}

func newSettingsSet(parent *rootOpts) *settingsSetOpts {
	return &settingsSetOpts{rootOpts: parent}
}

func (opts *settingsSetOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [json]",
		Short: "Apply a partial settings document.",
		Example: makeExample(
			`ranch-hand settings set '{"kubernetes":{"version":"1.29.4"}}'`,
			"ranch-hand settings set -f settings.json",
		),
		Args: cobra.MaximumNArgs(1),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "",
		"read the settings document from a file instead of the argument")
	return cmd
}

func (opts *settingsSetOpts) RunE(cmd *cobra.Command, args []string) error {
	patch, err := opts.readPatch(args)
	if err != nil {
		return err
	}

	client, err := opts.rdClient()
	if err != nil {
		return err
	}

	response, err := client.UpdateSettings(context.Background(), patch)
	if err != nil {
		return err
	}

	opts.log.Success("Settings updated")
	if len(response) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), string(response))
	}
	return nil
}

func (opts *settingsSetOpts) readPatch(args []string) ([]byte, error) {
	var patch []byte
	switch {
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", opts.file)
		}
		patch = data
	case len(args) == 1:
		patch = []byte(args[0])
	default:
		return nil, errors.New("pass a JSON document as an argument or via --file")
	}

	if !json.Valid(patch) {
		return nil, errors.New("settings document is not valid JSON")
	}
	return patch, nil
}

type settingsProposeOpts struct {
	*rootOpts
	file string
}

func newSettingsPropose(parent *rootOpts) *settingsProposeOpts {
	return &settingsProposeOpts{rootOpts: parent}
}

func (opts *settingsProposeOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "propose [json]",
		Short:   "Preview the effect of a settings change without applying it.",
		Example: makeExample(`ranch-hand settings propose '{"kubernetes":{"enabled":false}}'`),
		Args:    cobra.MaximumNArgs(1),
		RunE:    opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "",
		"read the settings document from a file instead of the argument")
	return cmd
}

func (opts *settingsProposeOpts) RunE(cmd *cobra.Command, args []string) error {
	set := settingsSetOpts{rootOpts: opts.rootOpts, file: opts.file}
	patch, err := set.readPatch(args)
	if err != nil {
		return err
	}

	client, err := opts.rdClient()
	if err != nil {
		return err
	}

	preview, err := client.ProposeSettings(context.Background(), patch)
	if err != nil {
		return err
	}
	return printJSON(cmd, preview)
}

type settingsResetOpts struct {
	*rootOpts
	yes bool
}

func newSettingsReset(parent *rootOpts) *settingsResetOpts {
	return &settingsResetOpts{rootOpts: parent}
}

func (opts *settingsResetOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Factory-reset all Rancher Desktop settings.",
		Example: makeExample("ranch-hand settings reset --yes"),
		RunE:    opts.RunE,
	}
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false,
		"skip the confirmation prompt")
	return cmd
}

func (opts *settingsResetOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	if !opts.yes {
		prompt := promptui.Prompt{
			Label:     "Reset all Rancher Desktop settings to their defaults",
			IsConfirm: true,
			Default:   "n",
		}
		if _, err := prompt.Run(); err != nil {
			opts.log.Info("Reset cancelled")
			return nil
		}
	}

	client, err := opts.rdClient()
	if err != nil {
		return err
	}

	if err := client.FactoryReset(context.Background()); err != nil {
		return err
	}
	opts.log.Success("Settings reset to defaults")
	return nil
}

func printJSON(cmd *cobra.Command, payload []byte) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		// Not JSON after all; show it as-is.
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}
