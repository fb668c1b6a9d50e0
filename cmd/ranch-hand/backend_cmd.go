package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type backendOpts struct {
	*rootOpts
}

func newBackend(parent *rootOpts) *backendOpts {
	return &backendOpts{rootOpts: parent}
}

func (opts *backendOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Control the Rancher Desktop backend VM.",
	}
	cmd.AddCommand(
		opts.stateCommand("status", "Show the backend state.", ""),
		opts.stateCommand("start", "Start the backend.", "STARTED"),
		opts.stateCommand("stop", "Stop the backend.", "STOPPED"),
		newBackendRestart(opts.rootOpts).Command(),
	)
	return cmd
}

// stateCommand builds a command that either reads the backend state (empty
// target) or requests a transition to the target state.
func (opts *backendOpts) stateCommand(use, short, target string) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   short,
		Example: makeExample("ranch-hand backend " + use),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return errorWantedNoArgs
			}

			client, err := opts.rdClient()
			if err != nil {
				return err
			}
			ctx := context.Background()

			if target == "" {
				state, err := client.BackendState(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), state)
				return nil
			}

			if err := client.SetBackendState(ctx, target); err != nil {
				return err
			}
			opts.log.Success("Backend transition to %s requested", target)
			return nil
		},
	}
}

type backendRestartOpts struct {
	*rootOpts
	wait time.Duration
}

func newBackendRestart(parent *rootOpts) *backendRestartOpts {
	return &backendRestartOpts{rootOpts: parent}
}

func (opts *backendRestartOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "restart",
		Short:   "Stop and start the backend.",
		Example: makeExample("ranch-hand backend restart"),
		RunE:    opts.RunE,
	}
	cmd.Flags().DurationVar(&opts.wait, "wait", 5*time.Minute,
		"how long to wait for the backend to stop before starting it again")
	return cmd
}

func (opts *backendRestartOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	client, err := opts.rdClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if err := client.SetBackendState(ctx, "STOPPED"); err != nil {
		return err
	}
	opts.log.Info("Waiting for backend to stop")

	deadline := time.Now().Add(opts.wait)
	for {
		state, err := client.BackendState(ctx)
		if err != nil {
			return err
		}
		if state == "STOPPED" {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("backend did not stop within %s (state %s)", opts.wait, state)
		}
		time.Sleep(2 * time.Second)
	}

	if err := client.SetBackendState(ctx, "STARTED"); err != nil {
		return err
	}
	opts.log.Success("Backend restart requested")
	return nil
}
