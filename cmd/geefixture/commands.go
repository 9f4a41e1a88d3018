/*
Copyright 2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unikorn-cloud/geefixture/pkg/assets"
	"github.com/unikorn-cloud/geefixture/pkg/config"
	"github.com/unikorn-cloud/geefixture/pkg/ee"
	"github.com/unikorn-cloud/geefixture/pkg/metrics"
	"github.com/unikorn-cloud/geefixture/pkg/session"
)

var (
	// ErrTaskNotFound is returned when no task has the description.
	ErrTaskNotFound = errors.New("no task found")
)

// connector opens a session when a command needs the API.
type connector func(ctx context.Context) (*session.Session, error)

func newRootCommand(c *config.Config, connect connector) *cobra.Command {
	var metricsFile string

	root := &cobra.Command{
		Use:          "geefixture",
		Short:        "Manage Earth Engine test fixtures",
		SilenceUsage: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if metricsFile == "" {
				return nil
			}

			return metrics.WriteToFile(metricsFile)
		},
	}

	c.AddFlags(root.PersistentFlags())
	root.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write metrics to this file on exit.")

	root.AddCommand(
		newRootFolderCommand(connect),
		newListCommand(connect),
		newDeleteCommand(connect),
		newWaitCommand(c, connect),
		newTaskCommand(connect),
		newCheckCommand(connect),
	)

	return root
}

func newRootFolderCommand(connect connector) *cobra.Command {
	return &cobra.Command{
		Use:   "root",
		Short: "Print the project's asset root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), s.Root())

			return nil
		},
	}
}

func newListCommand(connect connector) *cobra.Command {
	return &cobra.Command{
		Use:   "list <folder>",
		Short: "List every asset under a folder, depth first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			found, err := assets.GetAssets(cmd.Context(), s.Client(), args[0])
			if err != nil {
				return err
			}

			for _, asset := range found {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", asset.Type, asset.Name)
			}

			return nil
		},
	}
}

func newDeleteCommand(connect connector) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "delete <asset>",
		Short: "Delete an asset and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			names, err := assets.DeleteAssets(cmd.Context(), s.Client(), args[0], dryRun)

			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be deleted.")

	return cmd
}

func newWaitCommand(c *config.Config, connect connector) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait <operation>",
		Short: "Wait for an export task to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			if timeout == 0 {
				timeout = c.TaskTimeout
			}

			state, err := assets.WaitForTask(cmd.Context(), s.Client(), args[0], c.PollInterval, timeout)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), state)

			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait, defaults to the task timeout.")

	return cmd
}

func newTaskCommand(connect connector) *cobra.Command {
	return &cobra.Command{
		Use:   "task <description>",
		Short: "Find an export task by description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			task, err := assets.GetTask(cmd.Context(), s.Client(), args[0])
			if err != nil {
				return err
			}

			if task == nil {
				return fmt.Errorf("%w: %s", ErrTaskNotFound, args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", task.Name, task.Metadata.TaskType, task.Metadata.State)

			return nil
		},
	}
}

func newCheckCommand(connect connector) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check credentials by evaluating a trivial computation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := connect(cmd.Context())
			if err != nil {
				return err
			}

			value, err := s.Evaluate(cmd.Context(), ee.NewNumber(1))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "project %s: %v\n", s.Client().ProjectID(), value)

			return nil
		},
	}
}
