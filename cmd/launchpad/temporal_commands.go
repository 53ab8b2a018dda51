package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/solmint/launchpad/service/temporal"
)

func launchStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "launch-status",
		Usage:     "Describe a launch workflow directly against Temporal",
		ArgsUsage: "<workflow-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: workflow id")
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelError,
			}))

			tc, err := temporal.NewClient(
				c.String("temporal-host"),
				c.String("temporal-namespace"),
				"", // task queue not needed for queries
				logger,
			)
			if err != nil {
				return fmt.Errorf("failed to connect to temporal: %w", err)
			}
			defer tc.Close()

			status, err := tc.DescribeLaunch(context.Background(), c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to describe launch: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(status)
			}

			fmt.Printf("Workflow ID: %s\n", status.WorkflowID)
			fmt.Printf("Run ID:      %s\n", status.RunID)
			fmt.Printf("Status:      %s\n", status.Status)
			return nil
		},
	}
}
