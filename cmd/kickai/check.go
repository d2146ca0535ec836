package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kickai-football/kickai/internal/startup"
)

func buildCheckCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the startup validation suite and report",
		Long: `Assemble the system the way serve would, run every startup check,
and print the report. The exit code is non-zero when a critical check
fails, so deployments can gate on it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd, flags, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, flags *rootFlags, asJSON bool) error {
	a, err := buildCore(ctx, flags, true)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	report := startup.New(a.validatorDeps()).Run(ctx)

	if asJSON {
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	} else {
		fmt.Fprint(cmd.OutOrStdout(), report.Render())
	}

	if report.Failed() {
		return fmt.Errorf("startup validation failed with %d critical failures", len(report.CriticalFailures))
	}
	return nil
}
