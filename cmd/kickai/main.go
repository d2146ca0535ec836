// Command kickai runs the Telegram football-team assistant: a long-polling
// bot that routes chat updates through the agent pipeline, plus a startup
// check command for deployment validation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env files are a development convenience; absence is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootFlags are shared across subcommands.
type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func buildRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "kickai",
		Short:         "Telegram assistant for amateur football team management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"path to a YAML or JSON5 configuration file (environment-only without one)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"override the configured log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "",
		"override the configured log format (json|text)")

	root.AddCommand(buildServeCmd(flags), buildCheckCmd(flags), buildVersionCmd())
	return root
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "kickai", version)
		},
	}
}
