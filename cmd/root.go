// Package cmd defines and implements the CLI commands for the cinefeed
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cinefeed",
		Short: "Renders cinema listings and channel posts into RSS feeds",
		Long: `cinefeed performs one batch run per invocation: it renders the cinema
listing page headlessly, enriches every movie through a TTL cache, diffs
the repertoire against the previous run to produce lifecycle events, and
writes RSS feeds for the listing and for any configured Telegram channels.
It is meant to be invoked repeatedly by an external scheduler such as cron.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (environment variables apply when omitted)")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
