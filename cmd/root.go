// Package cmd defines the tickertape command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickertape",
		Short: "B2B customer intelligence from SEC filings.",
		Long: `tickertape onboards B2B SaaS clients, discovers their enterprise
customers, and monitors SEC 8-K filings for buying signals. It exposes an
HTTP API for job submission and a WebSocket stream for live progress.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (environment variables with the TICKERTAPE_ prefix also apply)")

	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
