package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamaghna-docket/tickertape/internal/app"
	"github.com/tamaghna-docket/tickertape/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the customer intelligence API server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config failed: %w", err)
			}
			a, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("build application failed: %w", err)
			}
			return a.Run(cmd.Context())
		},
	}
}
