package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "pricesentinel",
	Short:         "Price-drop monitor for saved product URLs",
	Long:          "PriceSentinel stores product URLs, checks their prices on a schedule and alerts when a price drops.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or configs/config.yaml)")
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}
