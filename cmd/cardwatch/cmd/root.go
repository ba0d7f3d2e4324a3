// Package cmd implements the CLI commands for cardwatch.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cardwatch",
	Short: "Monitor a shop catalog for restocks and new products",
	Long: "cardwatch polls a product catalog, diffs it against the last persisted " +
		"snapshot, and sends one Discord alert per stock transition: restocks, " +
		"quantity increases, and newly added purchasable listings.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
