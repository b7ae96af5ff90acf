// Package cmd provides the CLI commands for the sliding window limiter service.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "swc-limiter",
	Short: "Sliding window counter rate limiter",
	Long: `swc-limiter admits or denies requests against a single resource using a
sliding window counter: the current fixed window's count plus the previous
window's count weighted by how much of it still overlaps the sliding window.

Configuration:
  Config is loaded from swc-limiter.yaml in the current directory,
  $HOME/.swc-limiter/, or /etc/swc-limiter/.

  Environment variables override config values with the SWC_ prefix.
  Example: SWC_LIMITER_WINDOW_SIZE=30s`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./swc-limiter.yaml)")
}
