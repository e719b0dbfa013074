// Package cli implements the crowdlens command-line tool.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crowdlens-cli",
	Short: "A CLI for evaluating followers offline.",
	Long: `crowdlens evaluates follower accounts against the engagement and
risk scoring pipeline without running the HTTP service. Results are printed
per follower and appended to the configured audit sink.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
