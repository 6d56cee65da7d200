package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const rootLong = `graphload stages CSV files in S3, submits them to a graph database bulk
loader and polls each job until it completes, fails, is queued behind other
loads or the polling budget runs out.

Configuration is read from graphload.yaml (or --config), then GRAPHLOAD_*
environment variables (a .env file in the working directory is honoured),
then command-line flags.

Exit Codes:
  0  - Success (load completed or was queued)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or load request
  11 - Load submission rejected
  12 - Status check failed
  13 - Load job reported LOAD_FAILED
  14 - Polling budget exhausted before a final status
  15 - Staging upload or download failed`

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "graphload",
		Short:        "Bulk-load CSV data into a graph database and track the job",
		Long:         rootLong,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	root.PersistentFlags().String("config", "",
		"Path to the configuration file (default: ./graphload.yaml if present)")

	root.AddCommand(
		newLoadCmd(),
		newStatusCmd(),
		newStageCmd(),
		newFetchCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return newRootCmd().Execute()
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
