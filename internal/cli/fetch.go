package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/graphload/pkg/graphload"
)

func newFetchCmd() *cobra.Command {
	var (
		output  string
		timeout = graphload.DefaultRequestTimeout * 10
	)

	cmd := &cobra.Command{
		Use:   "fetch <key|s3-uri>",
		Short: "Download a staged object",
		Long: `Fetch downloads an object from the staging bucket, given either its key or
its full s3:// URI, and writes it to stdout or --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)

			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			store, err := newStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			key, err := store.Key(args[0])
			if err != nil {
				return err
			}
			data, err := store.Get(ctx, key)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			logger.Verbose("Wrote %d bytes to %s", len(data), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the object to this file instead of stdout")
	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Overall deadline for the download")
	return cmd
}
