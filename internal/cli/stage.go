package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/graphload/internal/staging"
	"github.com/vvka-141/graphload/pkg/graphload"
)

func newStageCmd() *cobra.Command {
	var timeout = graphload.DefaultRequestTimeout * 10

	cmd := &cobra.Command{
		Use:   "stage <csv-file>",
		Short: "Upload a CSV file to the staging bucket and print its URI",
		Long: `Stage uploads a CSV file the same way the load command does and prints the
resulting s3:// URI on stdout, so it can be loaded later with
"graphload load --source <uri>".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd)

			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: read %s: %w", graphload.ErrInvalidRequest, args[0], err)
			}

			store, err := newStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			uri, err := staging.NewStager(store, cfg.Staging.Prefix, logger).
				StageCSV(ctx, filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), uri)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Overall deadline for the upload")
	return cmd
}
