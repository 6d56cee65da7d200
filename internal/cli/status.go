package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/graphload/internal/loader"
	"github.com/vvka-141/graphload/internal/tui"
	"github.com/vvka-141/graphload/pkg/graphload"
)

type statusFlagValues struct {
	loaderFlagValues
	upsert bool
}

func newStatusCmd() *cobra.Command {
	var flags statusFlagValues

	cmd := &cobra.Command{
		Use:   "status <load-id>",
		Short: "Poll an existing load job until it reaches a final status",
		Long: `Status polls a load job that was submitted earlier, using the same cadence
and stopping rules as the load command. No settle delay is applied.

Use --upsert for jobs submitted in upsert mode: a LOAD_FAILED status is then
logged with its full payload.

Examples:
  graphload status 3f1c0a52-6e8a-4f8e-9d8e-2b1a7c9d0e11
  graphload status 3f1c0a52-6e8a-4f8e-9d8e-2b1a7c9d0e11 --upsert --max-iterations 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, &flags, args[0])
		},
	}

	addLoaderFlags(cmd, &flags.loaderFlagValues)
	cmd.Flags().BoolVar(&flags.upsert, "upsert", false,
		"Treat the job as an upsert load and log failed payloads")

	return cmd
}

func runStatus(cmd *cobra.Command, flags *statusFlagValues, loadID string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	flags.apply(cmd, cfg)
	if err := cfg.ValidateLoader(); err != nil {
		return err
	}

	logger := newLogger(cmd)

	ctx, cancel := commandContext(cmd, flags.timeout)
	defer cancel()

	client, err := newLoaderClient(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []loader.PollerOption{
		loader.WithPollInterval(cfg.Polling.Interval.Std()),
		loader.WithBackoffDelay(cfg.Polling.Backoff.Std()),
	}
	poller := loader.NewPoller(client, logger, opts...)
	if flags.upsert {
		poller = loader.NewUpsertPoller(client, logger, opts...)
	}

	handle := graphload.JobHandle{ID: loadID, Endpoint: client.Endpoint()}
	outcome, err := poller.Poll(ctx, handle, cfg.Polling.MaxIterations)

	result := tui.Result{Name: loadID, Handle: handle, Outcome: outcome, Err: err}
	fmt.Fprintln(cmd.OutOrStdout(), newRenderer(cmd.OutOrStdout()).Line(result, 0))
	return resultError([]tui.Result{result})
}
