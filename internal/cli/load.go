package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/graphload/internal/config"
	"github.com/vvka-141/graphload/internal/loader"
	"github.com/vvka-141/graphload/internal/logging"
	"github.com/vvka-141/graphload/internal/staging"
	"github.com/vvka-141/graphload/internal/tui"
	"github.com/vvka-141/graphload/pkg/graphload"
)

const loadLong = `Load stages each CSV file in the configured S3 bucket, submits one bulk-load
job per file and polls every job until it reaches a final status.

For every job the command:
1. Uploads the file to s3://<bucket>/<prefix>/<uuid>/<file name>
2. Submits the load (create mode queues behind running loads; upsert mode
   overwrites single-cardinality properties and does not queue)
3. Waits --settle-delay, then checks the status every --poll-interval, with an
   extra --backoff pause while the job is still running
4. Stops at LOAD_COMPLETED, LOAD_FAILED or LOAD_IN_QUEUE, or after
   --max-iterations checks

Files are processed concurrently, at most --concurrency at a time.

Examples:
  # Create vertices and edges from two files
  graphload load nodes.csv edges.csv --mode create

  # Upsert data that is already in S3
  graphload load --source s3://graph-imports/nightly/people.csv --mode upsert

  # Tight polling for small loads
  graphload load people.csv --poll-interval 500ms --backoff 1s --max-iterations 20`

type loadFlagValues struct {
	loaderFlagValues
	mode        string
	source      string
	roleARN     string
	parallelism string
	concurrency int
}

// loadJob is one file (or pre-staged source) to load.
type loadJob struct {
	name   string
	path   string
	source string
}

func newLoadCmd() *cobra.Command {
	var flags loadFlagValues

	cmd := &cobra.Command{
		Use:   "load [csv-file]...",
		Short: "Stage CSV files, submit bulk loads and wait for the outcome",
		Long:  loadLong,
		Args: func(cmd *cobra.Command, args []string) error {
			if flags.source != "" && len(args) > 0 {
				return fmt.Errorf("invalid argument: --source cannot be combined with file arguments")
			}
			if flags.source == "" && len(args) == 0 {
				return fmt.Errorf("requires at least 1 arg(s), only received 0 (or use --source)")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, &flags, args)
		},
	}

	addLoaderFlags(cmd, &flags.loaderFlagValues)
	cmd.Flags().DurationVar(&flags.settleDelay, "settle-delay", graphload.DefaultSettleDelay,
		"Wait between an accepted submission and the first status check")
	cmd.Flags().StringVar(&flags.mode, "mode", "create",
		"Load mode: create|upsert")
	cmd.Flags().StringVar(&flags.source, "source", "",
		"Load an already staged s3:// URI instead of uploading files")
	cmd.Flags().StringVar(&flags.roleARN, "iam-role-arn", "",
		"IAM role the cluster assumes to read the source (overrides loader.iam_role_arn)")
	cmd.Flags().StringVar(&flags.parallelism, "parallelism", "",
		"Loader parallelism hint: LOW|MEDIUM|HIGH (overrides loader.parallelism)")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "c", 4,
		"Maximum number of files loaded at the same time")

	return cmd
}

func runLoad(cmd *cobra.Command, flags *loadFlagValues, args []string) error {
	mode, err := graphload.ParseMode(flags.mode)
	if err != nil {
		return err
	}
	if flags.concurrency < 1 {
		return fmt.Errorf("%w: --concurrency must be at least 1", graphload.ErrInvalidConfig)
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	flags.apply(cmd, cfg)
	if cmd.Flags().Changed("iam-role-arn") {
		cfg.Loader.IAMRoleARN = flags.roleARN
	}
	if cmd.Flags().Changed("parallelism") {
		cfg.Loader.Parallelism = flags.parallelism
	}
	if err := cfg.ValidateLoader(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Loader.IAMRoleARN) == "" {
		return fmt.Errorf("%w: loader.iam_role_arn (or --iam-role-arn) is required", graphload.ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Loader.Region) == "" {
		return fmt.Errorf("%w: loader.region (or --region) is required", graphload.ErrInvalidConfig)
	}

	logger := newLogger(cmd)

	ctx, cancel := commandContext(cmd, flags.timeout)
	defer cancel()

	client, err := newLoaderClient(ctx, cfg)
	if err != nil {
		return err
	}
	tracker := loader.NewTracker(client, logger, timingFrom(cfg))

	jobs := make([]loadJob, 0, max(1, len(args)))
	if flags.source != "" {
		jobs = append(jobs, loadJob{name: flags.source, source: flags.source})
	} else {
		for _, path := range args {
			jobs = append(jobs, loadJob{name: filepath.Base(path), path: path})
		}
	}

	var stager *staging.Stager
	if flags.source == "" {
		store, err := newStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		stager = staging.NewStager(store, cfg.Staging.Prefix, logger)
	}

	logger.Verbose("Loading %d job(s) in %s mode against %s (concurrency %d)",
		len(jobs), mode, client.Endpoint(), flags.concurrency)

	results := make([]tui.Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(flags.concurrency)
	for i, job := range jobs {
		jobLogger := logger
		if len(jobs) > 1 {
			jobLogger = logger.WithPrefix(job.name)
		}
		g.Go(func() error {
			results[i] = runLoadJob(ctx, job, mode, cfg, tracker, stager, jobLogger)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintln(cmd.OutOrStdout(), newRenderer(cmd.OutOrStdout()).Summary(results))
	return resultError(results)
}

func runLoadJob(
	ctx context.Context,
	job loadJob,
	mode graphload.Mode,
	cfg *config.Config,
	tracker *loader.Tracker,
	stager *staging.Stager,
	logger *logging.ConsoleLogger,
) tui.Result {
	result := tui.Result{Name: job.name}

	source := job.source
	if source == "" {
		data, err := os.ReadFile(job.path)
		if err != nil {
			result.Err = fmt.Errorf("%w: read %s: %w", graphload.ErrInvalidRequest, job.path, err)
			return result
		}
		source, err = stager.StageCSV(ctx, job.name, data)
		if err != nil {
			logger.Error("Staging %s failed: %v", job.path, err)
			result.Err = err
			return result
		}
		logger.Info("Staged %s at %s", job.path, source)
	}

	spec := graphload.LoadSpec{
		Source:      source,
		IAMRoleARN:  cfg.Loader.IAMRoleARN,
		Region:      cfg.Loader.Region,
		Parallelism: graphload.Parallelism(cfg.Loader.Parallelism),
	}
	result.Handle, result.Outcome, result.Err = tracker.Run(ctx, mode, spec, cfg.Polling.MaxIterations)
	return result
}
