package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/graphload/internal/config"
	"github.com/vvka-141/graphload/internal/loader"
	"github.com/vvka-141/graphload/internal/logging"
	"github.com/vvka-141/graphload/internal/staging"
	"github.com/vvka-141/graphload/internal/tui"
	"github.com/vvka-141/graphload/pkg/graphload"
)

// loadSettings resolves configuration: file, then .env and GRAPHLOAD_*
// variables. Command flags are applied by the caller.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("%w: config file %s not found", graphload.ErrInvalidConfig, path)
		}
	} else {
		cfg, err = config.Load(".")
		if errors.Is(err, config.ErrConfigNotFound) {
			cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}

	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loaderFlagValues are the loader and polling overrides shared by load and status.
type loaderFlagValues struct {
	endpoint      string
	region        string
	settleDelay   time.Duration
	interval      time.Duration
	backoff       time.Duration
	maxIterations int
	timeout       time.Duration
}

func addLoaderFlags(cmd *cobra.Command, f *loaderFlagValues) {
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "",
		"Loader endpoint URL (overrides loader.endpoint and $GRAPHLOAD_ENDPOINT)\n"+
			"Example: https://my-cluster.cluster-abc.us-east-1.neptune.amazonaws.com:8182/loader")
	cmd.Flags().StringVar(&f.region, "region", "", "AWS region of the cluster and the staged data")
	cmd.Flags().DurationVar(&f.interval, "poll-interval", graphload.DefaultPollInterval,
		"Wait after every status check")
	cmd.Flags().DurationVar(&f.backoff, "backoff", graphload.DefaultBackoffDelay,
		"Extra wait after a status that is neither final nor queued")
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", graphload.DefaultMaxIterations,
		"Maximum number of status checks per job")

	// Timeout flag - catastrophic failure protection, not normal timeout control
	cmd.Flags().DurationVar(&f.timeout, "timeout", time.Hour,
		"Overall deadline for the command\n"+
			"Examples: 30s, 5m, 1h30m")
}

// apply copies explicitly set flags over cfg.
func (f *loaderFlagValues) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Loader.Endpoint = f.endpoint
	}
	if flags.Changed("region") {
		cfg.Loader.Region = f.region
	}
	if flags.Lookup("settle-delay") != nil && flags.Changed("settle-delay") {
		cfg.Polling.SettleDelay = config.Duration(f.settleDelay)
	}
	if flags.Changed("poll-interval") {
		cfg.Polling.Interval = config.Duration(f.interval)
	}
	if flags.Changed("backoff") {
		cfg.Polling.Backoff = config.Duration(f.backoff)
	}
	if flags.Changed("max-iterations") {
		cfg.Polling.MaxIterations = f.maxIterations
	}
}

func newLoaderClient(ctx context.Context, cfg *config.Config) (*loader.Client, error) {
	var signer loader.RequestSigner
	if cfg.Loader.IAMAuth {
		s, err := loader.NewDefaultSigV4Signer(ctx, cfg.Loader.Region)
		if err != nil {
			return nil, err
		}
		signer = s
	}

	return loader.NewClient(loader.ClientConfig{
		Endpoint:  cfg.Loader.Endpoint,
		Timeout:   cfg.Loader.RequestTimeout.Std(),
		RateLimit: cfg.Loader.RateLimit,
		RateBurst: cfg.Loader.RateBurst,
		Signer:    signer,
	})
}

func timingFrom(cfg *config.Config) loader.Timing {
	return loader.Timing{
		SettleDelay:  cfg.Polling.SettleDelay.Std(),
		PollInterval: cfg.Polling.Interval.Std(),
		BackoffDelay: cfg.Polling.Backoff.Std(),
	}
}

func newStore(ctx context.Context, cfg *config.Config, logger graphload.Logger) (*staging.Store, error) {
	if err := cfg.ValidateStaging(); err != nil {
		return nil, err
	}
	return staging.NewS3Store(ctx, staging.Config{
		Bucket:          cfg.Staging.Bucket,
		Region:          cfg.StagingRegion(),
		Endpoint:        cfg.Staging.Endpoint,
		AccessKeyID:     cfg.Staging.AccessKeyID,
		SecretAccessKey: cfg.Staging.SecretAccessKey,
		PathStyle:       cfg.Staging.PathStyle,
	}, staging.WithRetryLogging(logger))
}

func newLogger(cmd *cobra.Command) *logging.ConsoleLogger {
	return logging.NewWriterLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
}

func newRenderer(w io.Writer) *tui.Renderer {
	if f, ok := w.(*os.File); ok {
		return tui.NewRenderer(tui.DetectMode(f))
	}
	return tui.NewRenderer(tui.ModePlain)
}

// commandContext applies the command deadline and cancels on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\n[INTERRUPT] Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// resultError turns job results into the command's error, which selects the
// process exit code. Queued jobs count as success.
func resultError(results []tui.Result) error {
	var (
		firstErr          error
		failed, exhausted int
		unsuccessful      int
	)
	for _, r := range results {
		switch {
		case r.Err != nil:
			if firstErr == nil {
				firstErr = r.Err
			}
			unsuccessful++
		case r.Outcome.Outcome == graphload.OutcomeFailed:
			failed++
			unsuccessful++
		case r.Outcome.Outcome == graphload.OutcomeBudgetExhausted:
			exhausted++
			unsuccessful++
		}
	}

	switch {
	case firstErr != nil:
		return fmt.Errorf("%d of %d load jobs did not succeed: %w", unsuccessful, len(results), firstErr)
	case failed > 0:
		return fmt.Errorf("%w: %d of %d jobs reported %s", graphload.ErrLoadFailed, failed, len(results), graphload.StatusFailed)
	case exhausted > 0:
		return fmt.Errorf("%w: %d of %d jobs had no final status", graphload.ErrBudgetExhausted, exhausted, len(results))
	}
	return nil
}
