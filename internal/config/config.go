package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/graphload/pkg/graphload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const ConfigFileName = "graphload.yaml"

// Duration is a time.Duration written as "1s", "500ms", "2m" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type LoaderConfig struct {
	Endpoint       string   `yaml:"endpoint"`
	Region         string   `yaml:"region"`
	IAMRoleARN     string   `yaml:"iam_role_arn"`
	Parallelism    string   `yaml:"parallelism"`
	IAMAuth        bool     `yaml:"iam_auth"`
	RequestTimeout Duration `yaml:"request_timeout"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
}

type PollingConfig struct {
	SettleDelay   Duration `yaml:"settle_delay"`
	Interval      Duration `yaml:"interval"`
	Backoff       Duration `yaml:"backoff"`
	MaxIterations int      `yaml:"max_iterations"`
}

type StagingConfig struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	PathStyle       bool   `yaml:"path_style,omitempty"`
}

type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Polling PollingConfig `yaml:"polling"`
	Staging StagingConfig `yaml:"staging"`
}

// Default returns a configuration with every tunable at its default.
// Endpoint, role and bucket have no defaults.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			Parallelism:    string(graphload.DefaultParallelism),
			RequestTimeout: Duration(graphload.DefaultRequestTimeout),
			RateLimit:      graphload.DefaultRateLimit,
			RateBurst:      graphload.DefaultRateBurst,
		},
		Polling: PollingConfig{
			SettleDelay:   Duration(graphload.DefaultSettleDelay),
			Interval:      Duration(graphload.DefaultPollInterval),
			Backoff:       Duration(graphload.DefaultBackoffDelay),
			MaxIterations: graphload.DefaultMaxIterations,
		},
		Staging: StagingConfig{
			Prefix: graphload.DefaultStagingPrefix,
		},
	}
}

// Load reads graphload.yaml from dir on top of the defaults.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the config file at path on top of the defaults.
// Keys absent from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", graphload.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// StagingRegion falls back to the loader region.
func (c *Config) StagingRegion() string {
	if c.Staging.Region != "" {
		return c.Staging.Region
	}
	return c.Loader.Region
}

// ValidateLoader checks the settings needed to submit and poll loads.
func (c *Config) ValidateLoader() error {
	var problems []string

	if strings.TrimSpace(c.Loader.Endpoint) == "" {
		problems = append(problems, "loader.endpoint is required")
	}
	if _, err := graphload.ParseParallelism(c.Loader.Parallelism); err != nil {
		problems = append(problems, fmt.Sprintf("loader.parallelism %q is not LOW, MEDIUM or HIGH", c.Loader.Parallelism))
	}
	if c.Loader.IAMAuth && c.Loader.Region == "" {
		problems = append(problems, "loader.region is required when iam_auth is enabled")
	}
	if c.Loader.RequestTimeout <= 0 {
		problems = append(problems, "loader.request_timeout must be positive")
	}
	if c.Loader.RateLimit <= 0 {
		problems = append(problems, "loader.rate_limit must be positive")
	}
	if c.Loader.RateBurst < 1 {
		problems = append(problems, "loader.rate_burst must be at least 1")
	}
	if c.Polling.SettleDelay < 0 || c.Polling.Interval < 0 || c.Polling.Backoff < 0 {
		problems = append(problems, "polling delays must not be negative")
	}
	if c.Polling.MaxIterations < 1 {
		problems = append(problems, "polling.max_iterations must be at least 1")
	}

	return joinProblems(problems)
}

// ValidateStaging checks the settings needed to upload and download objects.
func (c *Config) ValidateStaging() error {
	var problems []string

	if strings.TrimSpace(c.Staging.Bucket) == "" {
		problems = append(problems, "staging.bucket is required")
	}
	if c.StagingRegion() == "" {
		problems = append(problems, "staging.region (or loader.region) is required")
	}
	if (c.Staging.AccessKeyID == "") != (c.Staging.SecretAccessKey == "") {
		problems = append(problems, "staging.access_key_id and staging.secret_access_key must be set together")
	}

	return joinProblems(problems)
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", graphload.ErrInvalidConfig, strings.Join(problems, "; "))
}
