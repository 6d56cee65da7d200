package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vvka-141/graphload/pkg/graphload"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GRAPHLOAD_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg from GRAPHLOAD_* variables. Unset variables leave
// the current value untouched.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	strs := map[string]*string{
		"ENDPOINT":                  &cfg.Loader.Endpoint,
		"REGION":                    &cfg.Loader.Region,
		"IAM_ROLE_ARN":              &cfg.Loader.IAMRoleARN,
		"PARALLELISM":               &cfg.Loader.Parallelism,
		"STAGING_BUCKET":            &cfg.Staging.Bucket,
		"STAGING_PREFIX":            &cfg.Staging.Prefix,
		"STAGING_REGION":            &cfg.Staging.Region,
		"STAGING_ENDPOINT":          &cfg.Staging.Endpoint,
		"STAGING_ACCESS_KEY_ID":     &cfg.Staging.AccessKeyID,
		"STAGING_SECRET_ACCESS_KEY": &cfg.Staging.SecretAccessKey,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*Duration{
		"REQUEST_TIMEOUT": &cfg.Loader.RequestTimeout,
		"SETTLE_DELAY":    &cfg.Polling.SettleDelay,
		"POLL_INTERVAL":   &cfg.Polling.Interval,
		"BACKOFF":         &cfg.Polling.Backoff,
	}
	for name, dst := range durations {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(name, v, err)
		}
		*dst = Duration(d)
	}

	bools := map[string]*bool{
		"IAM_AUTH":           &cfg.Loader.IAMAuth,
		"STAGING_PATH_STYLE": &cfg.Staging.PathStyle,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(name, v, err)
		}
		*dst = b
	}

	ints := map[string]*int{
		"RATE_BURST":     &cfg.Loader.RateBurst,
		"MAX_ITERATIONS": &cfg.Polling.MaxIterations,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(name, v, err)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError("RATE_LIMIT", v, err)
		}
		cfg.Loader.RateLimit = f
	}

	return nil
}

func envError(name, value string, err error) error {
	return fmt.Errorf("%w: %s%s=%q: %v", graphload.ErrInvalidConfig, EnvPrefix, name, value, err)
}
