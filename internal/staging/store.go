package staging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vvka-141/graphload/internal/checksum"
	"github.com/vvka-141/graphload/internal/retry"
	"github.com/vvka-141/graphload/pkg/graphload"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config describes the staging bucket.
type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the S3 endpoint (MinIO, LocalStack).
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Store is an S3-backed graphload.ObjectStore.
type Store struct {
	client   S3API
	bucket   string
	executor *retry.Executor
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithExecutor replaces the default retry executor.
func WithExecutor(e *retry.Executor) StoreOption {
	return func(s *Store) {
		if e != nil {
			s.executor = e
		}
	}
}

// WithRetryLogging logs every retry at verbose level.
func WithRetryLogging(logger graphload.Logger) StoreOption {
	return func(s *Store) {
		if logger == nil {
			return
		}
		s.executor = s.executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("Staging retry %d in %v: %v", attempt+1, delay, err)
		})
	}
}

// NewStore wraps an existing S3 client.
func NewStore(client S3API, bucket string, opts ...StoreOption) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: s3 client is required", graphload.ErrInvalidConfig)
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("%w: staging bucket is required", graphload.ErrInvalidConfig)
	}
	s := &Store{
		client: client,
		bucket: bucket,
		executor: retry.NewExecutor(
			retry.NewTransientErrorClassifier(),
			retry.NewExponentialBackoff(graphload.DefaultRetryMaxAttempts),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewS3Store builds an S3 client from cfg. Static credentials are used when
// AccessKeyID is set; otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg Config, opts ...StoreOption) (*Store, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: staging region is required", graphload.ErrInvalidConfig)
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load AWS config: %w", graphload.ErrInvalidConfig, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
		o.RetryMaxAttempts = 1
	})

	return NewStore(client, cfg.Bucket, opts...)
}

// Bucket returns the staging bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// Put uploads data under key. S3 verifies the upload against its SHA-256.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	sum := checksum.New().Base64Raw(data)
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:         aws.String(s.bucket),
			Key:            aws.String(key),
			Body:           bytes.NewReader(data),
			ContentLength:  aws.Int64(int64(len(data))),
			ContentType:    aws.String(contentType(key)),
			ChecksumSHA256: aws.String(sum),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", graphload.ErrStaging, s.URI(key), err)
	}
	return nil
}

// Get downloads the object stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()

		data, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", graphload.ErrStaging, s.URI(key), err)
	}
	return data, nil
}

// URI returns the s3:// location of key.
func (s *Store) URI(key string) string {
	return "s3://" + s.bucket + "/" + strings.TrimPrefix(key, "/")
}

// Key accepts either a bare key or an s3:// URI in this store's bucket.
func (s *Store) Key(ref string) (string, error) {
	if !strings.HasPrefix(ref, "s3://") {
		key := strings.TrimPrefix(ref, "/")
		if key == "" {
			return "", fmt.Errorf("%w: empty object key", graphload.ErrInvalidRequest)
		}
		return key, nil
	}
	bucket, key, err := ParseURI(ref)
	if err != nil {
		return "", err
	}
	if bucket != s.bucket {
		return "", fmt.Errorf("%w: %s is not in staging bucket %q", graphload.ErrInvalidRequest, ref, s.bucket)
	}
	return key, nil
}

func contentType(key string) string {
	if strings.HasSuffix(strings.ToLower(key), ".csv") {
		return "text/csv"
	}
	return "application/octet-stream"
}
