package staging

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vvka-141/graphload/internal/checksum"
	"github.com/vvka-141/graphload/pkg/graphload"
)

// Stager uploads CSV files and returns the URI the loader should read.
type Stager struct {
	store      graphload.ObjectStore
	prefix     string
	newID      func() string
	calculator checksum.Calculator
	logger     graphload.Logger
}

// NewStager creates a Stager writing under prefix (DefaultStagingPrefix when
// empty).
func NewStager(store graphload.ObjectStore, prefix string, logger graphload.Logger) *Stager {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = graphload.DefaultStagingPrefix
	}
	return &Stager{
		store:      store,
		prefix:     prefix,
		newID:      uuid.NewString,
		calculator: checksum.New(),
		logger:     logger,
	}
}

// KeyFor returns the object key for name under a fresh unique directory.
func (s *Stager) KeyFor(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == "/" {
		return "", fmt.Errorf("%w: file name is required", graphload.ErrInvalidRequest)
	}
	return path.Join(s.prefix, s.newID(), base), nil
}

// StageCSV uploads data and returns its s3:// URI.
func (s *Stager) StageCSV(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", graphload.ErrInvalidRequest, name)
	}
	key, err := s.KeyFor(name)
	if err != nil {
		return "", err
	}

	if err := s.store.Put(ctx, key, data); err != nil {
		return "", err
	}

	uri := s.store.URI(key)
	if s.logger != nil {
		s.logger.Verbose("Staged %s (%d bytes, content sha256 %s) at %s",
			name, len(data), s.calculator.CalculateNormalized(data), uri)
	}
	return uri, nil
}
