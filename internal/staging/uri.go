package staging

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vvka-141/graphload/pkg/graphload"
)

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: parse S3 URI %q: %w", graphload.ErrInvalidRequest, uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: expected s3:// scheme, got %q in %q", graphload.ErrInvalidRequest, u.Scheme, uri)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("%w: empty bucket in S3 URI %q", graphload.ErrInvalidRequest, uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("%w: empty key in S3 URI %q", graphload.ErrInvalidRequest, uri)
	}
	return u.Host, key, nil
}
