// Package source fetches the action dataset. A location string selects
// the backend: a file path or file:// URL, an http(s):// URL, a
// redis://host:port/db#key URL naming a string key, or an s3://bucket/key
// URL. The dataset is read exactly once per Load.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vizille/dashboard/internal/actions"
)

var (
	// ErrUnavailable reports that the dataset could not be read.
	ErrUnavailable = errors.New("dataset unavailable")
	// ErrMalformed reports that the dataset was read but is not valid.
	ErrMalformed = errors.New("dataset malformed")
	// ErrTooLarge reports a dataset above maxDatasetBytes.
	ErrTooLarge = errors.New("dataset too large")
)

// maxDatasetBytes bounds the size of a fetched dataset.
var maxDatasetBytes int64 = 32 << 20

// readLimited reads r to the end, failing with ErrTooLarge instead of
// returning a truncated document.
func readLimited(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxDatasetBytes+1))
	if err != nil {
		return nil, err
	}
	return checkSize(b)
}

func checkSize(b []byte) ([]byte, error) {
	if int64(len(b)) > maxDatasetBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxDatasetBytes)
	}
	return b, nil
}

// Source reads the raw dataset bytes.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// Options tune the backends. Zero values select defaults.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	S3         S3Config
}

// Open returns the Source for location.
func Open(ctx context.Context, location string, opts Options) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("empty dataset location")
	}
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return NewFileSource(location), nil
	}
	switch u.Scheme {
	case "file":
		return NewFileSource(u.Path), nil
	case "http", "https":
		return NewHTTPSource(location, opts.httpClient()), nil
	case "redis", "rediss":
		return NewRedisSource(location)
	case "s3":
		return NewS3Source(ctx, location, opts.S3)
	}
	return nil, fmt.Errorf("unsupported dataset scheme %q", u.Scheme)
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// Load fetches and decodes the dataset from src. Errors wrap
// ErrUnavailable or ErrMalformed.
func Load(ctx context.Context, src Source) ([]*actions.Action, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, src, err)
	}
	list, err := actions.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, src, err)
	}
	return list, nil
}
