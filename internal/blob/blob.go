// internal/blob/blob.go
//
// Read-only access to marketplace files.
//
// Catalog rows store a URL per file.  Two schemes are understood:
//
//	s3://bucket/key      -> GetObject through aws-sdk-go-v2
//	http(s)://host/path  -> plain GET
//
// Anything else is ErrScheme.  Callers own the returned body and must close
// it.

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yanizio/sermonario/internal/config"
)

var (
	// ErrScheme reports a file URL that is neither s3 nor http(s).
	ErrScheme = errors.New("blob: unsupported url scheme")
	// ErrNoS3 reports an s3:// URL on a store built without S3.
	ErrNoS3 = errors.New("blob: s3 not configured")
)

// Fetcher opens a stored file for reading.
type Fetcher interface {
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// ObjectGetter is the slice of *s3.Client the store uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store implements Fetcher.
type Store struct {
	s3   ObjectGetter
	http *http.Client
}

var _ Fetcher = (*Store)(nil)

var loadAWSConfig = awsconfig.LoadDefaultConfig

// New builds a store.  S3 is enabled when c.Region or c.Endpoint is set;
// static keys are optional and fall back to the default credential chain.
func New(ctx context.Context, c config.S3, hc *http.Client) (*Store, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	st := &Store{http: hc}
	if c.Region == "" && c.Endpoint == "" {
		return st, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}
	cfg, err := loadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blob: aws config: %w", err)
	}
	st.s3 = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.UsePathStyle
	})
	return st, nil
}

// NewWithClient wires an explicit S3 client; used by tests.
func NewWithClient(s3c ObjectGetter, hc *http.Client) *Store {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Store{s3: s3c, http: hc}
}

// Open dispatches on the URL scheme.
func (s *Store) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("blob: parse url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "s3":
		return s.openS3(ctx, u)
	case "http", "https":
		return s.openHTTP(ctx, u)
	default:
		return nil, ErrScheme
	}
}

func (s *Store) openS3(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if s.s3 == nil {
		return nil, ErrNoS3
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("blob: bad s3 url %q", u.String())
	}
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("blob: get s3://%s/%s: %w", u.Host, key, err)
	}
	return out.Body, nil
}

func (s *Store) openHTTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	res, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blob: get %s: %w", u.Redacted(), err)
	}
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		return nil, fmt.Errorf("blob: get %s: status %d", u.Redacted(), res.StatusCode)
	}
	return res.Body, nil
}
