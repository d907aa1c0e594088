package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/sermonario/internal/config"
)

type fakeS3 struct {
	bucket, key string
	err         error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("%PDF-1.7"))}, nil
}

func TestOpen_S3(t *testing.T) {
	fake := &fakeS3{}
	st := NewWithClient(fake, nil)

	rc, err := st.Open(context.Background(), "s3://sermons/catalog/abc.pdf")
	require.NoError(t, err)
	defer rc.Close()

	body, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF-1.7", string(body))
	assert.Equal(t, "sermons", fake.bucket)
	assert.Equal(t, "catalog/abc.pdf", fake.key)
}

func TestOpen_S3Errors(t *testing.T) {
	_, err := NewWithClient(nil, nil).Open(context.Background(), "s3://b/k")
	assert.ErrorIs(t, err, ErrNoS3)

	_, err = NewWithClient(&fakeS3{}, nil).Open(context.Background(), "s3://bucket-only")
	assert.Error(t, err)

	boom := errors.New("NoSuchKey")
	_, err = NewWithClient(&fakeS3{err: boom}, nil).Open(context.Background(), "s3://b/k")
	assert.ErrorIs(t, err, boom)
}

func TestOpen_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"title":"x"}`))
	}))
	defer srv.Close()

	st := NewWithClient(nil, srv.Client())
	rc, err := st.Open(context.Background(), srv.URL+"/file.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.JSONEq(t, `{"title":"x"}`, string(body))

	_, err = st.Open(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")
}

func TestOpen_Scheme(t *testing.T) {
	_, err := NewWithClient(nil, nil).Open(context.Background(), "ftp://example.com/a")
	assert.ErrorIs(t, err, ErrScheme)
}

func TestNew_WithoutS3(t *testing.T) {
	st, err := New(context.Background(), config.S3{}, nil)
	require.NoError(t, err)
	_, err = st.Open(context.Background(), "s3://b/k")
	assert.ErrorIs(t, err, ErrNoS3)
}

func TestNew_WithEndpoint(t *testing.T) {
	st, err := New(context.Background(), config.S3{
		Region:       "us-east-1",
		Endpoint:     "http://localhost:9000",
		AccessKey:    "minio",
		SecretKey:    "minio-secret",
		UsePathStyle: true,
	}, nil)
	require.NoError(t, err)
	assert.NotNil(t, st.s3)
}
