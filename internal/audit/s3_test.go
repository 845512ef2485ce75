package audit

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	bucket, key, body string
	err               error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func withFakeS3(t *testing.T, fake *fakePutter) *s3.Options {
	t.Helper()
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	var captured s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "eu-west-3"}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putObjectAPI {
		for _, fn := range optFns {
			fn(&captured)
		}
		return fake
	}
	return &captured
}

func TestS3Uploader_PutsUnderMonthlyKey(t *testing.T) {
	fake := &fakePutter{}
	opts := withFakeS3(t, fake)

	u, err := NewS3Uploader(context.Background(), S3Config{
		Bucket: "audit-archive", Endpoint: "http://minio:9000", AccessKey: "k", SecretKey: "s", Prefix: "site-a",
	})
	require.NoError(t, err)
	u.now = func() time.Time { return time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC) }

	path := filepath.Join(t.TempDir(), "audit_logs_2026-02-03.txt")
	require.NoError(t, os.WriteFile(path, []byte("=== AUDIT LOG ==="), 0o600))

	require.NoError(t, u.Upload(context.Background(), path))
	assert.Equal(t, "audit-archive", fake.bucket)
	assert.Equal(t, "site-a/audit/2026/02/audit_logs_2026-02-03.txt", fake.key)
	assert.Equal(t, "=== AUDIT LOG ===", fake.body)
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestS3Uploader_Errors(t *testing.T) {
	fake := &fakePutter{err: errors.New("access denied")}
	withFakeS3(t, fake)

	u, err := NewS3Uploader(context.Background(), S3Config{Bucket: "b"})
	require.NoError(t, err)

	require.Error(t, u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.txt")))

	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.ErrorContains(t, u.Upload(context.Background(), path), "access denied")
}

func TestS3Uploader_ConfigLoadError(t *testing.T) {
	withFakeS3(t, &fakePutter{})
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}

	_, err := NewS3Uploader(context.Background(), S3Config{Bucket: "b"})
	require.ErrorContains(t, err, "bad profile")
}

func TestS3Config_Enabled(t *testing.T) {
	assert.False(t, S3Config{}.Enabled())
	assert.True(t, S3Config{Bucket: "b"}.Enabled())
}
