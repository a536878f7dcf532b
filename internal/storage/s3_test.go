package storage_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/UnknownOlympus/minemap/internal/storage"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	exists     bool
	existsErr  error
	made       []string
	putErr     error
	putBucket  string
	putKey     string
	putType    string
	putPayload string
}

func (f *fakeClient) BucketExists(context.Context, string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeClient) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeClient) PutObject(
	_ context.Context,
	bucket, key string,
	r io.Reader,
	_ int64,
	opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, _ := io.ReadAll(r)
	f.putBucket, f.putKey, f.putType, f.putPayload = bucket, key, opts.ContentType, string(data)
	return minio.UploadInfo{Bucket: bucket, Key: key}, nil
}

func (f *fakeClient) GetObject(context.Context, string, string, minio.GetObjectOptions) (*minio.Object, error) {
	return nil, assert.AnError
}

func TestParseRef(t *testing.T) {
	t.Parallel()

	bucket, key, err := storage.ParseRef("s3://landmines/captures/2024/05/01/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "landmines", bucket)
	assert.Equal(t, "captures/2024/05/01/a.jpg", key)

	for _, ref := range []string{"", "landmines/a.jpg", "s3://", "s3://landmines", "s3://landmines/", "s3:///a.jpg"} {
		_, _, err = storage.ParseRef(ref)
		require.ErrorIs(t, err, storage.ErrInvalidRef, ref)
	}
}

func TestEnsureBucket(t *testing.T) {
	t.Parallel()

	t.Run("creates missing bucket", func(t *testing.T) {
		t.Parallel()
		client := &fakeClient{}
		store := storage.NewS3Store(client, "landmines", slog.Default())

		require.NoError(t, store.EnsureBucket(t.Context(), "us-east-1"))
		assert.Equal(t, []string{"landmines"}, client.made)
	})

	t.Run("keeps existing bucket", func(t *testing.T) {
		t.Parallel()
		client := &fakeClient{exists: true}
		store := storage.NewS3Store(client, "landmines", slog.Default())

		require.NoError(t, store.EnsureBucket(t.Context(), ""))
		assert.Empty(t, client.made)
	})

	t.Run("error - existence check", func(t *testing.T) {
		t.Parallel()
		client := &fakeClient{existsErr: assert.AnError}
		store := storage.NewS3Store(client, "landmines", slog.Default())

		err := store.EnsureBucket(t.Context(), "")
		require.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, client.made)
	})
}

func TestS3StorePut(t *testing.T) {
	t.Parallel()

	t.Run("success - returns s3 reference", func(t *testing.T) {
		t.Parallel()
		client := &fakeClient{}
		store := storage.NewS3Store(client, "landmines", slog.Default())

		ref, err := store.Put(t.Context(), strings.NewReader("jpeg bytes"), 10, "image/jpeg")

		require.NoError(t, err)
		assert.Equal(t, "landmines", client.putBucket)
		assert.Equal(t, "image/jpeg", client.putType)
		assert.Equal(t, "jpeg bytes", client.putPayload)
		assert.True(t, strings.HasPrefix(client.putKey, "captures/"))
		assert.True(t, strings.HasSuffix(client.putKey, ".jpg"))
		assert.Equal(t, "s3://landmines/"+client.putKey, ref)
	})

	t.Run("error - upload fails", func(t *testing.T) {
		t.Parallel()
		client := &fakeClient{putErr: assert.AnError}
		store := storage.NewS3Store(client, "landmines", slog.Default())

		ref, err := store.Put(t.Context(), strings.NewReader("x"), 1, "image/png")

		require.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, ref)
	})
}

func TestS3StoreOpen(t *testing.T) {
	t.Parallel()
	store := storage.NewS3Store(&fakeClient{}, "landmines", slog.Default())

	_, err := store.Open(t.Context(), "/tmp/a.jpg")
	require.ErrorIs(t, err, storage.ErrInvalidRef)

	_, err = store.Open(t.Context(), "s3://other/a.jpg")
	require.ErrorIs(t, err, storage.ErrForeignBucket)

	_, err = store.Open(t.Context(), "s3://landmines/a.jpg")
	require.ErrorIs(t, err, assert.AnError)
}

func TestNewMinioClient(t *testing.T) {
	t.Parallel()

	_, err := storage.NewMinioClient("", "key", "secret", false)
	require.Error(t, err)

	client, err := storage.NewMinioClient("localhost:9000", "key", "secret", false)
	require.NoError(t, err)
	assert.NotNil(t, client)
}
