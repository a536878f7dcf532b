package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const refScheme = "s3://"

var (
	ErrInvalidRef    = errors.New("invalid object reference")
	ErrForeignBucket = errors.New("object reference points to another bucket")
	ErrObjectMissing = errors.New("object not found")
)

// ObjectClient is the subset of *minio.Client used by S3Store.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// S3Store keeps captured images in an S3-compatible bucket.
type S3Store struct {
	client ObjectClient
	bucket string
	log    *slog.Logger
	now    func() time.Time
}

// NewMinioClient connects to a MinIO (or any S3-compatible) endpoint.
func NewMinioClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("missing one or more required settings: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return client, nil
}

// NewS3Store returns a store writing to bucket through client.
func NewS3Store(client ObjectClient, bucket string, log *slog.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, log: log, now: time.Now}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", s.bucket, err)
	}

	s.log.InfoContext(ctx, "Bucket created", "bucket", s.bucket)
	return nil
}

// Put uploads an image and returns its reference in the form s3://bucket/key.
func (s *S3Store) Put(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	key := objectKey(s.now(), contentType)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to store object in S3: %w", err)
	}

	ref := refScheme + s.bucket + "/" + key
	s.log.DebugContext(ctx, "Image stored", "ref", ref, "size", size)
	return ref, nil
}

// Open streams an object previously stored by Put.
func (s *S3Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	if bucket != s.bucket {
		return nil, fmt.Errorf("%w: %s", ErrForeignBucket, bucket)
	}

	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	// GetObject is lazy; Stat surfaces a missing key before the caller starts reading.
	if _, err = object.Stat(); err != nil {
		object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectMissing, ref)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return object, nil
}

// ParseRef splits an s3://bucket/key reference.
func ParseRef(ref string) (string, string, error) {
	rest, ok := strings.CutPrefix(ref, refScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	return bucket, key, nil
}

func objectKey(at time.Time, contentType string) string {
	return fmt.Sprintf("captures/%s/%s%s", at.UTC().Format("2006/01/02"), uuid.NewString(), extension(contentType))
}

func extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/heic":
		return ".heic"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
