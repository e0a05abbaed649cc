package sink

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cuongbtq/pdf-retriever/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectAPI is the subset of *minio.Client the sink uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Minio writes documents to an S3-compatible bucket.
type Minio struct {
	client objectAPI
	bucket string
}

// NewMinio connects to the endpoint and makes sure the bucket exists.
func NewMinio(ctx context.Context, cfg config.ObjectStoreConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return newMinio(ctx, client, cfg.Bucket, cfg.Region)
}

func newMinio(ctx context.Context, client objectAPI, bucket, region string) (*Minio, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}

	if !exists {
		err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
		if err != nil {
			// another worker may have created it in the meantime
			code := minio.ToErrorResponse(err).Code
			if code != "BucketAlreadyOwnedByYou" && code != "BucketAlreadyExists" {
				return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
	}

	return &Minio{client: client, bucket: bucket}, nil
}

func (m *Minio) Destination() string { return config.DestinationObjectStore }

func (m *Minio) Location() string { return "s3://" + m.bucket }

// Put uploads the document as a single object.
func (m *Minio) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}

	_, err := m.client.PutObject(ctx, m.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", m.bucket, name), nil
}

func (m *Minio) Close() error { return nil }
